package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/types"
)

// Order is the aggregate root: one sale with its line items, transactions,
// and shipments. Money columns are numeric(12,2).
type Order struct {
	ID             uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID        uuid.UUID                 `gorm:"column:store_id;type:uuid;not null;index"`
	OrderNumber    int64                     `gorm:"column:order_number;autoIncrement;uniqueIndex"`
	Name           string                    `gorm:"column:name;not null;index:idx_orders_store_name"`
	CustomerID     *uuid.UUID                `gorm:"column:customer_id;type:uuid"`
	Billing        types.Address             `gorm:"column:billing;type:jsonb;serializer:json"`
	Shipping       types.Address             `gorm:"column:shipping;type:jsonb;serializer:json"`
	Subtotal       decimal.Decimal           `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount       decimal.Decimal           `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Tax            decimal.Decimal           `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	Charges        *types.Charge             `gorm:"column:charges;type:jsonb;serializer:json"`
	Total          decimal.Decimal           `gorm:"column:total;type:numeric(12,2);not null"`
	Due            decimal.Decimal           `gorm:"column:due;type:numeric(12,2);not null"`
	TaxKind        types.TaxKind             `gorm:"column:tax_kind;type:jsonb;serializer:json"`
	TaxLines       []types.TaxLine           `gorm:"column:tax_lines;type:jsonb;serializer:json"`
	Notes          *string                   `gorm:"column:notes"`
	Tags           []string                  `gorm:"column:tags;type:jsonb;serializer:json"`
	PaymentStatus  enums.PaymentStatus       `gorm:"column:payment_status;type:text;not null;default:'unpaid'"`
	ShipmentStatus enums.OrderShipmentStatus `gorm:"column:shipment_status;type:text;not null;default:'processing'"`
	CancelledAt    *time.Time                `gorm:"column:cancelled_at"`
	CancelReason   *string                   `gorm:"column:cancel_reason"`
	AdditionalMeta *types.JSONMap            `gorm:"column:additional_meta;type:jsonb;serializer:json"`
	CreatedBy      *uuid.UUID                `gorm:"column:created_by;type:uuid"`
	UpdatedBy      *uuid.UUID                `gorm:"column:updated_by;type:uuid"`
	LineItems      []LineItem                `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
