package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/types"
)

// LineItem is one product position on an order.
//
// Quantity is the originally ordered count and never changes after create.
// CurrentQuantity is the live count after edits. ShippingQuantity is the
// portion still awaiting a forward shipment; the invariant
// 0 <= shipping_quantity <= current_quantity holds at rest.
type LineItem struct {
	ID               uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	StoreID          uuid.UUID       `gorm:"column:store_id;type:uuid;not null"`
	ProductID        *uuid.UUID      `gorm:"column:product_id;type:uuid"`
	VariantID        *uuid.UUID      `gorm:"column:variant_id;type:uuid"`
	Title            string          `gorm:"column:title;not null"`
	VariantTitle     *string         `gorm:"column:variant_title"`
	SKU              *string         `gorm:"column:sku"`
	HSN              *string         `gorm:"column:hsn"`
	Barcode          *string         `gorm:"column:barcode"`
	Image            *string         `gorm:"column:image"`
	Price            decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	SalePrice        decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2);not null"`
	Quantity         int             `gorm:"column:quantity;not null"`
	CurrentQuantity  int             `gorm:"column:current_quantity;not null"`
	ShippingQuantity int             `gorm:"column:shipping_quantity;not null;default:0"`
	RequiresShipping bool            `gorm:"column:requires_shipping;not null;default:true"`
	Subtotal         decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount         decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Tax              decimal.Decimal `gorm:"column:tax;type:numeric(12,2);not null;default:0"`
	Total            decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`
	TaxLines         []types.TaxLine `gorm:"column:tax_lines;type:jsonb;serializer:json"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
