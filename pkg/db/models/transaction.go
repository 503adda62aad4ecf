package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
)

// Transaction is an append-only money movement against an order or a
// purchase. PaymentID carries the channel payment identifier and dedupes
// replayed webhooks.
type Transaction struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID    uuid.UUID             `gorm:"column:store_id;type:uuid;not null"`
	OrderID    *uuid.UUID            `gorm:"column:order_id;type:uuid;index"`
	PurchaseID *uuid.UUID            `gorm:"column:purchase_id;type:uuid;index"`
	Name       string                `gorm:"column:name;not null"`
	Kind       enums.TransactionKind `gorm:"column:kind;type:text;not null"`
	Amount     decimal.Decimal       `gorm:"column:amount;type:numeric(12,2);not null"`
	PaymentID  *string               `gorm:"column:payment_id;uniqueIndex:idx_transactions_payment_id"`
	Status     string                `gorm:"column:status;not null"`
	CreatedBy  *uuid.UUID            `gorm:"column:created_by;type:uuid"`
	UpdatedBy  *uuid.UUID            `gorm:"column:updated_by;type:uuid"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
