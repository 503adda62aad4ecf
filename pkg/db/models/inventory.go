package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryAdjustment is one append-only signed stock movement. The reason
// column carries the business cause ("Sale", "shipment returned", ...).
type InventoryAdjustment struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID  `gorm:"column:store_id;type:uuid;not null;index"`
	ProductID *uuid.UUID `gorm:"column:product_id;type:uuid"`
	VariantID uuid.UUID  `gorm:"column:variant_id;type:uuid;not null;index"`
	Quantity  int        `gorm:"column:quantity;not null"`
	Reason    string     `gorm:"column:reason;not null"`
	Notes     *string    `gorm:"column:notes"`
	CreatedBy *uuid.UUID `gorm:"column:created_by;type:uuid"`
	UpdatedBy *uuid.UUID `gorm:"column:updated_by;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// Inventory is the materialized stock counter per store and variant. It is
// only ever moved by applying adjustment quantities, never set directly.
type Inventory struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_inventory_store_variant"`
	VariantID uuid.UUID `gorm:"column:variant_id;type:uuid;not null;uniqueIndex:idx_inventory_store_variant"`
	Stock     int       `gorm:"column:stock;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
