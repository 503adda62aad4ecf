package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/types"
)

// Customer is a store-scoped buyer, matched by email when channel orders
// arrive.
type Customer struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StoreID   uuid.UUID      `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_customers_store_email"`
	Name      string         `gorm:"column:name;not null"`
	Email     string         `gorm:"column:email;not null;uniqueIndex:idx_customers_store_email"`
	Phone     *string        `gorm:"column:phone"`
	Address   *types.JSONMap `gorm:"column:address;type:jsonb;serializer:json"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
