package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/irfan-ansarii/goldys-inventory-management/pkg/db/types"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
)

// Shipment is one node in an order's shipment tree. Return shipments point
// at the forward shipment they reverse via ParentID. Actions is the live set
// of operations legal on this row; it is the only transition gate.
type Shipment struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	StoreID     uuid.UUID            `gorm:"column:store_id;type:uuid;not null"`
	ParentID    *uuid.UUID           `gorm:"column:parent_id;type:uuid"`
	Kind        enums.ShipmentKind   `gorm:"column:kind;type:text;not null"`
	Status      enums.ShipmentStatus `gorm:"column:status;type:text;not null"`
	Carrier     *string              `gorm:"column:carrier"`
	AWB         *string              `gorm:"column:awb;index"`
	TrackingURL *string              `gorm:"column:tracking_url"`
	Actions     dbtypes.StringArray  `gorm:"column:actions;type:text[]"`
	CreatedBy   *uuid.UUID           `gorm:"column:created_by;type:uuid"`
	UpdatedBy   *uuid.UUID           `gorm:"column:updated_by;type:uuid"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// ShipmentLineItem records how many units of an order line item a shipment
// carries.
type ShipmentLineItem struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShipmentID uuid.UUID  `gorm:"column:shipment_id;type:uuid;not null;index"`
	LineItemID uuid.UUID  `gorm:"column:line_item_id;type:uuid;not null"`
	ProductID  *uuid.UUID `gorm:"column:product_id;type:uuid"`
	VariantID  *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Quantity   int        `gorm:"column:quantity;not null"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
}
