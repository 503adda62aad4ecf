package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/types"
)

// LineItemInput is one order line on create or update. LineItemID is set
// only when updating an existing line.
type LineItemInput struct {
	LineItemID       *uuid.UUID
	ProductID        *uuid.UUID
	VariantID        *uuid.UUID
	Title            string
	VariantTitle     *string
	SKU              *string
	HSN              *string
	Barcode          *string
	Image            *string
	Price            decimal.Decimal
	SalePrice        decimal.Decimal
	CurrentQuantity  int
	RequiresShipping bool
	Subtotal         decimal.Decimal
	Discount         decimal.Decimal
	Tax              decimal.Decimal
	Total            decimal.Decimal
}

// CreateOrderInput captures a new sale.
type CreateOrderInput struct {
	StoreID    uuid.UUID
	Name       string
	CustomerID *uuid.UUID
	Billing    types.Address
	Shipping   types.Address
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	Charges    *types.Charge
	Total      decimal.Decimal
	TaxKind    types.TaxKind
	Notes      *string
	Tags       []string
	LineItems  []LineItemInput
	CreatedAt  *time.Time
	ActorID    *uuid.UUID
}

// UpdateOrderInput rewrites an order's commercial fields and lines.
type UpdateOrderInput struct {
	OrderID    uuid.UUID
	StoreID    uuid.UUID
	CustomerID *uuid.UUID
	Billing    types.Address
	Shipping   types.Address
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Tax        decimal.Decimal
	Charges    *types.Charge
	Total      decimal.Decimal
	TaxKind    types.TaxKind
	Notes      *string
	Tags       []string
	LineItems  []LineItemInput
	ActorID    *uuid.UUID
}

// CancelOrderInput marks an order cancelled before anything shipped.
type CancelOrderInput struct {
	OrderID uuid.UUID
	StoreID uuid.UUID
	Reason  *string
	ActorID *uuid.UUID
}

// DeleteOrderInput hard-deletes an order; restricted by role.
type DeleteOrderInput struct {
	OrderID uuid.UUID
	StoreID uuid.UUID
	Role    enums.MemberRole
	ActorID *uuid.UUID
}

// ShipmentDetail is a shipment with its covered line items.
type ShipmentDetail struct {
	models.Shipment
	LineItems []models.ShipmentLineItem `json:"lineItems"`
}

// OrderDetail is the full aggregate returned by Get.
type OrderDetail struct {
	models.Order
	LineItems  []models.LineItem `json:"lineItems"`
	Processing []models.LineItem `json:"processing"`
	Shipments  []ShipmentDetail  `json:"shipments"`
}
