package shipments

import (
	"github.com/google/uuid"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
)

// ShipmentLineInput names one order line item and how many units to carry.
type ShipmentLineInput struct {
	LineItemID uuid.UUID
	Quantity   int
}

// CreateForwardInput dispatches units of an order to the customer.
type CreateForwardInput struct {
	OrderID     uuid.UUID
	StoreID     uuid.UUID
	Carrier     *string
	AWB         *string
	TrackingURL *string
	Lines       []ShipmentLineInput
	ActorID     *uuid.UUID
}

// CreateReturnInput opens a return against a delivered forward shipment.
type CreateReturnInput struct {
	ShipmentID  uuid.UUID
	StoreID     uuid.UUID
	Carrier     *string
	AWB         *string
	TrackingURL *string
	Lines       []ShipmentLineInput
	ActorID     *uuid.UUID
}

// UpdateShipmentInput applies one action from the shipment's live action set.
type UpdateShipmentInput struct {
	ShipmentID  uuid.UUID
	StoreID     uuid.UUID
	Action      enums.ShipmentAction
	Carrier     *string
	AWB         *string
	TrackingURL *string
	ActorID     *uuid.UUID
}

// CancelShipmentInput voids a shipment that still allows cancellation.
type CancelShipmentInput struct {
	ShipmentID uuid.UUID
	StoreID    uuid.UUID
	ActorID    *uuid.UUID
}
