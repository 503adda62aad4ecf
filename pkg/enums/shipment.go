package enums

import "fmt"

// ShipmentKind distinguishes the direction of a shipment.
type ShipmentKind string

const (
	ShipmentKindForward ShipmentKind = "forward"
	ShipmentKindReturn  ShipmentKind = "return"
	ShipmentKindRTO     ShipmentKind = "rto"
)

var validShipmentKinds = []ShipmentKind{
	ShipmentKindForward,
	ShipmentKindReturn,
	ShipmentKindRTO,
}

// String implements fmt.Stringer.
func (k ShipmentKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known ShipmentKind.
func (k ShipmentKind) IsValid() bool {
	for _, candidate := range validShipmentKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ShipmentStatus is the lifecycle state of a single shipment.
type ShipmentStatus string

const (
	ShipmentStatusShipped         ShipmentStatus = "shipped"
	ShipmentStatusDelivered       ShipmentStatus = "delivered"
	ShipmentStatusRTOInitiated    ShipmentStatus = "rto initiated"
	ShipmentStatusRTODelivered    ShipmentStatus = "rto delivered"
	ShipmentStatusReturnInitiated ShipmentStatus = "return initiated"
	ShipmentStatusReturned        ShipmentStatus = "returned"
	ShipmentStatusCancelled       ShipmentStatus = "cancelled"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusShipped,
	ShipmentStatusDelivered,
	ShipmentStatusRTOInitiated,
	ShipmentStatusRTODelivered,
	ShipmentStatusReturnInitiated,
	ShipmentStatusReturned,
	ShipmentStatusCancelled,
}

// String implements fmt.Stringer.
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentStatus.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ShipmentAction is an operation that may be performed on a shipment.
// The actions column on a shipment row lists the actions currently legal
// for it; anything absent from that set is rejected.
type ShipmentAction string

const (
	ShipmentActionEdit     ShipmentAction = "edit"
	ShipmentActionCancel   ShipmentAction = "cancel"
	ShipmentActionComplete ShipmentAction = "complete"
	ShipmentActionRTO      ShipmentAction = "rto"
	ShipmentActionReturn   ShipmentAction = "return"
)

var validShipmentActions = []ShipmentAction{
	ShipmentActionEdit,
	ShipmentActionCancel,
	ShipmentActionComplete,
	ShipmentActionRTO,
	ShipmentActionReturn,
}

// String implements fmt.Stringer.
func (a ShipmentAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known ShipmentAction.
func (a ShipmentAction) IsValid() bool {
	for _, candidate := range validShipmentActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseShipmentAction converts raw input into a ShipmentAction.
func ParseShipmentAction(value string) (ShipmentAction, error) {
	for _, candidate := range validShipmentActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment action %q", value)
}

// OrderShipmentStatus is the order-level fulfillment state. It mirrors the
// status of whichever shipment acted last, with "processing" before any
// shipment exists.
type OrderShipmentStatus string

const (
	OrderShipmentStatusProcessing      OrderShipmentStatus = "processing"
	OrderShipmentStatusShipped         OrderShipmentStatus = "shipped"
	OrderShipmentStatusDelivered       OrderShipmentStatus = "delivered"
	OrderShipmentStatusRTOInitiated    OrderShipmentStatus = "rto initiated"
	OrderShipmentStatusRTODelivered    OrderShipmentStatus = "rto delivered"
	OrderShipmentStatusReturnInitiated OrderShipmentStatus = "return initiated"
	OrderShipmentStatusReturned        OrderShipmentStatus = "returned"
	OrderShipmentStatusCancelled       OrderShipmentStatus = "cancelled"
)

var validOrderShipmentStatuses = []OrderShipmentStatus{
	OrderShipmentStatusProcessing,
	OrderShipmentStatusShipped,
	OrderShipmentStatusDelivered,
	OrderShipmentStatusRTOInitiated,
	OrderShipmentStatusRTODelivered,
	OrderShipmentStatusReturnInitiated,
	OrderShipmentStatusReturned,
	OrderShipmentStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderShipmentStatus.
func (s OrderShipmentStatus) IsValid() bool {
	for _, candidate := range validOrderShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}
