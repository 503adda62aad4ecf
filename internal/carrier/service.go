package carrier

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/internal/inventory"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/orders"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/shipments"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/config"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	dbtypes "github.com/irfan-ansarii/goldys-inventory-management/pkg/db/types"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// TrackingEvent is one status push from the carrier. OrderName carries the
// carrier-side order reference, which is the local order name.
type TrackingEvent struct {
	StoreID   uuid.UUID
	OrderName string
	AWB       string
	Status    string
	Carrier   string
}

// Service folds carrier tracking pushes into the shipment tree.
type Service interface {
	HandleTrackingEvent(ctx context.Context, event TrackingEvent) error
}

type service struct {
	shipments shipments.Repository
	orders    orders.Repository
	tx        txRunner
	inventory inventory.Service
	cfg       config.CarrierConfig
	logger    *logger.Logger
}

// NewService builds the carrier event handler. The logger is optional.
func NewService(shipmentRepo shipments.Repository, orderRepo orders.Repository, tx txRunner, inv inventory.Service, cfg config.CarrierConfig, logg *logger.Logger) (Service, error) {
	if shipmentRepo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	return &service{
		shipments: shipmentRepo,
		orders:    orderRepo,
		tx:        tx,
		inventory: inv,
		cfg:       cfg,
		logger:    logg,
	}, nil
}

func (s *service) HandleTrackingEvent(ctx context.Context, event TrackingEvent) error {
	if event.AWB == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "tracking event awb required")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		shipmentRepo := s.shipments.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		shipment, err := shipmentRepo.FindByAWB(ctx, event.AWB)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up shipment by awb")
		}

		if shipment != nil {
			return s.track(ctx, shipmentRepo, orderRepo, shipment, event)
		}
		return s.adopt(ctx, tx, shipmentRepo, orderRepo, event)
	})
}

// track updates an existing shipment and mirrors the status onto the order.
// Delivery closes the cancel window: the action set is rewritten the same way
// a manual completion would rewrite it.
func (s *service) track(ctx context.Context, shipmentRepo shipments.Repository, orderRepo orders.Repository, shipment *models.Shipment, event TrackingEvent) error {
	status := mapStatus(strings.ToLower(event.Status), shipment.Kind)

	updates := map[string]any{"status": status}
	if status == enums.ShipmentStatusDelivered {
		if shipment.Kind == enums.ShipmentKindForward {
			updates["actions"] = dbtypes.StringArray{enums.ShipmentActionReturn.String()}
		} else {
			updates["actions"] = dbtypes.StringArray{}
		}
	}

	err := shipmentRepo.Update(ctx, shipment.ID, updates)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment status")
	}
	err = orderRepo.Update(ctx, shipment.OrderID, map[string]any{
		"shipment_status": enums.OrderShipmentStatus(status),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order shipment status")
	}
	return nil
}

// adopt handles a push for an AWB no local shipment carries yet: the carrier
// was booked outside the app, so the first event creates the forward shipment
// and ships every pending line.
func (s *service) adopt(ctx context.Context, tx *gorm.DB, shipmentRepo shipments.Repository, orderRepo orders.Repository, event TrackingEvent) error {
	order, err := orderRepo.FindByName(ctx, event.StoreID, event.OrderName)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			s.warn(ctx, "tracking event for unknown order, skipping", event)
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up order by name")
	}

	items, err := orderRepo.ListLineItems(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load line items")
	}
	pending := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		if item.RequiresShipping && item.ShippingQuantity > 0 {
			pending = append(pending, item)
		}
	}
	if len(pending) == 0 {
		s.warn(ctx, "no pending line items, skipping tracking event", event)
		return nil
	}

	count, err := orderRepo.CountShipments(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count shipments")
	}
	if count > 0 {
		s.warn(ctx, "order already has shipments, skipping tracking event", event)
		return nil
	}

	trackingURL := fmt.Sprintf(s.cfg.TrackingURLTemplate, event.AWB)
	awb := event.AWB
	var carrier *string
	if event.Carrier != "" {
		carrier = &event.Carrier
	}
	shipment := &models.Shipment{
		OrderID:     order.ID,
		StoreID:     order.StoreID,
		Kind:        enums.ShipmentKindForward,
		Status:      enums.ShipmentStatusShipped,
		Carrier:     carrier,
		AWB:         &awb,
		TrackingURL: &trackingURL,
		Actions: dbtypes.StringArray{
			enums.ShipmentActionEdit.String(),
			enums.ShipmentActionCancel.String(),
			enums.ShipmentActionComplete.String(),
			enums.ShipmentActionRTO.String(),
		},
	}
	if err := shipmentRepo.Create(ctx, shipment); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment")
	}

	shipmentItems := make([]models.ShipmentLineItem, 0, len(pending))
	deltas := make([]inventory.StockDelta, 0, len(pending))
	for _, item := range pending {
		shipmentItems = append(shipmentItems, models.ShipmentLineItem{
			ShipmentID: shipment.ID,
			LineItemID: item.ID,
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			Quantity:   item.ShippingQuantity,
		})
		notes := order.Name
		deltas = append(deltas, inventory.StockDelta{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  -item.ShippingQuantity,
			Reason:    enums.AdjustmentReasonShipmentSale,
			Notes:     &notes,
		})
		err := orderRepo.UpdateLineItem(ctx, item.ID, map[string]any{"shipping_quantity": 0})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update line item")
		}
	}
	if err := shipmentRepo.CreateLineItems(ctx, shipmentItems); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment line items")
	}
	if _, err := s.inventory.Apply(ctx, tx, order.StoreID, nil, deltas); err != nil {
		return err
	}

	tags := append([]string{}, order.Tags...)
	tags = append(tags, "shipped")
	err = orderRepo.Update(ctx, order.ID, map[string]any{
		"shipment_status": enums.OrderShipmentStatusShipped,
		"tags":            tags,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order shipment status")
	}
	return nil
}

func (s *service) warn(ctx context.Context, msg string, event TrackingEvent) {
	if s.logger == nil {
		return
	}
	ctx = s.logger.WithFields(ctx, map[string]any{
		"awb":       event.AWB,
		"orderName": event.OrderName,
		"status":    event.Status,
	})
	s.logger.Warn(ctx, msg)
}

// mapStatus folds the carrier's status vocabulary onto the local one. The
// in-flight statuses collapse to shipped, except on return shipments where
// they stay "return initiated". Anything unrecognized passes through as-is.
func mapStatus(status string, kind enums.ShipmentKind) enums.ShipmentStatus {
	switch status {
	case "pickup booked", "pickup generated", "out for pickup", "in transit",
		"picked up", "shipped", "reached at destination hub", "out for delivery",
		"undelivered":
		if kind == enums.ShipmentKindReturn {
			return enums.ShipmentStatusReturnInitiated
		}
		return enums.ShipmentStatusShipped
	case "delivered":
		return enums.ShipmentStatusDelivered
	case "rto initiated", "rto in transit", "rto_ofd":
		return enums.ShipmentStatusRTOInitiated
	}
	return enums.ShipmentStatus(status)
}
