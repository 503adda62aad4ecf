package shipments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/internal/inventory"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/orders"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/channel"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	dbtypes "github.com/irfan-ansarii/goldys-inventory-management/pkg/db/types"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type storeLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type fulfillmentPusher interface {
	CreateFulfillment(ctx context.Context, creds channel.Credentials, params channel.FulfillmentParams) error
}

// Service drives the shipment lifecycle. Every mutation is gated by the
// shipment's live actions set; the order's shipment status mirrors whichever
// shipment acted last.
type Service interface {
	CreateForward(ctx context.Context, input CreateForwardInput) (*models.Shipment, error)
	CreateReturn(ctx context.Context, input CreateReturnInput) (*models.Shipment, error)
	Update(ctx context.Context, input UpdateShipmentInput) (*models.Shipment, error)
	Cancel(ctx context.Context, input CancelShipmentInput) (*models.Shipment, error)
}

type service struct {
	repo      Repository
	orders    orders.Repository
	tx        txRunner
	inventory inventory.Service
	stores    storeLoader
	channel   fulfillmentPusher
	logger    *logger.Logger
}

// NewService builds a shipment service. The channel pusher and logger are
// optional; everything else is required.
func NewService(repo Repository, orderRepo orders.Repository, tx txRunner, inv inventory.Service, stores storeLoader, pusher fulfillmentPusher, logg *logger.Logger) (Service, error) {
	if repo == nil {
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
	if stores == nil {
		return nil, fmt.Errorf("store loader required")
	}
	return &service{
		repo:      repo,
		orders:    orderRepo,
		tx:        tx,
		inventory: inv,
		stores:    stores,
		channel:   pusher,
		logger:    logg,
	}, nil
}

func (s *service) CreateForward(ctx context.Context, input CreateForwardInput) (*models.Shipment, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment requires at least one line item")
	}

	lines := foldLines(input.Lines)

	var created *models.Shipment
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		var err error
		order, err = s.lockStoreOrder(ctx, orderRepo, input.StoreID, input.OrderID)
		if err != nil {
			return err
		}

		items, err := orderRepo.ListLineItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load line items")
		}
		itemsByID := make(map[uuid.UUID]models.LineItem, len(items))
		for _, item := range items {
			itemsByID[item.ID] = item
		}

		for _, line := range lines {
			item, ok := itemsByID[line.LineItemID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "line item does not belong to the order")
			}
			if line.Quantity <= 0 || line.Quantity > item.ShippingQuantity {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("quantity for %q must be between 1 and %d", item.Title, item.ShippingQuantity))
			}
		}

		shipment := &models.Shipment{
			OrderID:     order.ID,
			StoreID:     order.StoreID,
			Kind:        enums.ShipmentKindForward,
			Status:      enums.ShipmentStatusShipped,
			Carrier:     input.Carrier,
			AWB:         input.AWB,
			TrackingURL: input.TrackingURL,
			Actions: dbtypes.StringArray{
				enums.ShipmentActionEdit.String(),
				enums.ShipmentActionCancel.String(),
				enums.ShipmentActionComplete.String(),
				enums.ShipmentActionRTO.String(),
			},
			CreatedBy: input.ActorID,
			UpdatedBy: input.ActorID,
		}
		if err := repo.Create(ctx, shipment); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment")
		}

		deltas := make([]inventory.StockDelta, 0, len(lines))
		shipmentItems := make([]models.ShipmentLineItem, 0, len(lines))
		for _, line := range lines {
			item := itemsByID[line.LineItemID]
			shipmentItems = append(shipmentItems, models.ShipmentLineItem{
				ShipmentID: shipment.ID,
				LineItemID: item.ID,
				ProductID:  item.ProductID,
				VariantID:  item.VariantID,
				Quantity:   line.Quantity,
			})
			err := orderRepo.UpdateLineItem(ctx, item.ID, map[string]any{
				"shipping_quantity": item.ShippingQuantity - line.Quantity,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update line item")
			}
			notes := order.Name
			deltas = append(deltas, inventory.StockDelta{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Quantity:  -line.Quantity,
				Reason:    enums.AdjustmentReasonShipmentSale,
				Notes:     &notes,
			})
		}
		if err := repo.CreateLineItems(ctx, shipmentItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment line items")
		}
		if _, err := s.inventory.Apply(ctx, tx, order.StoreID, input.ActorID, deltas); err != nil {
			return err
		}

		err = orderRepo.Update(ctx, order.ID, map[string]any{
			"shipment_status": enums.OrderShipmentStatusShipped,
			"updated_by":      input.ActorID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order shipment status")
		}

		if err := s.pushFulfillment(ctx, order, shipment); err != nil {
			return err
		}

		created = shipment
		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// pushFulfillment mirrors the shipment to the channel for orders that came in
// through it. It runs before the local transaction commits, so a push that
// still fails after the client's retries rolls the shipment back.
func (s *service) pushFulfillment(ctx context.Context, order *models.Order, shipment *models.Shipment) error {
	if s.channel == nil || order == nil || shipment == nil {
		return nil
	}
	channelOrderID := channelOrderID(order)
	if channelOrderID == 0 {
		return nil
	}
	store, err := s.stores.Get(ctx, order.StoreID)
	if err != nil || store.Domain == nil || store.ChannelToken == nil {
		return nil
	}

	params := channel.FulfillmentParams{OrderID: channelOrderID}
	if shipment.AWB != nil {
		params.TrackingNumber = *shipment.AWB
	}
	if shipment.Carrier != nil {
		params.TrackingCompany = *shipment.Carrier
	}
	if shipment.TrackingURL != nil {
		params.TrackingURL = *shipment.TrackingURL
	}

	creds := channel.Credentials{Domain: *store.Domain, Token: *store.ChannelToken}
	if err := s.channel.CreateFulfillment(ctx, creds, params); err != nil {
		if s.logger != nil {
			s.logger.Error(s.logger.WithOrderID(ctx, order.ID.String()), "channel fulfillment push failed", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "push fulfillment to channel")
	}
	return nil
}

// foldLines merges repeated line item ids so validation sees the request's
// full quantity per line, not each entry in isolation.
func foldLines(lines []ShipmentLineInput) []ShipmentLineInput {
	byID := make(map[uuid.UUID]int, len(lines))
	seen := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		if _, ok := byID[line.LineItemID]; !ok {
			seen = append(seen, line.LineItemID)
		}
		byID[line.LineItemID] += line.Quantity
	}
	folded := make([]ShipmentLineInput, 0, len(seen))
	for _, id := range seen {
		folded = append(folded, ShipmentLineInput{LineItemID: id, Quantity: byID[id]})
	}
	return folded
}

func channelOrderID(order *models.Order) int64 {
	if order.AdditionalMeta == nil {
		return 0
	}
	switch v := (*order.AdditionalMeta)["channelOrderId"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

func (s *service) CreateReturn(ctx context.Context, input CreateReturnInput) (*models.Shipment, error) {
	if input.ShipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return requires at least one line item")
	}

	lines := foldLines(input.Lines)

	var created *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		parent, err := s.lockStoreShipment(ctx, repo, input.StoreID, input.ShipmentID)
		if err != nil {
			return err
		}
		if !parent.Actions.Contains(enums.ShipmentActionReturn.String()) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment does not allow returns")
		}

		parentLines, err := repo.ListLineItems(ctx, parent.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment line items")
		}
		shippedByLineItem := make(map[uuid.UUID]models.ShipmentLineItem, len(parentLines))
		for _, line := range parentLines {
			shippedByLineItem[line.LineItemID] = line
		}

		for _, line := range lines {
			shipped, ok := shippedByLineItem[line.LineItemID]
			if !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "line item was not part of the shipment")
			}
			if line.Quantity <= 0 || line.Quantity > shipped.Quantity {
				return pkgerrors.New(pkgerrors.CodeValidation,
					fmt.Sprintf("return quantity must be between 1 and %d", shipped.Quantity))
			}
		}

		// the parent is frozen while the return is open
		err = repo.Update(ctx, parent.ID, map[string]any{
			"actions":    dbtypes.StringArray{},
			"updated_by": input.ActorID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "freeze parent shipment")
		}

		parentID := parent.ID
		child := &models.Shipment{
			OrderID:     parent.OrderID,
			StoreID:     parent.StoreID,
			ParentID:    &parentID,
			Kind:        enums.ShipmentKindReturn,
			Status:      enums.ShipmentStatusReturnInitiated,
			Carrier:     input.Carrier,
			AWB:         input.AWB,
			TrackingURL: input.TrackingURL,
			Actions: dbtypes.StringArray{
				enums.ShipmentActionEdit.String(),
				enums.ShipmentActionCancel.String(),
				enums.ShipmentActionComplete.String(),
			},
			CreatedBy: input.ActorID,
			UpdatedBy: input.ActorID,
		}
		if err := repo.Create(ctx, child); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return shipment")
		}

		items := make([]models.ShipmentLineItem, 0, len(lines))
		for _, line := range lines {
			shipped := shippedByLineItem[line.LineItemID]
			items = append(items, models.ShipmentLineItem{
				ShipmentID: child.ID,
				LineItemID: shipped.LineItemID,
				ProductID:  shipped.ProductID,
				VariantID:  shipped.VariantID,
				Quantity:   line.Quantity,
			})
		}
		if err := repo.CreateLineItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return line items")
		}

		err = orderRepo.Update(ctx, parent.OrderID, map[string]any{
			"shipment_status": enums.OrderShipmentStatusReturnInitiated,
			"updated_by":      input.ActorID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order shipment status")
		}

		created = child
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, input UpdateShipmentInput) (*models.Shipment, error) {
	if input.ShipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if !input.Action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid shipment action %q", input.Action))
	}

	var updated *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		shipment, err := s.lockStoreShipment(ctx, repo, input.StoreID, input.ShipmentID)
		if err != nil {
			return err
		}
		if !shipment.Actions.Contains(input.Action.String()) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("action %q is not allowed on this shipment", input.Action))
		}

		switch input.Action {
		case enums.ShipmentActionEdit:
			err = repo.Update(ctx, shipment.ID, map[string]any{
				"carrier":      input.Carrier,
				"awb":          input.AWB,
				"tracking_url": input.TrackingURL,
				"updated_by":   input.ActorID,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "edit shipment")
			}

		case enums.ShipmentActionRTO:
			if shipment.Kind != enums.ShipmentKindForward {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "only forward shipments can go rto")
			}
			err = s.applyTransition(ctx, repo, orderRepo, shipment, transition{
				kind:        enums.ShipmentKindRTO,
				status:      enums.ShipmentStatusRTOInitiated,
				actions:     dbtypes.StringArray{enums.ShipmentActionEdit.String(), enums.ShipmentActionComplete.String()},
				orderStatus: enums.OrderShipmentStatusRTOInitiated,
				actorID:     input.ActorID,
			})
			if err != nil {
				return err
			}

		case enums.ShipmentActionComplete:
			if err := s.complete(ctx, tx, repo, orderRepo, shipment, input.ActorID); err != nil {
				return err
			}

		default:
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("action %q is not applied through update", input.Action))
		}

		refreshed, err := repo.FindByID(ctx, shipment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload shipment")
		}
		updated = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

type transition struct {
	kind        enums.ShipmentKind
	status      enums.ShipmentStatus
	actions     dbtypes.StringArray
	orderStatus enums.OrderShipmentStatus
	actorID     *uuid.UUID
}

func (s *service) applyTransition(ctx context.Context, repo Repository, orderRepo orders.Repository, shipment *models.Shipment, t transition) error {
	updates := map[string]any{
		"status":     t.status,
		"actions":    t.actions,
		"updated_by": t.actorID,
	}
	if t.kind != "" {
		updates["kind"] = t.kind
	}
	if err := repo.Update(ctx, shipment.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment")
	}
	err := orderRepo.Update(ctx, shipment.OrderID, map[string]any{
		"shipment_status": t.orderStatus,
		"updated_by":      t.actorID,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order shipment status")
	}
	return nil
}

func (s *service) complete(ctx context.Context, tx *gorm.DB, repo Repository, orderRepo orders.Repository, shipment *models.Shipment, actorID *uuid.UUID) error {
	switch shipment.Kind {
	case enums.ShipmentKindForward:
		return s.applyTransition(ctx, repo, orderRepo, shipment, transition{
			status:      enums.ShipmentStatusDelivered,
			actions:     dbtypes.StringArray{enums.ShipmentActionReturn.String()},
			orderStatus: enums.OrderShipmentStatusDelivered,
			actorID:     actorID,
		})

	case enums.ShipmentKindRTO:
		err := s.applyTransition(ctx, repo, orderRepo, shipment, transition{
			status:      enums.ShipmentStatusRTODelivered,
			actions:     dbtypes.StringArray{},
			orderStatus: enums.OrderShipmentStatusRTODelivered,
			actorID:     actorID,
		})
		if err != nil {
			return err
		}
		return s.restock(ctx, tx, repo, orderRepo, shipment, enums.AdjustmentReasonShipmentReturned, actorID)

	case enums.ShipmentKindReturn:
		err := s.applyTransition(ctx, repo, orderRepo, shipment, transition{
			status:      enums.ShipmentStatusReturned,
			actions:     dbtypes.StringArray{},
			orderStatus: enums.OrderShipmentStatusReturned,
			actorID:     actorID,
		})
		if err != nil {
			return err
		}
		return s.restock(ctx, tx, repo, orderRepo, shipment, enums.AdjustmentReasonShipmentReturned, actorID)

	default:
		return pkgerrors.New(pkgerrors.CodeInternal, fmt.Sprintf("unexpected shipment kind %q", shipment.Kind))
	}
}

// restock hands units carried by the shipment back: the order line items
// regain shipping quantity and the store regains stock.
func (s *service) restock(ctx context.Context, tx *gorm.DB, repo Repository, orderRepo orders.Repository, shipment *models.Shipment, reason string, actorID *uuid.UUID) error {
	lines, err := repo.ListLineItems(ctx, shipment.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment line items")
	}

	order, err := orderRepo.FindByID(ctx, shipment.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	items, err := orderRepo.ListLineItems(ctx, shipment.OrderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load line items")
	}
	itemsByID := make(map[uuid.UUID]models.LineItem, len(items))
	for _, item := range items {
		itemsByID[item.ID] = item
	}

	deltas := make([]inventory.StockDelta, 0, len(lines))
	for _, line := range lines {
		if item, ok := itemsByID[line.LineItemID]; ok {
			err := orderRepo.UpdateLineItem(ctx, item.ID, map[string]any{
				"shipping_quantity": item.ShippingQuantity + line.Quantity,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore line item shipping quantity")
			}
		}
		notes := order.Name
		deltas = append(deltas, inventory.StockDelta{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			Reason:    reason,
			Notes:     &notes,
		})
	}
	_, err = s.inventory.Apply(ctx, tx, shipment.StoreID, actorID, deltas)
	return err
}

func (s *service) Cancel(ctx context.Context, input CancelShipmentInput) (*models.Shipment, error) {
	if input.ShipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}

	var cancelled *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		shipment, err := s.lockStoreShipment(ctx, repo, input.StoreID, input.ShipmentID)
		if err != nil {
			return err
		}
		if !shipment.Actions.Contains(enums.ShipmentActionCancel.String()) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment cannot be cancelled")
		}

		if shipment.Kind == enums.ShipmentKindReturn {
			// dropping the return puts the forward shipment back in play
			err := s.applyTransition(ctx, repo, orderRepo, shipment, transition{
				status:      enums.ShipmentStatusCancelled,
				actions:     dbtypes.StringArray{},
				orderStatus: enums.OrderShipmentStatusDelivered,
				actorID:     input.ActorID,
			})
			if err != nil {
				return err
			}
			if shipment.ParentID != nil {
				err = repo.Update(ctx, *shipment.ParentID, map[string]any{
					"actions":    dbtypes.StringArray{enums.ShipmentActionReturn.String()},
					"updated_by": input.ActorID,
				})
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore parent shipment actions")
				}
			}
		} else {
			err := s.applyTransition(ctx, repo, orderRepo, shipment, transition{
				status:      enums.ShipmentStatusCancelled,
				actions:     dbtypes.StringArray{},
				orderStatus: enums.OrderShipmentStatusProcessing,
				actorID:     input.ActorID,
			})
			if err != nil {
				return err
			}
			if err := s.restock(ctx, tx, repo, orderRepo, shipment, enums.AdjustmentReasonShipmentCancelled, input.ActorID); err != nil {
				return err
			}
		}

		refreshed, err := repo.FindByID(ctx, shipment.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload shipment")
		}
		cancelled = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *service) lockStoreOrder(ctx context.Context, repo orders.Repository, storeID, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.LockByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if storeID != uuid.Nil && order.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) lockStoreShipment(ctx context.Context, repo Repository, storeID, shipmentID uuid.UUID) (*models.Shipment, error) {
	shipment, err := repo.LockByID(ctx, shipmentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
	}
	if storeID != uuid.Nil && shipment.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
	}
	return shipment, nil
}
