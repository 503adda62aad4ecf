package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/internal/inventory"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/transactions"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/pagination"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type storeLoader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// Service defines the order aggregate operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Update(ctx context.Context, input UpdateOrderInput) (*models.Order, error)
	Cancel(ctx context.Context, input CancelOrderInput) (*models.Order, error)
	Delete(ctx context.Context, input DeleteOrderInput) error
	Get(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDetail, error)
	List(ctx context.Context, storeID uuid.UUID, search string, params pagination.Params) ([]models.Order, *string, error)
	RecordTransactions(ctx context.Context, storeID, orderID uuid.UUID, actorID *uuid.UUID, inputs []transactions.RecordTransactionInput) (*models.Order, error)
	ListTransactions(ctx context.Context, storeID, orderID uuid.UUID) ([]models.Transaction, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	inventory inventory.Service
	txns      transactions.Service
	stores    storeLoader
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, inv inventory.Service, txns transactions.Service, stores storeLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if inv == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if txns == nil {
		return nil, fmt.Errorf("transactions service required")
	}
	if stores == nil {
		return nil, fmt.Errorf("store loader required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		inventory: inv,
		txns:      txns,
		stores:    stores,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.StoreID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if !input.TaxKind.SaleType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid sale type %q", input.TaxKind.SaleType))
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order := &models.Order{
			StoreID:        input.StoreID,
			Name:           input.Name,
			CustomerID:     input.CustomerID,
			Billing:        input.Billing,
			Shipping:       input.Shipping,
			Subtotal:       input.Subtotal,
			Discount:       input.Discount,
			Tax:            input.Tax.Round(2),
			Charges:        input.Charges,
			Total:          input.Total,
			Due:            input.Total,
			TaxKind:        input.TaxKind,
			TaxLines:       types.SplitTaxLines(input.Tax, input.TaxKind.SaleType),
			Notes:          input.Notes,
			Tags:           input.Tags,
			PaymentStatus:  enums.PaymentStatusUnpaid,
			ShipmentStatus: enums.OrderShipmentStatusProcessing,
			CreatedBy:      input.ActorID,
			UpdatedBy:      input.ActorID,
		}
		if input.CreatedAt != nil {
			order.CreatedAt = *input.CreatedAt
		}
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.LineItem, 0, len(input.LineItems))
		for _, line := range input.LineItems {
			shippingQty := 0
			if line.RequiresShipping {
				shippingQty = line.CurrentQuantity
			}
			items = append(items, models.LineItem{
				OrderID:          order.ID,
				StoreID:          input.StoreID,
				ProductID:        line.ProductID,
				VariantID:        line.VariantID,
				Title:            line.Title,
				VariantTitle:     line.VariantTitle,
				SKU:              line.SKU,
				HSN:              line.HSN,
				Barcode:          line.Barcode,
				Image:            line.Image,
				Price:            line.Price,
				SalePrice:        line.SalePrice,
				Quantity:         line.CurrentQuantity,
				CurrentQuantity:  line.CurrentQuantity,
				ShippingQuantity: shippingQty,
				RequiresShipping: line.RequiresShipping,
				Subtotal:         line.Subtotal,
				Discount:         line.Discount,
				Tax:              line.Tax.Round(2),
				Total:            line.Total,
				TaxLines:         types.SplitTaxLines(line.Tax, input.TaxKind.SaleType),
			})
		}
		if err := repo.CreateLineItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create line items")
		}

		if order.Name == "" {
			store, err := s.stores.Get(ctx, input.StoreID)
			if err != nil {
				return err
			}
			name := fmt.Sprintf("%s%04d%s", store.NameOptions.Prefix, order.OrderNumber, store.NameOptions.Suffix)
			if err := repo.Update(ctx, order.ID, map[string]any{"name": name, "updated_by": input.ActorID}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set order name")
			}
			order.Name = name
		}

		// stock for shippable lines moves when they ship
		deltas := make([]inventory.StockDelta, 0, len(input.LineItems))
		for _, line := range input.LineItems {
			if line.RequiresShipping {
				continue
			}
			notes := order.Name
			deltas = append(deltas, inventory.StockDelta{
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Quantity:  -line.CurrentQuantity,
				Reason:    enums.AdjustmentReasonSale,
				Notes:     &notes,
			})
		}
		if _, err := s.inventory.Apply(ctx, tx, input.StoreID, input.ActorID, deltas); err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, input UpdateOrderInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.TaxKind.SaleType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid sale type %q", input.TaxKind.SaleType))
	}

	var updated *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.lockStoreOrder(ctx, repo, input.StoreID, input.OrderID)
		if err != nil {
			return err
		}

		state, err := s.txns.DeriveOrderStatus(ctx, tx, order.ID, input.Total)
		if err != nil {
			return err
		}

		updates := map[string]any{
			"customer_id":    input.CustomerID,
			"billing":        input.Billing,
			"shipping":       input.Shipping,
			"subtotal":       input.Subtotal,
			"discount":       input.Discount,
			"tax":            input.Tax.Round(2),
			"charges":        input.Charges,
			"total":          input.Total,
			"due":            state.Due,
			"tax_kind":       input.TaxKind,
			"tax_lines":      types.SplitTaxLines(input.Tax, input.TaxKind.SaleType),
			"notes":          input.Notes,
			"tags":           input.Tags,
			"payment_status": state.Status,
			"updated_by":     input.ActorID,
		}
		if err := repo.Update(ctx, order.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}

		oldItems, err := repo.ListLineItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load line items")
		}
		oldByID := make(map[uuid.UUID]models.LineItem, len(oldItems))
		oldCurrentByVariant := make(map[uuid.UUID]int, len(oldItems))
		for _, item := range oldItems {
			oldByID[item.ID] = item
			if item.VariantID != nil {
				oldCurrentByVariant[*item.VariantID] = item.CurrentQuantity
			}
		}

		for _, line := range input.LineItems {
			taxLines := types.SplitTaxLines(line.Tax, input.TaxKind.SaleType)

			if line.LineItemID != nil {
				old, ok := oldByID[*line.LineItemID]
				if !ok {
					return pkgerrors.New(pkgerrors.CodeNotFound, "line item not found")
				}
				fulfilled := old.Quantity - old.ShippingQuantity
				shippingQty := 0
				if line.RequiresShipping {
					shippingQty = line.CurrentQuantity - fulfilled
				}
				err := repo.UpdateLineItem(ctx, old.ID, map[string]any{
					"title":             line.Title,
					"variant_title":     line.VariantTitle,
					"sku":               line.SKU,
					"hsn":               line.HSN,
					"barcode":           line.Barcode,
					"image":             line.Image,
					"price":             line.Price,
					"sale_price":        line.SalePrice,
					"current_quantity":  line.CurrentQuantity,
					"shipping_quantity": shippingQty,
					"requires_shipping": line.RequiresShipping,
					"subtotal":          line.Subtotal,
					"discount":          line.Discount,
					"tax":               line.Tax.Round(2),
					"total":             line.Total,
					"tax_lines":         taxLines,
				})
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update line item")
				}
				continue
			}

			shippingQty := 0
			if line.RequiresShipping {
				shippingQty = line.CurrentQuantity
			}
			item := models.LineItem{
				OrderID:          order.ID,
				StoreID:          order.StoreID,
				ProductID:        line.ProductID,
				VariantID:        line.VariantID,
				Title:            line.Title,
				VariantTitle:     line.VariantTitle,
				SKU:              line.SKU,
				HSN:              line.HSN,
				Barcode:          line.Barcode,
				Image:            line.Image,
				Price:            line.Price,
				SalePrice:        line.SalePrice,
				Quantity:         line.CurrentQuantity,
				CurrentQuantity:  line.CurrentQuantity,
				ShippingQuantity: shippingQty,
				RequiresShipping: line.RequiresShipping,
				Subtotal:         line.Subtotal,
				Discount:         line.Discount,
				Tax:              line.Tax.Round(2),
				Total:            line.Total,
				TaxLines:         taxLines,
			}
			if err := repo.CreateLineItems(ctx, []models.LineItem{item}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create line item")
			}
		}

		deltas := make([]inventory.StockDelta, 0, len(input.LineItems))
		for _, line := range input.LineItems {
			if line.RequiresShipping || line.VariantID == nil {
				continue
			}
			qty := oldCurrentByVariant[*line.VariantID] - line.CurrentQuantity
			reason := enums.AdjustmentReasonSale
			if qty > 0 {
				reason = enums.AdjustmentReasonSaleReturn
			}
			notes := order.Name
			deltas = append(deltas, inventory.StockDelta{
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Quantity:  qty,
				Reason:    reason,
				Notes:     &notes,
			})
		}
		if _, err := s.inventory.Apply(ctx, tx, order.StoreID, input.ActorID, deltas); err != nil {
			return err
		}

		refreshed, err := repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		updated = refreshed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Cancel(ctx context.Context, input CancelOrderInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var cancelled *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.lockStoreOrder(ctx, repo, input.StoreID, input.OrderID)
		if err != nil {
			return err
		}
		if order.CancelledAt != nil || order.ShipmentStatus != enums.OrderShipmentStatusProcessing {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order could not be cancelled")
		}

		now := time.Now().UTC()
		err = repo.Update(ctx, order.ID, map[string]any{
			"cancelled_at":    now,
			"shipment_status": enums.OrderShipmentStatusCancelled,
			"cancel_reason":   input.Reason,
			"updated_by":      input.ActorID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}

		order.CancelledAt = &now
		order.ShipmentStatus = enums.OrderShipmentStatusCancelled
		order.CancelReason = input.Reason
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (s *service) Delete(ctx context.Context, input DeleteOrderInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Role.CanDeleteOrders() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot delete orders")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.lockStoreOrder(ctx, repo, input.StoreID, input.OrderID)
		if err != nil {
			return err
		}

		count, err := repo.CountShipments(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count shipments")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order with shipments cannot be deleted")
		}

		items, err := repo.ListLineItems(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load line items")
		}

		// give back the stock the create decremented for non-shipping lines
		deltas := make([]inventory.StockDelta, 0, len(items))
		for _, item := range items {
			if item.RequiresShipping {
				continue
			}
			notes := order.Name
			deltas = append(deltas, inventory.StockDelta{
				ProductID: item.ProductID,
				VariantID: item.VariantID,
				Quantity:  item.CurrentQuantity,
				Reason:    enums.AdjustmentReasonOrderDeleted,
				Notes:     &notes,
			})
		}
		if _, err := s.inventory.Apply(ctx, tx, order.StoreID, input.ActorID, deltas); err != nil {
			return err
		}

		if err := repo.Delete(ctx, order.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
		}
		return nil
	})
}

func (s *service) Get(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	items, err := s.repo.ListLineItems(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load line items")
	}

	processing := make([]models.LineItem, 0, len(items))
	for _, item := range items {
		if item.RequiresShipping && item.ShippingQuantity > 0 {
			processing = append(processing, item)
		}
	}

	shipments, err := s.repo.ListShipments(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipments")
	}
	details := make([]ShipmentDetail, 0, len(shipments))
	for _, shipment := range shipments {
		shipmentItems, err := s.repo.ListShipmentLineItems(ctx, shipment.ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment line items")
		}
		details = append(details, ShipmentDetail{Shipment: shipment, LineItems: shipmentItems})
	}

	return &OrderDetail{
		Order:      *order,
		LineItems:  items,
		Processing: processing,
		Shipments:  details,
	}, nil
}

func (s *service) List(ctx context.Context, storeID uuid.UUID, search string, params pagination.Params) ([]models.Order, *string, error) {
	if storeID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	orders, next, err := s.repo.List(ctx, ListOrdersParams{
		StoreID: storeID,
		Search:  search,
		Limit:   params.Limit,
		Cursor:  cursor,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	var nextCursor *string
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		nextCursor = &encoded
	}
	return orders, nextCursor, nil
}

func (s *service) RecordTransactions(ctx context.Context, storeID, orderID uuid.UUID, actorID *uuid.UUID, inputs []transactions.RecordTransactionInput) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	var result *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.lockStoreOrder(ctx, repo, storeID, orderID)
		if err != nil {
			return err
		}

		if err := s.txns.RecordForOrder(ctx, tx, order.StoreID, order.ID, actorID, inputs); err != nil {
			return err
		}

		state, err := s.txns.DeriveOrderStatus(ctx, tx, order.ID, order.Total)
		if err != nil {
			return err
		}
		err = repo.Update(ctx, order.ID, map[string]any{
			"payment_status": state.Status,
			"due":            state.Due,
			"updated_by":     actorID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}

		order.PaymentStatus = state.Status
		order.Due = state.Due
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ListTransactions(ctx context.Context, storeID, orderID uuid.UUID) ([]models.Transaction, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.StoreID != storeID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.txns.ListByOrder(ctx, orderID)
}

func (s *service) lockStoreOrder(ctx context.Context, repo Repository, storeID, orderID uuid.UUID) (*models.Order, error) {
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
