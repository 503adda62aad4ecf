package shipments

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/internal/inventory"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/orders"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/channel"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	dbtypes "github.com/irfan-ansarii/goldys-inventory-management/pkg/db/types"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/pagination"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/types"
)

type fakeShipmentRepo struct {
	shipments map[uuid.UUID]*models.Shipment
	lines     map[uuid.UUID][]models.ShipmentLineItem
}

func newFakeShipmentRepo() *fakeShipmentRepo {
	return &fakeShipmentRepo{
		shipments: map[uuid.UUID]*models.Shipment{},
		lines:     map[uuid.UUID][]models.ShipmentLineItem{},
	}
}

func (f *fakeShipmentRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeShipmentRepo) Create(ctx context.Context, shipment *models.Shipment) error {
	shipment.ID = uuid.New()
	f.shipments[shipment.ID] = shipment
	return nil
}

func (f *fakeShipmentRepo) Update(ctx context.Context, shipmentID uuid.UUID, updates map[string]any) error {
	shipment, ok := f.shipments[shipmentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["status"].(enums.ShipmentStatus); ok {
		shipment.Status = status
	}
	if kind, ok := updates["kind"].(enums.ShipmentKind); ok {
		shipment.Kind = kind
	}
	if actions, ok := updates["actions"].(dbtypes.StringArray); ok {
		shipment.Actions = actions
	}
	if carrier, ok := updates["carrier"].(*string); ok {
		shipment.Carrier = carrier
	}
	if awb, ok := updates["awb"].(*string); ok {
		shipment.AWB = awb
	}
	return nil
}

func (f *fakeShipmentRepo) FindByID(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	shipment, ok := f.shipments[shipmentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *shipment
	return &copied, nil
}

func (f *fakeShipmentRepo) LockByID(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	return f.FindByID(ctx, shipmentID)
}

func (f *fakeShipmentRepo) FindByAWB(ctx context.Context, awb string) (*models.Shipment, error) {
	for _, shipment := range f.shipments {
		if shipment.AWB != nil && *shipment.AWB == awb {
			copied := *shipment
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeShipmentRepo) CreateLineItems(ctx context.Context, items []models.ShipmentLineItem) error {
	for _, item := range items {
		f.lines[item.ShipmentID] = append(f.lines[item.ShipmentID], item)
	}
	return nil
}

func (f *fakeShipmentRepo) ListLineItems(ctx context.Context, shipmentID uuid.UUID) ([]models.ShipmentLineItem, error) {
	return f.lines[shipmentID], nil
}

type fakeOrderRepo struct {
	orders      map[uuid.UUID]*models.Order
	items       map[uuid.UUID]*models.LineItem
	itemUpdates map[uuid.UUID]map[string]any
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders:      map[uuid.UUID]*models.Order{},
		items:       map[uuid.UUID]*models.LineItem{},
		itemUpdates: map[uuid.UUID]map[string]any{},
	}
}

func (f *fakeOrderRepo) WithTx(tx *gorm.DB) orders.Repository { return f }

func (f *fakeOrderRepo) Create(ctx context.Context, order *models.Order) error {
	f.orders[order.ID] = order
	return nil
}

func (f *fakeOrderRepo) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	order, ok := f.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if status, ok := updates["shipment_status"].(enums.OrderShipmentStatus); ok {
		order.ShipmentStatus = status
	}
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := f.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) FindByName(ctx context.Context, storeID uuid.UUID, name string) (*models.Order, error) {
	for _, order := range f.orders {
		if order.StoreID == storeID && order.Name == name {
			copied := *order
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrderRepo) LockByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return f.FindByID(ctx, orderID)
}

func (f *fakeOrderRepo) List(ctx context.Context, params orders.ListOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (f *fakeOrderRepo) Delete(ctx context.Context, orderID uuid.UUID) error {
	delete(f.orders, orderID)
	return nil
}

func (f *fakeOrderRepo) CreateLineItems(ctx context.Context, items []models.LineItem) error {
	for i := range items {
		copied := items[i]
		f.items[copied.ID] = &copied
	}
	return nil
}

func (f *fakeOrderRepo) UpdateLineItem(ctx context.Context, lineItemID uuid.UUID, updates map[string]any) error {
	item, ok := f.items[lineItemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.itemUpdates[lineItemID] = updates
	if qty, ok := updates["shipping_quantity"].(int); ok {
		item.ShippingQuantity = qty
	}
	return nil
}

func (f *fakeOrderRepo) ListLineItems(ctx context.Context, orderID uuid.UUID) ([]models.LineItem, error) {
	var out []models.LineItem
	for _, item := range f.items {
		if item.OrderID == orderID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) CountShipments(ctx context.Context, orderID uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeOrderRepo) ListShipments(ctx context.Context, orderID uuid.UUID) ([]models.Shipment, error) {
	return nil, nil
}

func (f *fakeOrderRepo) ListShipmentLineItems(ctx context.Context, shipmentID uuid.UUID) ([]models.ShipmentLineItem, error) {
	return nil, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeInventory struct {
	deltas []inventory.StockDelta
}

func (f *fakeInventory) Apply(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, actorID *uuid.UUID, deltas []inventory.StockDelta) ([]models.InventoryAdjustment, error) {
	f.deltas = append(f.deltas, deltas...)
	return nil, nil
}

func (f *fakeInventory) GetStock(ctx context.Context, storeID, variantID uuid.UUID) (int, error) {
	return 0, nil
}

func (f *fakeInventory) ListAdjustments(ctx context.Context, storeID uuid.UUID, variantID *uuid.UUID, params pagination.Params) ([]models.InventoryAdjustment, *string, error) {
	return nil, nil, nil
}

type fakeStores struct {
	store *models.Store
}

func (f *fakeStores) Get(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	if f.store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return f.store, nil
}

type fakePusher struct {
	calls []channel.FulfillmentParams
	err   error
}

func (f *fakePusher) CreateFulfillment(ctx context.Context, creds channel.Credentials, params channel.FulfillmentParams) error {
	f.calls = append(f.calls, params)
	return f.err
}

type fixture struct {
	repo      *fakeShipmentRepo
	orderRepo *fakeOrderRepo
	inv       *fakeInventory
	stores    *fakeStores
	pusher    *fakePusher
	svc       Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:      newFakeShipmentRepo(),
		orderRepo: newFakeOrderRepo(),
		inv:       &fakeInventory{},
		stores:    &fakeStores{},
		pusher:    &fakePusher{},
	}
	svc, err := NewService(f.repo, f.orderRepo, fakeTxRunner{}, f.inv, f.stores, f.pusher, nil)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func (f *fixture) seedOrder(storeID uuid.UUID) *models.Order {
	order := &models.Order{
		ID:             uuid.New(),
		StoreID:        storeID,
		Name:           "GN1001",
		ShipmentStatus: enums.OrderShipmentStatusProcessing,
	}
	f.orderRepo.orders[order.ID] = order
	return order
}

func (f *fixture) seedLineItem(order *models.Order, shippingQty int) *models.LineItem {
	variantID := uuid.New()
	item := &models.LineItem{
		ID:               uuid.New(),
		OrderID:          order.ID,
		StoreID:          order.StoreID,
		VariantID:        &variantID,
		Title:            "Kurta",
		Quantity:         shippingQty,
		CurrentQuantity:  shippingQty,
		ShippingQuantity: shippingQty,
		RequiresShipping: true,
	}
	f.orderRepo.items[item.ID] = item
	return item
}

func stateConflict(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeStateConflict, domainErr.Code())
}

func TestCreateForwardMovesStockAndStatus(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)
	item := f.seedLineItem(order, 3)

	shipment, err := f.svc.CreateForward(context.Background(), CreateForwardInput{
		OrderID: order.ID,
		StoreID: storeID,
		Lines:   []ShipmentLineInput{{LineItemID: item.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, enums.ShipmentKindForward, shipment.Kind)
	assert.Equal(t, enums.ShipmentStatusShipped, shipment.Status)
	assert.ElementsMatch(t, []string{"edit", "cancel", "complete", "rto"}, []string(shipment.Actions))

	assert.Equal(t, 1, f.orderRepo.items[item.ID].ShippingQuantity)
	assert.Equal(t, enums.OrderShipmentStatusShipped, f.orderRepo.orders[order.ID].ShipmentStatus)

	require.Len(t, f.inv.deltas, 1)
	assert.Equal(t, -2, f.inv.deltas[0].Quantity)
	assert.Equal(t, enums.AdjustmentReasonShipmentSale, f.inv.deltas[0].Reason)
}

func TestCreateForwardRejectsOverShipping(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)
	item := f.seedLineItem(order, 2)

	_, err := f.svc.CreateForward(context.Background(), CreateForwardInput{
		OrderID: order.ID,
		StoreID: storeID,
		Lines:   []ShipmentLineInput{{LineItemID: item.ID, Quantity: 3}},
	})
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())

	_, err = f.svc.CreateForward(context.Background(), CreateForwardInput{
		OrderID: order.ID,
		StoreID: storeID,
		Lines:   nil,
	})
	require.Error(t, err)
}

func TestCreateForwardFoldsDuplicateLineIDs(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)
	item := f.seedLineItem(order, 5)

	_, err := f.svc.CreateForward(context.Background(), CreateForwardInput{
		OrderID: order.ID,
		StoreID: storeID,
		Lines: []ShipmentLineInput{
			{LineItemID: item.ID, Quantity: 5},
			{LineItemID: item.ID, Quantity: 5},
		},
	})
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
	assert.Empty(t, f.inv.deltas)

	shipment, err := f.svc.CreateForward(context.Background(), CreateForwardInput{
		OrderID: order.ID,
		StoreID: storeID,
		Lines: []ShipmentLineInput{
			{LineItemID: item.ID, Quantity: 2},
			{LineItemID: item.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	lines := f.repo.lines[shipment.ID]
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	require.Len(t, f.inv.deltas, 1)
	assert.Equal(t, -5, f.inv.deltas[0].Quantity)
	assert.Equal(t, 0, f.orderRepo.items[item.ID].ShippingQuantity)
}

func TestCreateReturnFoldsDuplicateLineIDs(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)
	item := f.seedLineItem(order, 0)

	parent := &models.Shipment{
		ID:      uuid.New(),
		OrderID: order.ID,
		StoreID: storeID,
		Kind:    enums.ShipmentKindForward,
		Status:  enums.ShipmentStatusDelivered,
		Actions: dbtypes.StringArray{"return"},
	}
	f.repo.shipments[parent.ID] = parent
	f.repo.lines[parent.ID] = []models.ShipmentLineItem{
		{ShipmentID: parent.ID, LineItemID: item.ID, Quantity: 3},
	}

	_, err := f.svc.CreateReturn(context.Background(), CreateReturnInput{
		ShipmentID: parent.ID,
		StoreID:    storeID,
		Lines: []ShipmentLineInput{
			{LineItemID: item.ID, Quantity: 2},
			{LineItemID: item.ID, Quantity: 2},
		},
	})
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestCreateForwardPushesChannelFulfillment(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	domain := "goldys.example.com"
	token := "tok"
	f.stores.store = &models.Store{ID: storeID, Domain: &domain, ChannelToken: &token}

	order := f.seedOrder(storeID)
	meta := types.JSONMap{"channelOrderId": float64(5599)}
	order.AdditionalMeta = &meta
	item := f.seedLineItem(order, 1)

	awb := "AWB123"
	_, err := f.svc.CreateForward(context.Background(), CreateForwardInput{
		OrderID: order.ID,
		StoreID: storeID,
		AWB:     &awb,
		Lines:   []ShipmentLineInput{{LineItemID: item.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	require.Len(t, f.pusher.calls, 1)
	assert.EqualValues(t, 5599, f.pusher.calls[0].OrderID)
	assert.Equal(t, "AWB123", f.pusher.calls[0].TrackingNumber)
}

func TestCreateForwardFailsWhenChannelPushFails(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	domain := "goldys.example.com"
	token := "tok"
	f.stores.store = &models.Store{ID: storeID, Domain: &domain, ChannelToken: &token}
	f.pusher.err = errors.New("channel unavailable")

	order := f.seedOrder(storeID)
	meta := types.JSONMap{"channelOrderId": float64(5599)}
	order.AdditionalMeta = &meta
	item := f.seedLineItem(order, 1)

	_, err := f.svc.CreateForward(context.Background(), CreateForwardInput{
		OrderID: order.ID,
		StoreID: storeID,
		Lines:   []ShipmentLineInput{{LineItemID: item.ID, Quantity: 1}},
	})
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeDependency, domainErr.Code())
}

func TestCreateReturnFreezesParent(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)
	item := f.seedLineItem(order, 0)

	parent := &models.Shipment{
		ID:      uuid.New(),
		OrderID: order.ID,
		StoreID: storeID,
		Kind:    enums.ShipmentKindForward,
		Status:  enums.ShipmentStatusDelivered,
		Actions: dbtypes.StringArray{"return"},
	}
	f.repo.shipments[parent.ID] = parent
	f.repo.lines[parent.ID] = []models.ShipmentLineItem{
		{ShipmentID: parent.ID, LineItemID: item.ID, VariantID: item.VariantID, Quantity: 2},
	}

	child, err := f.svc.CreateReturn(context.Background(), CreateReturnInput{
		ShipmentID: parent.ID,
		StoreID:    storeID,
		Lines:      []ShipmentLineInput{{LineItemID: item.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, enums.ShipmentKindReturn, child.Kind)
	assert.Equal(t, enums.ShipmentStatusReturnInitiated, child.Status)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)
	assert.Empty(t, []string(f.repo.shipments[parent.ID].Actions))
	assert.Equal(t, enums.OrderShipmentStatusReturnInitiated, f.orderRepo.orders[order.ID].ShipmentStatus)
}

func TestCreateReturnRejectsOverReturn(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)
	item := f.seedLineItem(order, 0)

	parent := &models.Shipment{
		ID:      uuid.New(),
		OrderID: order.ID,
		StoreID: storeID,
		Kind:    enums.ShipmentKindForward,
		Status:  enums.ShipmentStatusDelivered,
		Actions: dbtypes.StringArray{"return"},
	}
	f.repo.shipments[parent.ID] = parent
	f.repo.lines[parent.ID] = []models.ShipmentLineItem{
		{ShipmentID: parent.ID, LineItemID: item.ID, Quantity: 1},
	}

	_, err := f.svc.CreateReturn(context.Background(), CreateReturnInput{
		ShipmentID: parent.ID,
		StoreID:    storeID,
		Lines:      []ShipmentLineInput{{LineItemID: item.ID, Quantity: 2}},
	})
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestCreateReturnRequiresReturnAction(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)

	parent := &models.Shipment{
		ID:      uuid.New(),
		OrderID: order.ID,
		StoreID: storeID,
		Kind:    enums.ShipmentKindForward,
		Status:  enums.ShipmentStatusShipped,
		Actions: dbtypes.StringArray{"edit", "cancel", "complete", "rto"},
	}
	f.repo.shipments[parent.ID] = parent

	_, err := f.svc.CreateReturn(context.Background(), CreateReturnInput{
		ShipmentID: parent.ID,
		StoreID:    storeID,
		Lines:      []ShipmentLineInput{{LineItemID: uuid.New(), Quantity: 1}},
	})
	stateConflict(t, err)
}

func TestUpdateActionGate(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)

	shipment := &models.Shipment{
		ID:      uuid.New(),
		OrderID: order.ID,
		StoreID: storeID,
		Kind:    enums.ShipmentKindForward,
		Status:  enums.ShipmentStatusDelivered,
		Actions: dbtypes.StringArray{"return"},
	}
	f.repo.shipments[shipment.ID] = shipment

	_, err := f.svc.Update(context.Background(), UpdateShipmentInput{
		ShipmentID: shipment.ID,
		StoreID:    storeID,
		Action:     enums.ShipmentActionComplete,
	})
	stateConflict(t, err)
}

func TestUpdateRTOFlipsKind(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)

	shipment := &models.Shipment{
		ID:      uuid.New(),
		OrderID: order.ID,
		StoreID: storeID,
		Kind:    enums.ShipmentKindForward,
		Status:  enums.ShipmentStatusShipped,
		Actions: dbtypes.StringArray{"edit", "cancel", "complete", "rto"},
	}
	f.repo.shipments[shipment.ID] = shipment

	updated, err := f.svc.Update(context.Background(), UpdateShipmentInput{
		ShipmentID: shipment.ID,
		StoreID:    storeID,
		Action:     enums.ShipmentActionRTO,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.ShipmentKindRTO, updated.Kind)
	assert.Equal(t, enums.ShipmentStatusRTOInitiated, updated.Status)
	assert.ElementsMatch(t, []string{"edit", "complete"}, []string(updated.Actions))
	assert.Equal(t, enums.OrderShipmentStatusRTOInitiated, f.orderRepo.orders[order.ID].ShipmentStatus)
}

func TestCompleteForwardOpensReturnWindow(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)

	shipment := &models.Shipment{
		ID:      uuid.New(),
		OrderID: order.ID,
		StoreID: storeID,
		Kind:    enums.ShipmentKindForward,
		Status:  enums.ShipmentStatusShipped,
		Actions: dbtypes.StringArray{"edit", "cancel", "complete", "rto"},
	}
	f.repo.shipments[shipment.ID] = shipment

	updated, err := f.svc.Update(context.Background(), UpdateShipmentInput{
		ShipmentID: shipment.ID,
		StoreID:    storeID,
		Action:     enums.ShipmentActionComplete,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.ShipmentStatusDelivered, updated.Status)
	assert.ElementsMatch(t, []string{"return"}, []string(updated.Actions))
	assert.Equal(t, enums.OrderShipmentStatusDelivered, f.orderRepo.orders[order.ID].ShipmentStatus)
	// delivery does not touch stock
	assert.Empty(t, f.inv.deltas)
}

func TestCompleteReturnRestocks(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)
	item := f.seedLineItem(order, 0)

	shipment := &models.Shipment{
		ID:      uuid.New(),
		OrderID: order.ID,
		StoreID: storeID,
		Kind:    enums.ShipmentKindReturn,
		Status:  enums.ShipmentStatusReturnInitiated,
		Actions: dbtypes.StringArray{"edit", "cancel", "complete"},
	}
	f.repo.shipments[shipment.ID] = shipment
	f.repo.lines[shipment.ID] = []models.ShipmentLineItem{
		{ShipmentID: shipment.ID, LineItemID: item.ID, VariantID: item.VariantID, Quantity: 2},
	}

	updated, err := f.svc.Update(context.Background(), UpdateShipmentInput{
		ShipmentID: shipment.ID,
		StoreID:    storeID,
		Action:     enums.ShipmentActionComplete,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.ShipmentStatusReturned, updated.Status)
	assert.Empty(t, []string(updated.Actions))
	assert.Equal(t, enums.OrderShipmentStatusReturned, f.orderRepo.orders[order.ID].ShipmentStatus)
	assert.Equal(t, 2, f.orderRepo.items[item.ID].ShippingQuantity)

	require.Len(t, f.inv.deltas, 1)
	assert.Equal(t, 2, f.inv.deltas[0].Quantity)
	assert.Equal(t, enums.AdjustmentReasonShipmentReturned, f.inv.deltas[0].Reason)
}

func TestCancelForwardRestoresState(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)
	order.ShipmentStatus = enums.OrderShipmentStatusShipped
	item := f.seedLineItem(order, 1)

	shipment := &models.Shipment{
		ID:      uuid.New(),
		OrderID: order.ID,
		StoreID: storeID,
		Kind:    enums.ShipmentKindForward,
		Status:  enums.ShipmentStatusShipped,
		Actions: dbtypes.StringArray{"edit", "cancel", "complete", "rto"},
	}
	f.repo.shipments[shipment.ID] = shipment
	f.repo.lines[shipment.ID] = []models.ShipmentLineItem{
		{ShipmentID: shipment.ID, LineItemID: item.ID, VariantID: item.VariantID, Quantity: 2},
	}

	cancelled, err := f.svc.Cancel(context.Background(), CancelShipmentInput{
		ShipmentID: shipment.ID,
		StoreID:    storeID,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.ShipmentStatusCancelled, cancelled.Status)
	assert.Equal(t, enums.OrderShipmentStatusProcessing, f.orderRepo.orders[order.ID].ShipmentStatus)
	assert.Equal(t, 3, f.orderRepo.items[item.ID].ShippingQuantity)

	require.Len(t, f.inv.deltas, 1)
	assert.Equal(t, 2, f.inv.deltas[0].Quantity)
	assert.Equal(t, enums.AdjustmentReasonShipmentCancelled, f.inv.deltas[0].Reason)
}

func TestCancelReturnReopensParent(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)
	order.ShipmentStatus = enums.OrderShipmentStatusReturnInitiated

	parent := &models.Shipment{
		ID:      uuid.New(),
		OrderID: order.ID,
		StoreID: storeID,
		Kind:    enums.ShipmentKindForward,
		Status:  enums.ShipmentStatusDelivered,
		Actions: dbtypes.StringArray{},
	}
	f.repo.shipments[parent.ID] = parent

	parentID := parent.ID
	child := &models.Shipment{
		ID:       uuid.New(),
		OrderID:  order.ID,
		StoreID:  storeID,
		ParentID: &parentID,
		Kind:     enums.ShipmentKindReturn,
		Status:   enums.ShipmentStatusReturnInitiated,
		Actions:  dbtypes.StringArray{"edit", "cancel", "complete"},
	}
	f.repo.shipments[child.ID] = child

	cancelled, err := f.svc.Cancel(context.Background(), CancelShipmentInput{
		ShipmentID: child.ID,
		StoreID:    storeID,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.ShipmentStatusCancelled, cancelled.Status)
	assert.Equal(t, enums.OrderShipmentStatusDelivered, f.orderRepo.orders[order.ID].ShipmentStatus)
	assert.ElementsMatch(t, []string{"return"}, []string(f.repo.shipments[parent.ID].Actions))
	// cancelling an unshipped return never moves stock
	assert.Empty(t, f.inv.deltas)
}

func TestCancelBlockedWithoutAction(t *testing.T) {
	f := newFixture(t)
	storeID := uuid.New()
	order := f.seedOrder(storeID)

	shipment := &models.Shipment{
		ID:      uuid.New(),
		OrderID: order.ID,
		StoreID: storeID,
		Kind:    enums.ShipmentKindForward,
		Status:  enums.ShipmentStatusDelivered,
		Actions: dbtypes.StringArray{"return"},
	}
	f.repo.shipments[shipment.ID] = shipment

	_, err := f.svc.Cancel(context.Background(), CancelShipmentInput{
		ShipmentID: shipment.ID,
		StoreID:    storeID,
	})
	stateConflict(t, err)
}
