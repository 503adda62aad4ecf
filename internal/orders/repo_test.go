package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  order_number INTEGER,
  name TEXT NOT NULL DEFAULT '',
  customer_id TEXT,
  billing TEXT,
  shipping TEXT,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  discount NUMERIC NOT NULL DEFAULT 0,
  tax NUMERIC NOT NULL DEFAULT 0,
  charges TEXT,
  total NUMERIC NOT NULL DEFAULT 0,
  due NUMERIC NOT NULL DEFAULT 0,
  tax_kind TEXT,
  tax_lines TEXT,
  notes TEXT,
  tags TEXT,
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  shipment_status TEXT NOT NULL DEFAULT 'processing',
  cancelled_at DATETIME,
  cancel_reason TEXT,
  additional_meta TEXT,
  created_by TEXT,
  updated_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS line_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  store_id TEXT NOT NULL,
  product_id TEXT,
  variant_id TEXT,
  title TEXT NOT NULL,
  variant_title TEXT,
  sku TEXT,
  hsn TEXT,
  barcode TEXT,
  image TEXT,
  price NUMERIC NOT NULL DEFAULT 0,
  sale_price NUMERIC NOT NULL DEFAULT 0,
  quantity INTEGER NOT NULL DEFAULT 0,
  current_quantity INTEGER NOT NULL DEFAULT 0,
  shipping_quantity INTEGER NOT NULL DEFAULT 0,
  requires_shipping BOOLEAN NOT NULL DEFAULT 0,
  subtotal NUMERIC NOT NULL DEFAULT 0,
  discount NUMERIC NOT NULL DEFAULT 0,
  tax NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  tax_lines TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS shipments (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  store_id TEXT NOT NULL,
  parent_id TEXT,
  kind TEXT NOT NULL,
  status TEXT NOT NULL,
  carrier TEXT,
  awb TEXT,
  tracking_url TEXT,
  actions TEXT,
  created_by TEXT,
  updated_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS shipment_line_items (
  id TEXT PRIMARY KEY,
  shipment_id TEXT NOT NULL,
  line_item_id TEXT NOT NULL,
  product_id TEXT,
  variant_id TEXT,
  quantity INTEGER NOT NULL,
  created_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  store_id TEXT NOT NULL,
  order_id TEXT,
  purchase_id TEXT,
  name TEXT NOT NULL,
  kind TEXT NOT NULL,
  amount NUMERIC NOT NULL,
  payment_id TEXT,
  status TEXT NOT NULL,
  created_by TEXT,
  updated_by TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`}
	for _, statement := range statements {
		require.NoError(t, db.Exec(statement).Error)
	}
	return db
}

func seedOrder(t *testing.T, repo Repository, storeID uuid.UUID, name string, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:        uuid.New(),
		StoreID:   storeID,
		Name:      name,
		Subtotal:  decimal.NewFromInt(100),
		Total:     decimal.NewFromInt(100),
		Due:       decimal.NewFromInt(100),
		CreatedAt: createdAt,
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}

func TestOrderRepoFindAndUpdate(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	storeID := uuid.New()
	order := seedOrder(t, repo, storeID, "GN1001", time.Now().UTC())

	found, err := repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "GN1001", found.Name)

	byName, err := repo.FindByName(ctx, storeID, "GN1001")
	require.NoError(t, err)
	assert.Equal(t, order.ID, byName.ID)

	_, err = repo.FindByName(ctx, uuid.New(), "GN1001")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = repo.Update(ctx, order.ID, map[string]any{
		"payment_status": enums.PaymentStatusPaid,
		"due":            decimal.Zero,
	})
	require.NoError(t, err)

	found, err = repo.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, found.PaymentStatus)
	assert.True(t, found.Due.IsZero())
}

func TestOrderRepoListPaginates(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	storeID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedOrder(t, repo, storeID, "GN100"+string(rune('1'+i)), base.Add(time.Duration(i)*time.Minute))
	}

	page, next, err := repo.List(ctx, ListOrdersParams{StoreID: storeID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.NotNil(t, next)
	assert.Equal(t, "GN1003", page[0].Name)
	assert.Equal(t, "GN1002", page[1].Name)

	rest, last, err := repo.List(ctx, ListOrdersParams{StoreID: storeID, Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Nil(t, last)
	assert.Equal(t, "GN1001", rest[0].Name)
}

func TestOrderRepoListSearchesByName(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	storeID := uuid.New()
	seedOrder(t, repo, storeID, "GN1001", time.Now().UTC())
	seedOrder(t, repo, storeID, "POS-55", time.Now().UTC().Add(time.Second))

	page, _, err := repo.List(ctx, ListOrdersParams{StoreID: storeID, Search: "POS"})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "POS-55", page[0].Name)
}

func TestOrderRepoDeleteRemovesChildren(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	storeID := uuid.New()
	order := seedOrder(t, repo, storeID, "GN1001", time.Now().UTC())

	require.NoError(t, repo.CreateLineItems(ctx, []models.LineItem{
		{ID: uuid.New(), OrderID: order.ID, StoreID: storeID, Title: "Kurta", CurrentQuantity: 1},
	}))
	oid := order.ID
	require.NoError(t, db.Create(&models.Transaction{
		ID:      uuid.New(),
		StoreID: storeID,
		OrderID: &oid,
		Name:    "Cash",
		Kind:    enums.TransactionKindSale,
		Amount:  decimal.NewFromInt(100),
		Status:  enums.TransactionStatusSuccess,
	}).Error)

	require.NoError(t, repo.Delete(ctx, order.ID))

	_, err := repo.FindByID(ctx, order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	items, err := repo.ListLineItems(ctx, order.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	var txnCount int64
	require.NoError(t, db.Model(&models.Transaction{}).Where("order_id = ?", order.ID).Count(&txnCount).Error)
	assert.Zero(t, txnCount)
}

func TestOrderRepoLineItemLifecycle(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	storeID := uuid.New()
	order := seedOrder(t, repo, storeID, "GN1001", time.Now().UTC())

	first := uuid.New()
	second := uuid.New()
	now := time.Now().UTC()
	require.NoError(t, repo.CreateLineItems(ctx, []models.LineItem{
		{ID: first, OrderID: order.ID, StoreID: storeID, Title: "Kurta", CurrentQuantity: 2, ShippingQuantity: 2, RequiresShipping: true, CreatedAt: now},
		{ID: second, OrderID: order.ID, StoreID: storeID, Title: "Dupatta", CurrentQuantity: 1, CreatedAt: now.Add(time.Second)},
	}))

	require.NoError(t, repo.UpdateLineItem(ctx, first, map[string]any{"shipping_quantity": 1}))

	items, err := repo.ListLineItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first, items[0].ID)
	assert.Equal(t, 1, items[0].ShippingQuantity)
}

func TestOrderRepoShipmentQueries(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	storeID := uuid.New()
	order := seedOrder(t, repo, storeID, "GN1001", time.Now().UTC())

	count, err := repo.CountShipments(ctx, order.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	shipmentID := uuid.New()
	require.NoError(t, db.Create(&models.Shipment{
		ID:      shipmentID,
		OrderID: order.ID,
		StoreID: storeID,
		Kind:    enums.ShipmentKindForward,
		Status:  enums.ShipmentStatusShipped,
	}).Error)
	require.NoError(t, db.Create(&models.ShipmentLineItem{
		ID:         uuid.New(),
		ShipmentID: shipmentID,
		LineItemID: uuid.New(),
		Quantity:   2,
	}).Error)

	count, err = repo.CountShipments(ctx, order.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	shipments, err := repo.ListShipments(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, shipments, 1)

	lines, err := repo.ListShipmentLineItems(ctx, shipmentID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}
