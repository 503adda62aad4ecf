package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/pagination"
)

// Repository defines persistence operations for orders and their children.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindByName(ctx context.Context, storeID uuid.UUID, name string) (*models.Order, error)
	// LockByID loads the order FOR UPDATE so mutations on one order serialize.
	LockByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	List(ctx context.Context, params ListOrdersParams) ([]models.Order, *pagination.Cursor, error)
	Delete(ctx context.Context, orderID uuid.UUID) error

	CreateLineItems(ctx context.Context, items []models.LineItem) error
	UpdateLineItem(ctx context.Context, lineItemID uuid.UUID, updates map[string]any) error
	ListLineItems(ctx context.Context, orderID uuid.UUID) ([]models.LineItem, error)

	CountShipments(ctx context.Context, orderID uuid.UUID) (int64, error)
	ListShipments(ctx context.Context, orderID uuid.UUID) ([]models.Shipment, error)
	ListShipmentLineItems(ctx context.Context, shipmentID uuid.UUID) ([]models.ShipmentLineItem, error)
}

// ListOrdersParams filters the order listing.
type ListOrdersParams struct {
	StoreID uuid.UUID
	Search  string
	Limit   int
	Cursor  *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) Update(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByName(ctx context.Context, storeID uuid.UUID, name string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND name = ?", storeID, name).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) LockByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", orderID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, params ListOrdersParams) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Preload("LineItems").
		Where("store_id = ?", params.StoreID)
	if params.Search != "" {
		query = query.Where("name LIKE ?", "%"+params.Search+"%")
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&orders).Error; err != nil {
		return nil, nil, err
	}

	if len(orders) > normalized {
		next := orders[normalized]
		orders = orders[:normalized]
		return orders, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return orders, nil, nil
}

func (r *repository) Delete(ctx context.Context, orderID uuid.UUID) error {
	// children are removed explicitly so sqlite tests without FK cascades
	// behave like the postgres schema
	db := r.db.WithContext(ctx)
	if err := db.Where("order_id = ?", orderID).Delete(&models.LineItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", orderID).Delete(&models.Transaction{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", orderID).Delete(&models.Order{}).Error
}

func (r *repository) CreateLineItems(ctx context.Context, items []models.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) UpdateLineItem(ctx context.Context, lineItemID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.LineItem{}).
		Where("id = ?", lineItemID).
		Updates(updates).Error
}

func (r *repository) ListLineItems(ctx context.Context, orderID uuid.UUID) ([]models.LineItem, error) {
	var items []models.LineItem
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) CountShipments(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) ListShipments(ctx context.Context, orderID uuid.UUID) ([]models.Shipment, error) {
	var shipments []models.Shipment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&shipments).Error; err != nil {
		return nil, err
	}
	return shipments, nil
}

func (r *repository) ListShipmentLineItems(ctx context.Context, shipmentID uuid.UUID) ([]models.ShipmentLineItem, error) {
	var items []models.ShipmentLineItem
	if err := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
