package shipments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
)

// Repository defines persistence operations for shipments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, shipment *models.Shipment) error
	Update(ctx context.Context, shipmentID uuid.UUID, updates map[string]any) error
	FindByID(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error)
	// LockByID loads the shipment FOR UPDATE so concurrent actions on one
	// shipment serialize.
	LockByID(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error)
	FindByAWB(ctx context.Context, awb string) (*models.Shipment, error)
	CreateLineItems(ctx context.Context, items []models.ShipmentLineItem) error
	ListLineItems(ctx context.Context, shipmentID uuid.UUID) ([]models.ShipmentLineItem, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a shipment repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, shipment *models.Shipment) error {
	return r.db.WithContext(ctx).Create(shipment).Error
}

func (r *repository) Update(ctx context.Context, shipmentID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("id = ?", shipmentID).
		Updates(updates).Error
}

func (r *repository) FindByID(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.WithContext(ctx).Where("id = ?", shipmentID).First(&shipment).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) LockByID(ctx context.Context, shipmentID uuid.UUID) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", shipmentID).
		First(&shipment).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) FindByAWB(ctx context.Context, awb string) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.WithContext(ctx).
		Where("awb = ?", awb).
		Order("created_at DESC").
		First(&shipment).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *repository) CreateLineItems(ctx context.Context, items []models.ShipmentLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) ListLineItems(ctx context.Context, shipmentID uuid.UUID) ([]models.ShipmentLineItem, error) {
	var items []models.ShipmentLineItem
	if err := r.db.WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
