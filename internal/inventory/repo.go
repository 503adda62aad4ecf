package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/pagination"
)

// Repository manages persistence for the adjustment journal and the
// materialized stock counter.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAdjustments(ctx context.Context, adjustments []models.InventoryAdjustment) error
	ApplyStockDelta(ctx context.Context, storeID, variantID uuid.UUID, quantity int) error
	GetStock(ctx context.Context, storeID, variantID uuid.UUID) (int, error)
	ListAdjustments(ctx context.Context, params ListAdjustmentsParams) ([]models.InventoryAdjustment, *pagination.Cursor, error)
}

// ListAdjustmentsParams filters the adjustment journal listing.
type ListAdjustmentsParams struct {
	StoreID   uuid.UUID
	VariantID *uuid.UUID
	Limit     int
	Cursor    *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAdjustments(ctx context.Context, adjustments []models.InventoryAdjustment) error {
	if len(adjustments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&adjustments).Error
}

// ApplyStockDelta moves the counter atomically so concurrent writers never
// lose increments. Counters may go negative when sales outrun recorded stock.
func (r *repository) ApplyStockDelta(ctx context.Context, storeID, variantID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO inventory (id, store_id, variant_id, stock, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (store_id, variant_id)
		DO UPDATE SET stock = inventory.stock + excluded.stock,
			updated_at = CURRENT_TIMESTAMP
	`, uuid.New(), storeID, variantID, quantity).Error
}

func (r *repository) GetStock(ctx context.Context, storeID, variantID uuid.UUID) (int, error) {
	var row models.Inventory
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND variant_id = ?", storeID, variantID).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, nil
		}
		return 0, err
	}
	return row.Stock, nil
}

func (r *repository) ListAdjustments(ctx context.Context, params ListAdjustmentsParams) ([]models.InventoryAdjustment, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)

	query := r.db.WithContext(ctx).
		Model(&models.InventoryAdjustment{}).
		Where("store_id = ?", params.StoreID)
	if params.VariantID != nil {
		query = query.Where("variant_id = ?", *params.VariantID)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var adjustments []models.InventoryAdjustment
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&adjustments).Error; err != nil {
		return nil, nil, err
	}

	if len(adjustments) > normalized {
		next := adjustments[normalized]
		adjustments = adjustments[:normalized]
		return adjustments, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return adjustments, nil, nil
}
