package variants

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
)

// Repository resolves product variants, primarily by SKU for channel line
// item matching.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindBySKU(ctx context.Context, storeID uuid.UUID, sku string) (*models.Variant, error)
	FindByID(ctx context.Context, variantID uuid.UUID) (*models.Variant, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a variant repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindBySKU(ctx context.Context, storeID uuid.UUID, sku string) (*models.Variant, error) {
	var variant models.Variant
	if err := r.db.WithContext(ctx).
		Where("store_id = ? AND sku = ?", storeID, sku).
		First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) FindByID(ctx context.Context, variantID uuid.UUID) (*models.Variant, error) {
	var variant models.Variant
	if err := r.db.WithContext(ctx).Where("id = ?", variantID).First(&variant).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}
