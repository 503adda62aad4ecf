package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/pagination"
)

// Service records stock movements as journal rows plus counter updates.
type Service interface {
	// Apply writes the deltas inside the caller's transaction and returns the
	// created adjustment rows. Deltas with a zero quantity or no variant are
	// skipped; an empty batch is a no-op.
	Apply(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, actorID *uuid.UUID, deltas []StockDelta) ([]models.InventoryAdjustment, error)
	GetStock(ctx context.Context, storeID, variantID uuid.UUID) (int, error)
	ListAdjustments(ctx context.Context, storeID uuid.UUID, variantID *uuid.UUID, params pagination.Params) ([]models.InventoryAdjustment, *string, error)
}

type service struct {
	repo Repository
}

// NewService wires an inventory service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Apply(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, actorID *uuid.UUID, deltas []StockDelta) ([]models.InventoryAdjustment, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}

	applicable := make([]StockDelta, 0, len(deltas))
	for _, delta := range deltas {
		if delta.Quantity == 0 || delta.VariantID == nil {
			continue
		}
		if delta.Reason == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "adjustment reason required")
		}
		applicable = append(applicable, delta)
	}
	if len(applicable) == 0 {
		return nil, nil
	}

	repo := s.repo.WithTx(tx)

	adjustments := make([]models.InventoryAdjustment, 0, len(applicable))
	for _, delta := range applicable {
		adjustments = append(adjustments, models.InventoryAdjustment{
			StoreID:   storeID,
			ProductID: delta.ProductID,
			VariantID: *delta.VariantID,
			Quantity:  delta.Quantity,
			Reason:    delta.Reason,
			Notes:     delta.Notes,
			CreatedBy: actorID,
		})
	}
	if err := repo.CreateAdjustments(ctx, adjustments); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record inventory adjustments")
	}

	for _, delta := range applicable {
		if err := repo.ApplyStockDelta(ctx, storeID, *delta.VariantID, delta.Quantity); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply stock delta")
		}
	}
	return adjustments, nil
}

func (s *service) GetStock(ctx context.Context, storeID, variantID uuid.UUID) (int, error) {
	if storeID == uuid.Nil || variantID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "store id and variant id required")
	}
	stock, err := s.repo.GetStock(ctx, storeID, variantID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock")
	}
	return stock, nil
}

func (s *service) ListAdjustments(ctx context.Context, storeID uuid.UUID, variantID *uuid.UUID, params pagination.Params) ([]models.InventoryAdjustment, *string, error) {
	if storeID == uuid.Nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	adjustments, next, err := s.repo.ListAdjustments(ctx, ListAdjustmentsParams{
		StoreID:   storeID,
		VariantID: variantID,
		Limit:     params.Limit,
		Cursor:    cursor,
	})
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list inventory adjustments")
	}

	var nextCursor *string
	if next != nil {
		encoded := pagination.EncodeCursor(*next)
		nextCursor = &encoded
	}
	return adjustments, nextCursor, nil
}
