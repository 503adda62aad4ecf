package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/pagination"
)

type fakeRepo struct {
	adjustments []models.InventoryAdjustment
	deltas      map[uuid.UUID]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{deltas: map[uuid.UUID]int{}}
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) CreateAdjustments(ctx context.Context, adjustments []models.InventoryAdjustment) error {
	f.adjustments = append(f.adjustments, adjustments...)
	return nil
}

func (f *fakeRepo) ApplyStockDelta(ctx context.Context, storeID, variantID uuid.UUID, quantity int) error {
	f.deltas[variantID] += quantity
	return nil
}

func (f *fakeRepo) GetStock(ctx context.Context, storeID, variantID uuid.UUID) (int, error) {
	return f.deltas[variantID], nil
}

func (f *fakeRepo) ListAdjustments(ctx context.Context, params ListAdjustmentsParams) ([]models.InventoryAdjustment, *pagination.Cursor, error) {
	return f.adjustments, nil, nil
}

func TestApplySkipsZeroAndUnresolvedDeltas(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	storeID := uuid.New()
	variantID := uuid.New()

	deltas := []StockDelta{
		{VariantID: &variantID, Quantity: -2, Reason: enums.AdjustmentReasonSale},
		{VariantID: &variantID, Quantity: 0, Reason: enums.AdjustmentReasonSale},
		{VariantID: nil, Quantity: -5, Reason: enums.AdjustmentReasonSale},
	}

	created, err := svc.Apply(context.Background(), nil, storeID, nil, deltas)
	require.NoError(t, err)

	assert.Len(t, created, 1)
	assert.Equal(t, -2, created[0].Quantity)
	assert.Len(t, repo.adjustments, 1)
	assert.Equal(t, -2, repo.deltas[variantID])
}

func TestApplyEmptyBatchIsNoOp(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	variantID := uuid.New()
	deltas := []StockDelta{
		{VariantID: &variantID, Quantity: 0, Reason: enums.AdjustmentReasonSale},
	}

	created, err := svc.Apply(context.Background(), nil, uuid.New(), nil, deltas)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Empty(t, repo.adjustments)
}

func TestApplyRequiresReason(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	variantID := uuid.New()
	_, err = svc.Apply(context.Background(), nil, uuid.New(), nil, []StockDelta{
		{VariantID: &variantID, Quantity: 1},
	})
	require.Error(t, err)
	domainErr := pkgerrors.As(err)
	require.NotNil(t, domainErr)
	assert.Equal(t, pkgerrors.CodeValidation, domainErr.Code())
}

func TestApplyAccumulatesOppositeMovements(t *testing.T) {
	repo := newFakeRepo()
	svc, err := NewService(repo)
	require.NoError(t, err)

	storeID := uuid.New()
	variantID := uuid.New()
	ctx := context.Background()

	_, err = svc.Apply(ctx, nil, storeID, nil, []StockDelta{
		{VariantID: &variantID, Quantity: -3, Reason: enums.AdjustmentReasonSale},
	})
	require.NoError(t, err)
	_, err = svc.Apply(ctx, nil, storeID, nil, []StockDelta{
		{VariantID: &variantID, Quantity: 3, Reason: enums.AdjustmentReasonShipmentCancelled},
	})
	require.NoError(t, err)

	stock, err := svc.GetStock(ctx, storeID, variantID)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)
	assert.Len(t, repo.adjustments, 2)
}
