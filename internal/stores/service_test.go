package stores

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
)

type fakeRepo struct {
	byDomain map[string]*models.Store
	byID     map[uuid.UUID]*models.Store
}

func (f *fakeRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	if store, ok := f.byID[id]; ok {
		return store, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindByDomain(ctx context.Context, domain string) (*models.Store, error) {
	if store, ok := f.byDomain[domain]; ok {
		return store, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func TestResolveDomainUnknownIsNil(t *testing.T) {
	svc, err := NewService(&fakeRepo{byDomain: map[string]*models.Store{}})
	require.NoError(t, err)

	store, err := svc.ResolveDomain(context.Background(), "unknown.example.com")
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestResolveDomainNormalizesInput(t *testing.T) {
	domain := "shop.example.com"
	want := &models.Store{ID: uuid.New(), Name: "Shop"}
	svc, err := NewService(&fakeRepo{byDomain: map[string]*models.Store{domain: want}})
	require.NoError(t, err)

	store, err := svc.ResolveDomain(context.Background(), "  Shop.Example.COM ")
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, want.ID, store.ID)
}
