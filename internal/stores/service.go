package stores

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
)

// Service resolves stores for request scoping and webhook routing.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Store, error)
	// ResolveDomain returns the store owning the channel domain, or nil when
	// no store is registered for it.
	ResolveDomain(ctx context.Context, domain string) (*models.Store, error)
}

type service struct {
	repo Repository
}

// NewService wires a store service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stores repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return store, nil
}

func (s *service) ResolveDomain(ctx context.Context, domain string) (*models.Store, error) {
	normalized := strings.ToLower(strings.TrimSpace(domain))
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "domain required")
	}
	store, err := s.repo.FindByDomain(ctx, normalized)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve store domain")
	}
	return store, nil
}
