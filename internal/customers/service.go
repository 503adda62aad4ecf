package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/types"
)

// UpsertInput carries the customer fields available on a channel order.
type UpsertInput struct {
	Name    string
	Email   string
	Phone   *string
	Address *types.JSONMap
}

// Service resolves customers for incoming channel orders.
type Service interface {
	// UpsertByEmail returns the existing store customer for the email or
	// creates one inside the caller's transaction.
	UpsertByEmail(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, input UpsertInput) (*models.Customer, error)
}

type service struct {
	repo Repository
}

// NewService wires a customer service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("customers repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) UpsertByEmail(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, input UpsertInput) (*models.Customer, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}

	repo := s.repo.WithTx(tx)
	existing, err := repo.FindByEmail(ctx, storeID, email)
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup customer")
	}

	customer := &models.Customer{
		StoreID: storeID,
		Name:    strings.TrimSpace(input.Name),
		Email:   email,
		Phone:   input.Phone,
		Address: input.Address,
	}
	if customer.Name == "" {
		customer.Name = email
	}
	if err := repo.Create(ctx, customer); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create customer")
	}
	return customer, nil
}
