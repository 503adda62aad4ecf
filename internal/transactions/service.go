package transactions

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
)

// RecordTransactionInput is one money movement to append to the ledger.
type RecordTransactionInput struct {
	Name      string
	Kind      enums.TransactionKind
	Amount    decimal.Decimal
	PaymentID *string
}

// PaymentState is the derived status plus remaining due for an aggregate.
type PaymentState struct {
	Status enums.PaymentStatus
	Due    decimal.Decimal
}

// Service appends ledger rows and derives payment status from them.
type Service interface {
	RecordForOrder(ctx context.Context, tx *gorm.DB, storeID, orderID uuid.UUID, actorID *uuid.UUID, inputs []RecordTransactionInput) error
	DeriveOrderStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, total decimal.Decimal) (PaymentState, error)
	DerivePurchaseStatus(ctx context.Context, tx *gorm.DB, purchaseID uuid.UUID, total decimal.Decimal) (PaymentState, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error)
}

type service struct {
	repo Repository
}

// NewService wires a transaction service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) RecordForOrder(ctx context.Context, tx *gorm.DB, storeID, orderID uuid.UUID, actorID *uuid.UUID, inputs []RecordTransactionInput) error {
	if storeID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	rows := make([]models.Transaction, 0, len(inputs))
	for _, input := range inputs {
		if !input.Amount.IsPositive() {
			continue
		}
		if !input.Kind.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction kind %q", input.Kind))
		}
		oid := orderID
		rows = append(rows, models.Transaction{
			StoreID:   storeID,
			OrderID:   &oid,
			Name:      input.Name,
			Kind:      input.Kind,
			Amount:    input.Amount,
			PaymentID: input.PaymentID,
			Status:    enums.TransactionStatusSuccess,
			CreatedBy: actorID,
		})
	}
	if len(rows) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "no transactions with a positive amount")
	}

	if err := s.repo.WithTx(tx).Create(ctx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record transactions")
	}
	return nil
}

func (s *service) DeriveOrderStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, total decimal.Decimal) (PaymentState, error) {
	if orderID == uuid.Nil {
		return PaymentState{}, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	txns, err := s.repo.WithTx(tx).ListByOrder(ctx, orderID)
	if err != nil {
		return PaymentState{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transactions")
	}
	return deriveStatus(txns, total, enums.TransactionKindSale), nil
}

func (s *service) DerivePurchaseStatus(ctx context.Context, tx *gorm.DB, purchaseID uuid.UUID, total decimal.Decimal) (PaymentState, error) {
	if purchaseID == uuid.Nil {
		return PaymentState{}, pkgerrors.New(pkgerrors.CodeValidation, "purchase id required")
	}
	txns, err := s.repo.WithTx(tx).ListByPurchase(ctx, purchaseID)
	if err != nil {
		return PaymentState{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transactions")
	}
	return deriveStatus(txns, total, enums.TransactionKindPaid), nil
}

func (s *service) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Transaction, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	txns, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}
	return txns, nil
}

// deriveStatus walks the ledger and evaluates the status table in a fixed
// order. The branch order is load-bearing: a fully refunded zero-total
// aggregate reports refunded even when void rows exist.
func deriveStatus(txns []models.Transaction, total decimal.Decimal, paidKind enums.TransactionKind) PaymentState {
	totalPaid := decimal.Zero
	totalRefund := decimal.Zero
	totalVoid := decimal.Zero

	for _, txn := range txns {
		switch txn.Kind {
		case paidKind:
			totalPaid = totalPaid.Add(txn.Amount)
		case enums.TransactionKindRefund:
			totalRefund = totalRefund.Add(txn.Amount)
		case enums.TransactionKindVoid:
			totalVoid = totalVoid.Add(txn.Amount)
		}
	}

	due := total.Sub(totalPaid.Sub(totalRefund))

	status := enums.PaymentStatusUnpaid
	switch {
	case due.IsZero() && total.IsZero():
		status = enums.PaymentStatusRefunded
	case due.IsZero():
		status = enums.PaymentStatusPaid
	case due.IsPositive() && due.LessThan(total):
		status = enums.PaymentStatusPartiallyPaid
	case due.Abs().GreaterThan(total):
		status = enums.PaymentStatusOverpaid
	case total.IsZero() && totalVoid.IsPositive():
		status = enums.PaymentStatusVoided
	}

	return PaymentState{Status: status, Due: due}
}
