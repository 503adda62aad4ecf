package enums

import "fmt"

// TransactionKind classifies a ledger transaction row.
// Orders use sale/refund/void; purchases record payments with kind "paid".
type TransactionKind string

const (
	TransactionKindSale   TransactionKind = "sale"
	TransactionKindRefund TransactionKind = "refund"
	TransactionKindVoid   TransactionKind = "void"
	TransactionKindPaid   TransactionKind = "paid"
)

var validTransactionKinds = []TransactionKind{
	TransactionKindSale,
	TransactionKindRefund,
	TransactionKindVoid,
	TransactionKindPaid,
}

// String implements fmt.Stringer.
func (k TransactionKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known TransactionKind.
func (k TransactionKind) IsValid() bool {
	for _, candidate := range validTransactionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseTransactionKind converts raw input into a TransactionKind.
func ParseTransactionKind(value string) (TransactionKind, error) {
	for _, candidate := range validTransactionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction kind %q", value)
}

// TransactionStatusSuccess is the status stamped on locally recorded rows.
// Channel transactions arrive with their own status and only "success" rows
// are imported.
const TransactionStatusSuccess = "success"
