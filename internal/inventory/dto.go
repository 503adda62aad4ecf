package inventory

import "github.com/google/uuid"

// StockDelta is one signed stock movement for a variant. Positive quantities
// add stock, negative quantities consume it.
type StockDelta struct {
	ProductID *uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
	Reason    string
	Notes     *string
}
