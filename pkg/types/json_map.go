package types

// JSONMap holds free-form JSON payloads such as the raw channel order body.
type JSONMap map[string]any

// Charge is an extra order-level amount, aggregated from channel shipping
// lines or entered manually.
type Charge struct {
	Reason string  `json:"reason"`
	Amount float64 `json:"amount"`
}

// NameOptions configures how display names are generated for a store's
// orders: prefix + zero-padded order number + suffix.
type NameOptions struct {
	Prefix string `json:"prefix"`
	Suffix string `json:"suffix"`
}
