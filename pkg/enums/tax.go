package enums

// TaxType records whether tax was baked into line prices.
type TaxType string

const (
	TaxTypeIncluded TaxType = "included"
	TaxTypeExcluded TaxType = "excluded"
)

// IsValid reports whether the value is a known TaxType.
func (t TaxType) IsValid() bool {
	return t == TaxTypeIncluded || t == TaxTypeExcluded
}

// SaleType drives how tax lines are split. Intra-state sales split the tax
// into equal CGST/SGST halves; inter-state sales carry a single IGST line.
type SaleType string

const (
	SaleTypeState      SaleType = "state"
	SaleTypeInterState SaleType = "inter state"
)

// IsValid reports whether the value is a known SaleType.
func (s SaleType) IsValid() bool {
	return s == SaleTypeState || s == SaleTypeInterState
}
