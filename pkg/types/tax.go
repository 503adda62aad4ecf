package types

import (
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	"github.com/shopspring/decimal"
)

// TaxLine is a single named tax component on an order or line item.
type TaxLine struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// TaxKind describes how tax applies to a sale.
type TaxKind struct {
	Type     enums.TaxType  `json:"type"`
	SaleType enums.SaleType `json:"saleType"`
}

// SplitTaxLines derives the GST line breakdown for a tax amount. Inter-state
// sales carry a single IGST line; intra-state sales split into equal
// CGST/SGST halves.
func SplitTaxLines(tax decimal.Decimal, saleType enums.SaleType) []TaxLine {
	if saleType == enums.SaleTypeInterState {
		return []TaxLine{{Name: "IGST", Amount: tax.Round(2)}}
	}
	half := tax.Div(decimal.NewFromInt(2)).Round(2)
	return []TaxLine{
		{Name: "CGST", Amount: half},
		{Name: "SGST", Amount: half},
	}
}
