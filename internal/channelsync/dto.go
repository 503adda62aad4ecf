package channelsync

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/irfan-ansarii/goldys-inventory-management/pkg/types"
)

// OrderPayload mirrors the channel's order webhook body. Money fields arrive
// as strings and decode through decimal.
type OrderPayload struct {
	ID              int64                 `json:"id"`
	Name            string                `json:"name"`
	Email           string                `json:"email"`
	Phone           *string               `json:"phone"`
	Note            *string               `json:"note"`
	ProcessedAt     *time.Time            `json:"processed_at"`
	CancelledAt     *time.Time            `json:"cancelled_at"`
	CancelReason    *string               `json:"cancel_reason"`
	TaxesIncluded   bool                  `json:"taxes_included"`
	Subtotal        decimal.Decimal       `json:"total_line_items_price"`
	Discount        decimal.Decimal       `json:"current_total_discounts"`
	Tax             decimal.Decimal       `json:"current_total_tax"`
	Total           decimal.Decimal       `json:"current_total_price"`
	Outstanding     decimal.Decimal       `json:"total_outstanding"`
	Customer        PayloadCustomer       `json:"customer"`
	BillingAddress  types.ChannelAddress  `json:"billing_address"`
	ShippingAddress *types.ChannelAddress `json:"shipping_address"`
	ShippingLines   []PayloadShippingLine `json:"shipping_lines"`
	TaxLines        []PayloadTaxLine      `json:"tax_lines"`
	LineItems       []PayloadLineItem     `json:"line_items"`
}

// PayloadCustomer is the customer block on a channel order.
type PayloadCustomer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// PayloadShippingLine is one shipping charge on a channel order.
type PayloadShippingLine struct {
	Title           string          `json:"title"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
}

// PayloadTaxLine is one tax component on a channel order or line item.
type PayloadTaxLine struct {
	Title string          `json:"title"`
	Price decimal.Decimal `json:"price"`
}

// PayloadLineItem is one product position on a channel order.
type PayloadLineItem struct {
	ID                  int64            `json:"id"`
	ProductID           *int64           `json:"product_id"`
	ProductExists       bool             `json:"product_exists"`
	Title               string           `json:"title"`
	VariantTitle        *string          `json:"variant_title"`
	SKU                 *string          `json:"sku"`
	Price               decimal.Decimal  `json:"price"`
	Quantity            int              `json:"quantity"`
	CurrentQuantity     int              `json:"current_quantity"`
	FulfillableQuantity int              `json:"fulfillable_quantity"`
	RequiresShipping    bool             `json:"requires_shipping"`
	TotalDiscount       decimal.Decimal  `json:"total_discount"`
	TaxLines            []PayloadTaxLine `json:"tax_lines"`
}
