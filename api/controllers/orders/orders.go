package orders

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/irfan-ansarii/goldys-inventory-management/api/middleware"
	"github.com/irfan-ansarii/goldys-inventory-management/api/responses"
	"github.com/irfan-ansarii/goldys-inventory-management/api/validators"
	internalorders "github.com/irfan-ansarii/goldys-inventory-management/internal/orders"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/transactions"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/pagination"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/types"
)

type lineItemRequest struct {
	LineItemID       *uuid.UUID      `json:"lineItemId"`
	ProductID        *uuid.UUID      `json:"productId"`
	VariantID        *uuid.UUID      `json:"variantId"`
	Title            string          `json:"title" validate:"required"`
	VariantTitle     *string         `json:"variantTitle"`
	SKU              *string         `json:"sku"`
	HSN              *string         `json:"hsn"`
	Barcode          *string         `json:"barcode"`
	Image            *string         `json:"image"`
	Price            decimal.Decimal `json:"price"`
	SalePrice        decimal.Decimal `json:"salePrice"`
	CurrentQuantity  int             `json:"currentQuantity" validate:"min=0"`
	RequiresShipping bool            `json:"requiresShipping"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	Discount         decimal.Decimal `json:"discount"`
	Tax              decimal.Decimal `json:"tax"`
	Total            decimal.Decimal `json:"total"`
}

type orderRequest struct {
	Name       string            `json:"name"`
	CustomerID *uuid.UUID        `json:"customerId"`
	Billing    types.Address     `json:"billing"`
	Shipping   types.Address     `json:"shipping"`
	Subtotal   decimal.Decimal   `json:"subtotal"`
	Discount   decimal.Decimal   `json:"discount"`
	Tax        decimal.Decimal   `json:"tax"`
	Charges    *types.Charge     `json:"charges"`
	Total      decimal.Decimal   `json:"total"`
	TaxKind    types.TaxKind     `json:"taxKind"`
	Notes      *string           `json:"notes"`
	Tags       []string          `json:"tags"`
	LineItems  []lineItemRequest `json:"lineItems" validate:"required,min=1,dive"`
	CreatedAt  *time.Time        `json:"createdAt"`
}

type cancelRequest struct {
	Reason *string `json:"reason"`
}

type transactionRequest struct {
	Name      string          `json:"name" validate:"required"`
	Kind      string          `json:"kind" validate:"required,oneof=sale refund void"`
	Amount    decimal.Decimal `json:"amount"`
	PaymentID *string         `json:"paymentId"`
}

type transactionsRequest struct {
	Transactions []transactionRequest `json:"transactions" validate:"required,min=1,dive"`
}

// List returns a cursor page of the store's orders, optionally filtered by
// a name search.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		search := strings.TrimSpace(r.URL.Query().Get("q"))

		list, next, err := svc.List(r.Context(), storeID, search, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var meta any
		if next != nil {
			meta = map[string]string{"next_cursor": *next}
		}
		responses.WriteSuccessMeta(w, list, meta)
	}
}

// Detail returns the order aggregate with lines, shipments, and what is
// still waiting to ship.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.Get(r.Context(), storeID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req orderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateOrderInput{
			StoreID:    storeID,
			Name:       strings.TrimSpace(req.Name),
			CustomerID: req.CustomerID,
			Billing:    req.Billing,
			Shipping:   req.Shipping,
			Subtotal:   req.Subtotal,
			Discount:   req.Discount,
			Tax:        req.Tax,
			Charges:    req.Charges,
			Total:      req.Total,
			TaxKind:    req.TaxKind,
			Notes:      req.Notes,
			Tags:       req.Tags,
			LineItems:  toLineInputs(req.LineItems),
			CreatedAt:  req.CreatedAt,
			ActorID:    actorFromContext(r),
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func Update(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req orderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.UpdateOrderInput{
			OrderID:    orderID,
			StoreID:    storeID,
			CustomerID: req.CustomerID,
			Billing:    req.Billing,
			Shipping:   req.Shipping,
			Subtotal:   req.Subtotal,
			Discount:   req.Discount,
			Tax:        req.Tax,
			Charges:    req.Charges,
			Total:      req.Total,
			TaxKind:    req.TaxKind,
			Notes:      req.Notes,
			Tags:       req.Tags,
			LineItems:  toLineInputs(req.LineItems),
			ActorID:    actorFromContext(r),
		}

		order, err := svc.Update(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func Cancel(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req cancelRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Cancel(r.Context(), internalorders.CancelOrderInput{
			OrderID: orderID,
			StoreID: storeID,
			Reason:  req.Reason,
			ActorID: actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

func Delete(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Delete(r.Context(), internalorders.DeleteOrderInput{
			OrderID: orderID,
			StoreID: storeID,
			Role:    enums.MemberRole(middleware.RoleFromContext(r.Context())),
			ActorID: actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// RecordTransactions appends payment rows and returns the order with its
// re-derived payment status.
func RecordTransactions(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req transactionsRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		inputs := make([]transactions.RecordTransactionInput, 0, len(req.Transactions))
		for _, txn := range req.Transactions {
			inputs = append(inputs, transactions.RecordTransactionInput{
				Name:      txn.Name,
				Kind:      enums.TransactionKind(txn.Kind),
				Amount:    txn.Amount,
				PaymentID: txn.PaymentID,
			})
		}

		order, err := svc.RecordTransactions(r.Context(), storeID, orderID, actorFromContext(r), inputs)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

func ListTransactions(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := pathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListTransactions(r.Context(), storeID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func toLineInputs(lines []lineItemRequest) []internalorders.LineItemInput {
	out := make([]internalorders.LineItemInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, internalorders.LineItemInput{
			LineItemID:       line.LineItemID,
			ProductID:        line.ProductID,
			VariantID:        line.VariantID,
			Title:            line.Title,
			VariantTitle:     line.VariantTitle,
			SKU:              line.SKU,
			HSN:              line.HSN,
			Barcode:          line.Barcode,
			Image:            line.Image,
			Price:            line.Price,
			SalePrice:        line.SalePrice,
			CurrentQuantity:  line.CurrentQuantity,
			RequiresShipping: line.RequiresShipping,
			Subtotal:         line.Subtotal,
			Discount:         line.Discount,
			Tax:              line.Tax,
			Total:            line.Total,
		})
	}
	return out
}

func storeFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.StoreIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "store scope missing")
	}
	storeID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "invalid store scope")
	}
	return storeID, nil
}

func actorFromContext(r *http.Request) *uuid.UUID {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return nil
	}
	actorID, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &actorID
}

func pathID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, key+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}
