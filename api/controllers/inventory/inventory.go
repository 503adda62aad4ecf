package inventory

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/irfan-ansarii/goldys-inventory-management/api/middleware"
	"github.com/irfan-ansarii/goldys-inventory-management/api/responses"
	"github.com/irfan-ansarii/goldys-inventory-management/api/validators"
	internalinventory "github.com/irfan-ansarii/goldys-inventory-management/internal/inventory"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/pagination"
)

// ListAdjustments returns a cursor page of the store's stock movements,
// optionally scoped to one variant.
func ListAdjustments(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
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

		var variantID *uuid.UUID
		if raw := strings.TrimSpace(r.URL.Query().Get("variantId")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
				return
			}
			variantID = &id
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, next, err := svc.ListAdjustments(r.Context(), storeID, variantID, params)
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

// GetStock returns the on-hand quantity for one variant.
func GetStock(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw := strings.TrimSpace(r.URL.Query().Get("variantId"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "variantId is required"))
			return
		}
		variantID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant id"))
			return
		}

		stock, err := svc.GetStock(r.Context(), storeID, variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"stock": stock})
	}
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
