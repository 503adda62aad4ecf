package shipments

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/irfan-ansarii/goldys-inventory-management/api/middleware"
	"github.com/irfan-ansarii/goldys-inventory-management/api/responses"
	"github.com/irfan-ansarii/goldys-inventory-management/api/validators"
	internalshipments "github.com/irfan-ansarii/goldys-inventory-management/internal/shipments"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
)

type shipmentLineRequest struct {
	LineItemID uuid.UUID `json:"lineItemId" validate:"required"`
	Quantity   int       `json:"quantity" validate:"gt=0"`
}

type createShipmentRequest struct {
	Carrier     *string               `json:"carrier"`
	AWB         *string               `json:"awb"`
	TrackingURL *string               `json:"trackingUrl"`
	Lines       []shipmentLineRequest `json:"lineItems" validate:"required,min=1,dive"`
}

type updateShipmentRequest struct {
	Action      string  `json:"action" validate:"required"`
	Carrier     *string `json:"carrier"`
	AWB         *string `json:"awb"`
	TrackingURL *string `json:"trackingUrl"`
}

// CreateForward ships order lines that still have shippable quantity.
func CreateForward(svc internalshipments.Service, logg *logger.Logger) http.HandlerFunc {
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

		var req createShipmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.CreateForward(r.Context(), internalshipments.CreateForwardInput{
			OrderID:     orderID,
			StoreID:     storeID,
			Carrier:     req.Carrier,
			AWB:         req.AWB,
			TrackingURL: req.TrackingURL,
			Lines:       toLineInputs(req.Lines),
			ActorID:     actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, shipment)
	}
}

// CreateReturn opens a return against a delivered forward shipment.
func CreateReturn(svc internalshipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipmentID, err := pathID(r, "shipmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createShipmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.CreateReturn(r.Context(), internalshipments.CreateReturnInput{
			ShipmentID:  shipmentID,
			StoreID:     storeID,
			Carrier:     req.Carrier,
			AWB:         req.AWB,
			TrackingURL: req.TrackingURL,
			Lines:       toLineInputs(req.Lines),
			ActorID:     actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, shipment)
	}
}

// Update applies one action from the shipment's live action set.
func Update(svc internalshipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipmentID, err := pathID(r, "shipmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateShipmentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		action, parseErr := enums.ParseShipmentAction(req.Action)
		if parseErr != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown shipment action"))
			return
		}

		shipment, err := svc.Update(r.Context(), internalshipments.UpdateShipmentInput{
			ShipmentID:  shipmentID,
			StoreID:     storeID,
			Action:      action,
			Carrier:     req.Carrier,
			AWB:         req.AWB,
			TrackingURL: req.TrackingURL,
			ActorID:     actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

// Cancel voids a shipment that still allows cancellation.
func Cancel(svc internalshipments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := storeFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipmentID, err := pathID(r, "shipmentId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipment, err := svc.Cancel(r.Context(), internalshipments.CancelShipmentInput{
			ShipmentID: shipmentID,
			StoreID:    storeID,
			ActorID:    actorFromContext(r),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, shipment)
	}
}

func toLineInputs(lines []shipmentLineRequest) []internalshipments.ShipmentLineInput {
	out := make([]internalshipments.ShipmentLineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, internalshipments.ShipmentLineInput{
			LineItemID: line.LineItemID,
			Quantity:   line.Quantity,
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
