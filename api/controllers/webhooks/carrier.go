package webhooks

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/irfan-ansarii/goldys-inventory-management/api/responses"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/carrier"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/stores"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/metrics"
)

const carrierMetricTopic = "tracking"

type carrierEventRequest struct {
	AWB           string `json:"awb"`
	CurrentStatus string `json:"current_status"`
	OrderID       string `json:"order_id"`
	CourierName   string `json:"courier_name"`
}

// CarrierDeps bundles what the carrier ingress needs.
type CarrierDeps struct {
	Stores    stores.Service
	Publisher Publisher
	Topic     string
	Metrics   *metrics.WebhookMetrics
	Logger    *logger.Logger
}

// Carrier accepts tracking pushes from the shipping carrier and queues them
// for the worker. The carrier does not send the shop domain in the body, so
// the webhook URL is registered per store with the domain attached.
func Carrier(deps CarrierDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		domain := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderShopDomain)))
		if domain == "" {
			domain = strings.ToLower(strings.TrimSpace(r.URL.Query().Get("domain")))
		}
		if domain == "" {
			observe(deps.Metrics, carrierMetricTopic, "rejected", start)
			responses.WriteError(ctx, deps.Logger, w, pkgerrors.New(pkgerrors.CodeValidation, "shop domain is required"))
			return
		}

		if deps.Logger != nil {
			ctx = deps.Logger.WithField(ctx, "domain", domain)
		}

		store, err := deps.Stores.ResolveDomain(ctx, domain)
		if err != nil {
			observe(deps.Metrics, carrierMetricTopic, "error", start)
			responses.WriteError(ctx, deps.Logger, w, err)
			return
		}
		if store == nil {
			observe(deps.Metrics, carrierMetricTopic, "unknown_domain", start)
			if deps.Logger != nil {
				deps.Logger.Warn(ctx, "webhook.carrier.unknown_domain")
			}
			responses.WriteSuccess(w, map[string]string{"status": "ignored"})
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			observe(deps.Metrics, carrierMetricTopic, "rejected", start)
			responses.WriteError(ctx, deps.Logger, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		// The carrier sends a wide payload; only the tracking core matters.
		var req carrierEventRequest
		if err := json.Unmarshal(body, &req); err != nil {
			observe(deps.Metrics, carrierMetricTopic, "rejected", start)
			responses.WriteError(ctx, deps.Logger, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook body"))
			return
		}
		if strings.TrimSpace(req.AWB) == "" {
			observe(deps.Metrics, carrierMetricTopic, "rejected", start)
			responses.WriteError(ctx, deps.Logger, w, pkgerrors.New(pkgerrors.CodeValidation, "awb is required"))
			return
		}

		event := carrier.TrackingEvent{
			StoreID:   store.ID,
			OrderName: strings.TrimSpace(req.OrderID),
			AWB:       strings.TrimSpace(req.AWB),
			Status:    req.CurrentStatus,
			Carrier:   req.CourierName,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			observe(deps.Metrics, carrierMetricTopic, "error", start)
			responses.WriteError(ctx, deps.Logger, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode tracking event"))
			return
		}

		attrs := map[string]string{
			"topic":    carrierMetricTopic,
			"store_id": store.ID.String(),
			"domain":   domain,
			"awb":      event.AWB,
		}
		if _, err := deps.Publisher.Publish(ctx, deps.Topic, payload, attrs); err != nil {
			observe(deps.Metrics, carrierMetricTopic, "error", start)
			responses.WriteError(ctx, deps.Logger, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue tracking event"))
			return
		}

		observe(deps.Metrics, carrierMetricTopic, "accepted", start)
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}
