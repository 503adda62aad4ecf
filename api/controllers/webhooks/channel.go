package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/irfan-ansarii/goldys-inventory-management/api/responses"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/stores"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/metrics"
)

// Channel webhook headers, as sent by the e-commerce platform.
const (
	HeaderTopic      = "X-Shopify-Topic"
	HeaderShopDomain = "X-Shopify-Shop-Domain"
	HeaderEventID    = "X-Shopify-Webhook-Id"
)

const maxWebhookBody = 1 << 20

// DedupStore remembers webhook event ids long enough to drop redeliveries.
type DedupStore interface {
	MarkEventSeen(ctx context.Context, scope, eventID string, ttl time.Duration) (bool, error)
}

// Publisher hands accepted events to the queue for the worker.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

// ChannelDeps bundles what the channel ingress needs.
type ChannelDeps struct {
	Stores    stores.Service
	Dedup     DedupStore
	Publisher Publisher
	Topic     string
	DedupTTL  time.Duration
	Metrics   *metrics.WebhookMetrics
	Logger    *logger.Logger
}

// Channel accepts order webhooks from the e-commerce platform and queues
// them for the worker. The channel retries aggressively, so anything that is
// not our fault answers 200: unknown domains and duplicate deliveries are
// acknowledged and dropped.
func Channel(deps ChannelDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		rawTopic := strings.TrimSpace(r.Header.Get(HeaderTopic))
		domain := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderShopDomain)))
		eventID := strings.TrimSpace(r.Header.Get(HeaderEventID))

		if deps.Logger != nil {
			ctx = deps.Logger.WithFields(ctx, map[string]any{
				"topic":    rawTopic,
				"domain":   domain,
				"event_id": eventID,
			})
		}

		topic, err := enums.ParseWebhookTopic(rawTopic)
		if err != nil || topic == enums.WebhookTopicTracking {
			observe(deps.Metrics, rawTopic, "unsupported", start)
			if deps.Logger != nil {
				deps.Logger.Warn(ctx, "webhook.channel.unsupported_topic")
			}
			responses.WriteSuccess(w, map[string]string{"status": "ignored"})
			return
		}

		if domain == "" {
			observe(deps.Metrics, rawTopic, "rejected", start)
			responses.WriteError(ctx, deps.Logger, w, pkgerrors.New(pkgerrors.CodeValidation, "shop domain header is required"))
			return
		}

		store, err := deps.Stores.ResolveDomain(ctx, domain)
		if err != nil {
			observe(deps.Metrics, rawTopic, "error", start)
			responses.WriteError(ctx, deps.Logger, w, err)
			return
		}
		if store == nil {
			observe(deps.Metrics, rawTopic, "unknown_domain", start)
			if deps.Logger != nil {
				deps.Logger.Warn(ctx, "webhook.channel.unknown_domain")
			}
			responses.WriteSuccess(w, map[string]string{"status": "ignored"})
			return
		}

		if eventID != "" && deps.Dedup != nil {
			first, err := deps.Dedup.MarkEventSeen(ctx, "channel", eventID, deps.DedupTTL)
			if err != nil {
				observe(deps.Metrics, rawTopic, "error", start)
				responses.WriteError(ctx, deps.Logger, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook dedup"))
				return
			}
			if !first {
				observe(deps.Metrics, rawTopic, "duplicate", start)
				responses.WriteSuccess(w, map[string]string{"status": "duplicate"})
				return
			}
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			observe(deps.Metrics, rawTopic, "error", start)
			responses.WriteError(ctx, deps.Logger, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read webhook body"))
			return
		}

		attrs := map[string]string{
			"topic":    topic.String(),
			"store_id": store.ID.String(),
			"domain":   domain,
			"event_id": eventID,
		}
		if _, err := deps.Publisher.Publish(ctx, deps.Topic, body, attrs); err != nil {
			observe(deps.Metrics, rawTopic, "error", start)
			responses.WriteError(ctx, deps.Logger, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue webhook"))
			return
		}

		observe(deps.Metrics, rawTopic, "accepted", start)
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]string{"status": "queued"})
	}
}

func observe(m *metrics.WebhookMetrics, topic, result string, start time.Time) {
	if m == nil {
		return
	}
	m.IncEvent(topic, result)
	m.ObserveDuration(topic, time.Since(start))
}
