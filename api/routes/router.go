package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/irfan-ansarii/goldys-inventory-management/api/controllers"
	inventorycontrollers "github.com/irfan-ansarii/goldys-inventory-management/api/controllers/inventory"
	ordercontrollers "github.com/irfan-ansarii/goldys-inventory-management/api/controllers/orders"
	shipmentcontrollers "github.com/irfan-ansarii/goldys-inventory-management/api/controllers/shipments"
	"github.com/irfan-ansarii/goldys-inventory-management/api/controllers/webhooks"
	"github.com/irfan-ansarii/goldys-inventory-management/api/middleware"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/inventory"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/orders"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/shipments"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/stores"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/config"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/metrics"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/pubsub"
	pkgredis "github.com/irfan-ansarii/goldys-inventory-management/pkg/redis"
)

// Deps carries everything the HTTP surface needs.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *pkgredis.Client
	PubSub    *pubsub.Client
	Stores    stores.Service
	Orders    orders.Service
	Shipments shipments.Service
	Inventory inventory.Service
	Metrics   *metrics.WebhookMetrics
}

// NewRouter wires the full HTTP surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()

	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/webhooks", func(r chi.Router) {
			r.Use(middleware.WebhookRateLimit(deps.Redis, cfg.Webhook.RateLimit, cfg.Webhook.RateLimitWindow, webhooks.HeaderShopDomain, logg))

			r.Post("/channel", webhooks.Channel(webhooks.ChannelDeps{
				Stores:    deps.Stores,
				Dedup:     deps.Redis,
				Publisher: deps.PubSub,
				Topic:     cfg.PubSub.OrdersTopic,
				DedupTTL:  cfg.Webhook.DedupTTL,
				Metrics:   deps.Metrics,
				Logger:    logg,
			}))
			r.Post("/carrier", webhooks.Carrier(webhooks.CarrierDeps{
				Stores:    deps.Stores,
				Publisher: deps.PubSub,
				Topic:     cfg.PubSub.TrackingTopic,
				Metrics:   deps.Metrics,
				Logger:    logg,
			}))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.List(deps.Orders, logg))
				r.Post("/", ordercontrollers.Create(deps.Orders, logg))

				r.Route("/{orderId}", func(r chi.Router) {
					r.Get("/", ordercontrollers.Detail(deps.Orders, logg))
					r.Put("/", ordercontrollers.Update(deps.Orders, logg))
					r.Post("/cancel", ordercontrollers.Cancel(deps.Orders, logg))

					r.With(middleware.RequireRoles(logg, enums.MemberRoleSuper, enums.MemberRoleAdmin)).
						Delete("/", ordercontrollers.Delete(deps.Orders, logg))

					r.Get("/transactions", ordercontrollers.ListTransactions(deps.Orders, logg))
					r.Post("/transactions", ordercontrollers.RecordTransactions(deps.Orders, logg))

					r.Post("/shipments", shipmentcontrollers.CreateForward(deps.Shipments, logg))
				})
			})

			r.Route("/shipments/{shipmentId}", func(r chi.Router) {
				r.Put("/", shipmentcontrollers.Update(deps.Shipments, logg))
				r.Post("/return", shipmentcontrollers.CreateReturn(deps.Shipments, logg))
				r.Post("/cancel", shipmentcontrollers.Cancel(deps.Shipments, logg))
			})

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/adjustments", inventorycontrollers.ListAdjustments(deps.Inventory, logg))
				r.Get("/stock", inventorycontrollers.GetStock(deps.Inventory, logg))
			})
		})
	})

	return r
}
