package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/irfan-ansarii/goldys-inventory-management/internal/carrier"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/channelsync"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/customers"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/dispatch"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/inventory"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/orders"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/shipments"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/stores"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/transactions"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/variants"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/channel"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/config"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/metrics"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/pubsub"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "worker"

	logg = logger.New(logger.Options{
		ServiceName: "worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	ordersSub := pubsubClient.OrdersSubscription()
	if ordersSub == nil {
		requireResource(ctx, logg, "orders subscription", errors.New("subscription not configured"))
	}
	trackingSub := pubsubClient.TrackingSubscription()
	if trackingSub == nil {
		requireResource(ctx, logg, "tracking subscription", errors.New("subscription not configured"))
	}

	channelClient, err := channel.NewClient(cfg.Channel, logg)
	requireResource(ctx, logg, "channel client", err)

	gormDB := dbClient.DB()

	storeSvc, err := stores.NewService(stores.NewRepository(gormDB))
	requireResource(ctx, logg, "stores service", err)

	inventorySvc, err := inventory.NewService(inventory.NewRepository(gormDB))
	requireResource(ctx, logg, "inventory service", err)

	transactionRepo := transactions.NewRepository(gormDB)
	transactionSvc, err := transactions.NewService(transactionRepo)
	requireResource(ctx, logg, "transactions service", err)

	customerSvc, err := customers.NewService(customers.NewRepository(gormDB))
	requireResource(ctx, logg, "customers service", err)

	orderRepo := orders.NewRepository(gormDB)
	shipmentRepo := shipments.NewRepository(gormDB)

	channelSync, err := channelsync.NewService(orderRepo, transactionRepo, transactionSvc, customerSvc, variants.NewRepository(gormDB), channelClient, dbClient, logg)
	requireResource(ctx, logg, "channel sync service", err)

	carrierSvc, err := carrier.NewService(shipmentRepo, orderRepo, dbClient, inventorySvc, cfg.Carrier, logg)
	requireResource(ctx, logg, "carrier service", err)

	pool, err := dispatch.NewPool(cfg.Webhook.Workers, cfg.Webhook.QueueDepth, logg)
	requireResource(ctx, logg, "dispatch pool", err)

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	service, err := NewService(ordersSub, trackingSub, pool, storeSvc, channelSync, carrierSvc, webhookMetrics, logg)
	requireResource(ctx, logg, "worker service", err)

	metricsServer := &http.Server{
		Addr:    ":" + cfg.Webhook.MetricsPort,
		Handler: promhttp.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "metrics server stopped unexpectedly", err)
		}
	}()

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})
	logg.Info(runCtx, "worker ready")

	err = service.Run(runCtx)

	pool.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if shutdownErr := metricsServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logg.Error(runCtx, "metrics server shutdown failed", shutdownErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "worker failed", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
