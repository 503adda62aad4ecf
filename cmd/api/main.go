package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/irfan-ansarii/goldys-inventory-management/api/routes"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/inventory"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/orders"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/shipments"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/stores"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/transactions"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/channel"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/config"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/metrics"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/migrate"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/pubsub"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		requireResource(ctx, logg, "dev migrations", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(ctx, "error closing pubsub", err)
		}
	}()

	channelClient, err := channel.NewClient(cfg.Channel, logg)
	requireResource(ctx, logg, "channel client", err)

	gormDB := dbClient.DB()

	storeSvc, err := stores.NewService(stores.NewRepository(gormDB))
	requireResource(ctx, logg, "stores service", err)

	inventorySvc, err := inventory.NewService(inventory.NewRepository(gormDB))
	requireResource(ctx, logg, "inventory service", err)

	transactionSvc, err := transactions.NewService(transactions.NewRepository(gormDB))
	requireResource(ctx, logg, "transactions service", err)

	orderRepo := orders.NewRepository(gormDB)
	orderSvc, err := orders.NewService(orderRepo, dbClient, inventorySvc, transactionSvc, storeSvc)
	requireResource(ctx, logg, "orders service", err)

	shipmentSvc, err := shipments.NewService(shipments.NewRepository(gormDB), orderRepo, dbClient, inventorySvc, storeSvc, channelClient, logg)
	requireResource(ctx, logg, "shipments service", err)

	webhookMetrics := metrics.NewWebhookMetrics(prometheus.DefaultRegisterer)

	handler := routes.NewRouter(routes.Deps{
		Config:    cfg,
		Logger:    logg,
		DB:        dbClient,
		Redis:     redisClient,
		PubSub:    pubsubClient,
		Stores:    storeSvc,
		Orders:    orderSvc,
		Shipments: shipmentSvc,
		Inventory: inventorySvc,
		Metrics:   webhookMetrics,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runCtx = logg.WithFields(runCtx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(runCtx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(runCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-runCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(runCtx, "api server shutdown failed", err)
		}
	}

	logg.Info(runCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
