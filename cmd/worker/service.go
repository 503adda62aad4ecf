package main

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/irfan-ansarii/goldys-inventory-management/internal/carrier"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/channelsync"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/dispatch"
	"github.com/irfan-ansarii/goldys-inventory-management/internal/stores"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/db/models"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/enums"
	pkgerrors "github.com/irfan-ansarii/goldys-inventory-management/pkg/errors"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/logger"
	"github.com/irfan-ansarii/goldys-inventory-management/pkg/metrics"
)

// Service drains the order and tracking subscriptions, funneling every event
// through a keyed pool so work for one order never runs concurrently.
type Service struct {
	ordersSub   *gcppubsub.Subscriber
	trackingSub *gcppubsub.Subscriber
	pool        *dispatch.Pool
	stores      stores.Service
	channelSync channelsync.Service
	carrier     carrier.Service
	metrics     *metrics.WebhookMetrics
	logg        *logger.Logger
}

// NewService wires the worker service.
func NewService(
	ordersSub, trackingSub *gcppubsub.Subscriber,
	pool *dispatch.Pool,
	storeSvc stores.Service,
	channelSync channelsync.Service,
	carrierSvc carrier.Service,
	m *metrics.WebhookMetrics,
	logg *logger.Logger,
) (*Service, error) {
	if ordersSub == nil {
		return nil, errors.New("orders subscription is required")
	}
	if trackingSub == nil {
		return nil, errors.New("tracking subscription is required")
	}
	if pool == nil {
		return nil, errors.New("dispatch pool is required")
	}
	if storeSvc == nil {
		return nil, errors.New("stores service is required")
	}
	if channelSync == nil {
		return nil, errors.New("channel sync service is required")
	}
	if carrierSvc == nil {
		return nil, errors.New("carrier service is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	return &Service{
		ordersSub:   ordersSub,
		trackingSub: trackingSub,
		pool:        pool,
		stores:      storeSvc,
		channelSync: channelSync,
		carrier:     carrierSvc,
		metrics:     m,
		logg:        logg,
	}, nil
}

// Run consumes both subscriptions until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	group, runCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return s.ordersSub.Receive(runCtx, func(innerCtx context.Context, msg *gcppubsub.Message) {
			s.handle(innerCtx, msg, s.processOrderEvent)
		})
	})
	group.Go(func() error {
		return s.trackingSub.Receive(runCtx, func(innerCtx context.Context, msg *gcppubsub.Message) {
			s.handle(innerCtx, msg, s.processTrackingEvent)
		})
	})
	return group.Wait()
}

type processFunc func(ctx context.Context, msg *gcppubsub.Message) error

// handle serializes the message through the keyed pool and blocks until the
// work ran, so the ack reflects the real outcome.
func (s *Service) handle(ctx context.Context, msg *gcppubsub.Message, process processFunc) {
	done := make(chan error, 1)
	if err := s.pool.Submit(ctx, dispatchKey(msg), func(taskCtx context.Context) {
		done <- process(taskCtx, msg)
	}); err != nil {
		msg.Nack()
		return
	}

	select {
	case err := <-done:
		if err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	case <-ctx.Done():
		msg.Nack()
	}
}

func (s *Service) processOrderEvent(ctx context.Context, msg *gcppubsub.Message) error {
	start := time.Now()
	rawTopic := strings.TrimSpace(msg.Attributes["topic"])

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"topic":      rawTopic,
		"domain":     msg.Attributes["domain"],
	})

	topic, err := enums.ParseWebhookTopic(rawTopic)
	if err != nil {
		s.logg.Warn(logCtx, "order event with unknown topic, dropping")
		s.observe(rawTopic, "invalid", start)
		return nil
	}

	store, err := s.loadStore(logCtx, msg.Attributes["store_id"])
	if err != nil {
		s.observe(rawTopic, "error", start)
		return err
	}
	if store == nil {
		s.logg.Warn(logCtx, "order event for unknown store, dropping")
		s.observe(rawTopic, "invalid", start)
		return nil
	}

	if err := s.channelSync.HandleOrderEvent(logCtx, store, topic, msg.Data); err != nil {
		s.logg.Error(logCtx, "order event failed", err)
		s.observe(rawTopic, "error", start)
		return err
	}

	s.logg.Info(logCtx, "order event handled")
	s.observe(rawTopic, "processed", start)
	return nil
}

func (s *Service) processTrackingEvent(ctx context.Context, msg *gcppubsub.Message) error {
	start := time.Now()

	var event carrier.TrackingEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "message_id", msg.ID), "invalid tracking payload, dropping")
		s.observe("tracking", "invalid", start)
		return nil
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"awb":        event.AWB,
		"order_name": event.OrderName,
	})

	if err := s.carrier.HandleTrackingEvent(logCtx, event); err != nil {
		s.logg.Error(logCtx, "tracking event failed", err)
		s.observe("tracking", "error", start)
		return err
	}

	s.logg.Info(logCtx, "tracking event handled")
	s.observe("tracking", "processed", start)
	return nil
}

// loadStore treats a missing or malformed store reference as a drop, not a
// retry: redelivering the message will never fix it.
func (s *Service) loadStore(ctx context.Context, raw string) (*models.Store, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, nil
	}
	store, err := s.stores.Get(ctx, id)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, nil
		}
		return nil, err
	}
	return store, nil
}

func (s *Service) observe(topic, result string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.IncEvent(topic, result)
	s.metrics.ObserveDuration(topic, time.Since(start))
}

// dispatchKey picks the serialization key: the order name when the payload
// carries one, otherwise the message id so the event still gets a worker.
func dispatchKey(msg *gcppubsub.Message) string {
	var probe struct {
		Name      string `json:"name"`
		OrderName string `json:"OrderName"`
	}
	if err := json.Unmarshal(msg.Data, &probe); err == nil {
		if probe.Name != "" {
			return probe.Name
		}
		if probe.OrderName != "" {
			return probe.OrderName
		}
	}
	return msg.ID
}
