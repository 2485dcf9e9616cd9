package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/example/telegram-order-notify/internal/common"
	"github.com/example/telegram-order-notify/internal/filter"
	"github.com/example/telegram-order-notify/internal/order"
	"github.com/example/telegram-order-notify/internal/render"
	"github.com/example/telegram-order-notify/internal/settings"
	"github.com/example/telegram-order-notify/internal/telegram"
)

var (
	eventCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_order_events_total",
		Help: "Order events seen, by type and outcome",
	}, []string{"type", "outcome"})
	dispatchCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_dispatches_total",
		Help: "Notification fan-outs, by aggregate result",
	}, []string{"result"})
	dispatchLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notifier_dispatch_duration_seconds",
		Help:    "Latency of one notification fan-out",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
)

// DelayedSend is the message published for the external scheduler when
// a notification is deferred.
type DelayedSend struct {
	OrderID   int       `json:"order_id"`
	NotBefore time.Time `json:"not_before"`
}

// Service is the dispatch core: filter, render, fan out, log. One
// explicitly constructed instance is wired into the HTTP handlers and
// the consumer; there is no ambient global.
type Service struct {
	Settings    settings.Store
	Cipher      *settings.Cipher
	Orders      order.Source
	Client      *telegram.Client
	Renderer    render.Renderer
	DelayWriter *kafka.Writer
	Logger      zerolog.Logger
}

var tracer = otel.Tracer("notifier")

// HandleOrderCreated processes a new-order event.
func (s *Service) HandleOrderCreated(ctx context.Context, orderID int) error {
	return s.handleEvent(ctx, "order_created", orderID, nil)
}

// HandleStatusChanged processes a status-change event. The snapshot
// carried on the event is used when present; otherwise the order is
// fetched again.
func (s *Service) HandleStatusChanged(ctx context.Context, orderID int, oldStatus, newStatus string, snapshot *order.Order) error {
	if snapshot != nil {
		// The snapshot is a read-only view; work on a copy.
		view := *snapshot
		view.Status = settings.NormalizeStatus(newStatus)
		snapshot = &view
	}
	return s.handleEvent(ctx, "status_changed", orderID, snapshot)
}

func (s *Service) handleEvent(ctx context.Context, eventType string, orderID int, snapshot *order.Order) error {
	ctx, span := tracer.Start(ctx, eventType)
	defer span.End()
	span.SetAttributes(attribute.Int("order.id", orderID))

	if orderID <= 0 {
		eventCounter.WithLabelValues(eventType, "invalid").Inc()
		return nil
	}

	cfg, err := s.Settings.Load(ctx)
	if err != nil {
		eventCounter.WithLabelValues(eventType, "error").Inc()
		return fmt.Errorf("load settings: %w", err)
	}

	var o order.Order
	if snapshot != nil {
		o = *snapshot
	} else {
		o, err = s.Orders.Get(ctx, orderID)
		if err != nil {
			eventCounter.WithLabelValues(eventType, "error").Inc()
			return fmt.Errorf("fetch order %d: %w", orderID, err)
		}
	}

	if !filter.Passes(o, cfg) {
		eventCounter.WithLabelValues(eventType, "filtered").Inc()
		return nil
	}

	if cfg.DelayMinutes > 0 {
		if err := s.scheduleDelayed(ctx, orderID, cfg.DelayMinutes); err != nil {
			eventCounter.WithLabelValues(eventType, "error").Inc()
			return err
		}
		eventCounter.WithLabelValues(eventType, "deferred").Inc()
		return nil
	}

	s.dispatch(ctx, o, cfg)
	eventCounter.WithLabelValues(eventType, "dispatched").Inc()
	return nil
}

// SendOrderNow renders and sends immediately, without re-evaluating
// filters; the event that scheduled the send already passed them.
func (s *Service) SendOrderNow(ctx context.Context, orderID int) error {
	ctx, span := tracer.Start(ctx, "send_order_now")
	defer span.End()
	span.SetAttributes(attribute.Int("order.id", orderID))

	cfg, err := s.Settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	o, err := s.Orders.Get(ctx, orderID)
	if err != nil {
		return fmt.Errorf("fetch order %d: %w", orderID, err)
	}
	s.dispatch(ctx, o, cfg)
	return nil
}

func (s *Service) dispatch(ctx context.Context, o order.Order, cfg settings.Settings) {
	start := time.Now()
	text := s.Renderer.Message(o, cfg)
	outcome := s.Client.SendOrderMessage(ctx, cfg, s.Cipher, text, o.ID)

	result := "ok"
	if !outcome.OK {
		result = "failed"
	}
	dispatchCounter.WithLabelValues(result).Inc()
	dispatchLatency.WithLabelValues(result).Observe(time.Since(start).Seconds())

	logger := common.WithContext(ctx, s.Logger)
	if !outcome.OK {
		logger.Warn().Int("order_id", o.ID).Str("reason", outcome.Message).Msg("notification fan-out had failures")
		return
	}
	logger.Info().Int("order_id", o.ID).Msg("notification dispatched")
}

func (s *Service) scheduleDelayed(ctx context.Context, orderID, delayMinutes int) error {
	if s.DelayWriter == nil {
		// No scheduler wired; send immediately rather than drop.
		return s.SendOrderNow(ctx, orderID)
	}
	payload, err := json.Marshal(DelayedSend{
		OrderID:   orderID,
		NotBefore: time.Now().UTC().Add(time.Duration(delayMinutes) * time.Minute),
	})
	if err != nil {
		return fmt.Errorf("marshal delayed send: %w", err)
	}
	if err := s.DelayWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.Itoa(orderID)),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("defer order %d: %w", orderID, err)
	}
	return nil
}
