package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/example/telegram-order-notify/internal/notifier"
	"github.com/example/telegram-order-notify/internal/order"
)

// Event is the envelope carried on the order-events topic. Delayed
// sends redelivered by the scheduler arrive with type "delayed_send".
type Event struct {
	EventID   string       `json:"event_id"`
	Type      string       `json:"type"`
	OrderID   int          `json:"order_id"`
	OldStatus string       `json:"old_status,omitempty"`
	NewStatus string       `json:"new_status,omitempty"`
	Order     *order.Order `json:"order,omitempty"`
}

// Consumer feeds order events from Kafka into the notifier service.
type Consumer struct {
	ReaderFactory func() *kafka.Reader
	Notifier      *notifier.Service
	Logger        zerolog.Logger
}

func (c *Consumer) Run(ctx context.Context) error {
	if c.ReaderFactory == nil || c.Notifier == nil {
		return errors.New("consumer requires a reader factory and a notifier")
	}
	reader := c.ReaderFactory()
	defer reader.Close()

	tracer := otel.Tracer("consumer")

	for {
		m, err := reader.FetchMessage(ctx)
		if err != nil {
			return fmt.Errorf("fetch message: %w", err)
		}

		var event Event
		if err := json.Unmarshal(m.Value, &event); err != nil {
			c.Logger.Error().Err(err).Msg("failed to decode order event")
			_ = reader.CommitMessages(ctx, m)
			continue
		}
		if event.EventID == "" {
			event.EventID = uuid.NewString()
		}

		spanCtx, span := tracer.Start(ctx, "consume-order-event")
		span.SetAttributes(
			attribute.String("event.id", event.EventID),
			attribute.String("event.type", event.Type),
			attribute.Int("order.id", event.OrderID),
		)

		if err := c.handle(spanCtx, event); err != nil {
			// Delivery is best-effort; a failed event is logged and
			// committed rather than replayed.
			span.RecordError(err)
			c.Logger.Error().Err(err).Str("event_id", event.EventID).Str("type", event.Type).Msg("event handling failed")
		}
		span.End()

		if err := reader.CommitMessages(ctx, m); err != nil {
			return fmt.Errorf("commit message: %w", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, event Event) error {
	switch event.Type {
	case "order_created":
		return c.Notifier.HandleOrderCreated(ctx, event.OrderID)
	case "status_changed":
		return c.Notifier.HandleStatusChanged(ctx, event.OrderID, event.OldStatus, event.NewStatus, event.Order)
	case "delayed_send":
		return c.Notifier.SendOrderNow(ctx, event.OrderID)
	default:
		c.Logger.Warn().Str("type", event.Type).Msg("unknown event type, skipping")
		return nil
	}
}
