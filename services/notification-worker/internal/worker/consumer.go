package worker

import (
	"context"
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"storefront-backend/services/notification-worker/internal/mail"
	"storefront-backend/services/notification-worker/internal/metrics"
	"storefront-backend/shared/pkg/models"
	"storefront-backend/shared/pkg/rabbit"
)

type ProcessedStore interface {
	AlreadyProcessed(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID, eventType string) (bool, error)
}

// Consumer turns account events into emails. An event id is marked processed
// only after its email went out, so a crash in between can resend once.
type Consumer struct {
	Log       zerolog.Logger
	Processed ProcessedStore
	Mailer    mail.Mailer

	RetryPub rabbit.RawPublisher
	DLQPub   rabbit.RawPublisher

	Service     string
	MaxAttempts int
	DLQKey      string
}

func (c *Consumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	c.Log.Info().Msg("notification consumer started")
	for {
		select {
		case <-ctx.Done():
			c.Log.Info().Msg("notification consumer stopped")
			return
		case d, ok := <-deliveries:
			if !ok {
				c.Log.Info().Msg("deliveries closed")
				return
			}
			c.handle(ctx, d)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	var evt models.Event[json.RawMessage]
	if err := json.Unmarshal(d.Body, &evt); err != nil {
		c.Log.Error().Err(err).Str("rk", rabbit.OriginalRoutingKey(d)).Msg("bad json -> dlq")
		c.deadLetter(ctx, d)
		return
	}
	if evt.ID == "" {
		c.Log.Error().Str("rk", rabbit.OriginalRoutingKey(d)).Msg("missing event id -> dlq")
		c.deadLetter(ctx, d)
		return
	}
	log := c.Log.With().
		Str("event_id", evt.ID).
		Str("type", evt.Type).
		Int32("attempt", rabbit.GetAttempts(d.Headers)).
		Logger()

	done, err := c.Processed.AlreadyProcessed(ctx, evt.ID)
	if err != nil {
		log.Error().Err(err).Msg("processed lookup failed -> retry/dlq")
		c.retry(ctx, d)
		return
	}
	if done {
		_ = d.Ack(false)
		log.Debug().Msg("duplicate event ignored")
		return
	}

	msg, err := mail.Render(evt.Type, evt.Payload)
	if errors.Is(err, mail.ErrUnknownEvent) {
		_ = d.Ack(false)
		log.Debug().Msg("no email for event type")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("render failed -> dlq")
		c.deadLetter(ctx, d)
		return
	}

	if err := c.Mailer.Send(ctx, msg); err != nil {
		metrics.EmailFailuresTotal.WithLabelValues(evt.Type).Inc()
		log.Error().Err(err).Msg("send failed -> retry/dlq")
		c.retry(ctx, d)
		return
	}
	metrics.EmailsSentTotal.WithLabelValues(evt.Type).Inc()

	if _, err := c.Processed.MarkProcessed(ctx, evt.ID, evt.Type); err != nil {
		// the email is out; a redelivery may send it again
		log.Warn().Err(err).Msg("mark processed failed")
	}
	_ = d.Ack(false)
	log.Info().Msg("email sent")
}

func (c *Consumer) retry(ctx context.Context, d amqp.Delivery) {
	_ = rabbit.RetryOrDLQ(ctx, d, c.Service, int32(c.MaxAttempts), c.RetryPub, c.DLQPub, c.DLQKey)
}

func (c *Consumer) deadLetter(ctx context.Context, d amqp.Delivery) {
	_ = rabbit.RetryOrDLQ(ctx, d, c.Service, 0, c.RetryPub, c.DLQPub, c.DLQKey)
}
