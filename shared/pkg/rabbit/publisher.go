package rabbit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

var returnedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "rabbit_returned_total",
	Help: "Mandatory publishes the broker could not route to any queue",
}, []string{"exchange", "routing_key"})

func init() {
	prometheus.MustRegister(returnedTotal)
}

// PublishChannel is the part of *amqp.Channel a Publisher uses.
type PublishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher sends persistent JSON messages to one exchange.
type Publisher struct {
	ch        PublishChannel
	exchange  string
	mandatory bool
	now       func() time.Time
}

type PublisherOption func(*Publisher)

// Mandatory asks the broker to hand back messages that match no binding
// instead of dropping them. Pair it with WatchReturns on the same channel.
func Mandatory() PublisherOption {
	return func(p *Publisher) { p.mandatory = true }
}

func NewPublisher(ch PublishChannel, exchange string, opts ...PublisherOption) *Publisher {
	p := &Publisher{ch: ch, exchange: exchange, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish sends body under routingKey. The outbox id, when present, becomes
// the AMQP message id so broker-side tooling can trace a single event.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte, headers amqp.Table) error {
	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		Headers:      headers,
		DeliveryMode: amqp.Persistent,
		Timestamp:    p.now(),
		Type:         routingKey,
	}
	if id, ok := headers["x-outbox-id"].(string); ok {
		msg.MessageId = id
	}
	return p.ch.PublishWithContext(ctx, p.exchange, routingKey, p.mandatory, false, msg)
}

// WatchReturns logs and counts messages the broker returned as unroutable.
// It blocks until returns is closed, which happens when the channel closes.
func WatchReturns(returns <-chan amqp.Return, log zerolog.Logger) {
	for r := range returns {
		returnedTotal.WithLabelValues(r.Exchange, r.RoutingKey).Inc()
		log.Warn().
			Str("exchange", r.Exchange).
			Str("rk", r.RoutingKey).
			Str("message_id", r.MessageId).
			Uint16("reply_code", r.ReplyCode).
			Str("reply_text", r.ReplyText).
			Msg("message returned unroutable")
	}
}
