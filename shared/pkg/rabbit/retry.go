package rabbit

import (
	"context"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	ErrRetryScheduled = errors.New("retry scheduled")
	ErrDeadLettered   = errors.New("max attempts reached, sent to dlq")
)

// RawPublisher is the subset of *Publisher used for retry and dead-lettering.
type RawPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte, headers amqp.Table) error
}

const (
	HeaderAttempts   = "x-attempts"
	HeaderRoutingKey = "x-routing-key"
)

// OriginalRoutingKey is the key the event was first published with. Once a
// message has been through the retry queue its delivery key is the consumer
// queue name, so the original travels in the x-routing-key header.
func OriginalRoutingKey(d amqp.Delivery) string {
	if rk, ok := d.Headers[HeaderRoutingKey].(string); ok && rk != "" {
		return rk
	}
	return d.RoutingKey
}

func GetAttempts(h amqp.Table) int32 {
	if h == nil {
		return 0
	}
	v, ok := h[HeaderAttempts]
	if !ok {
		return 0
	}
	switch t := v.(type) {
	case int32:
		return t
	case int64:
		return int32(t)
	case int:
		return int32(t)
	case float64:
		return int32(t)
	default:
		return 0
	}
}

// RetryOrDLQ republishes the delivery to ExchangeRetry under "<service>.<rk>"
// with x-attempts+1, or to the DLX once maxAttempts is reached. rk is always
// the original routing key, never the key of a retry-queue redelivery. The
// delivery is acked when the republish succeeds and requeued when it fails.
func RetryOrDLQ(
	ctx context.Context,
	d amqp.Delivery,
	service string,
	maxAttempts int32,
	retryPub RawPublisher,
	dlqPub RawPublisher,
	dlqRoutingKey string,
) error {
	attempts := GetAttempts(d.Headers)
	rk := OriginalRoutingKey(d)
	headers := amqp.Table{
		HeaderAttempts:   attempts + 1,
		HeaderRoutingKey: rk,
	}

	pubCtx, cancel := WithTimeout(ctx)
	defer cancel()

	if attempts+1 >= maxAttempts {
		if err := dlqPub.Publish(pubCtx, dlqRoutingKey, d.Body, headers); err != nil {
			_ = d.Nack(false, true)
			return err
		}
		_ = d.Ack(false)
		return ErrDeadLettered
	}

	if err := retryPub.Publish(pubCtx, service+"."+rk, d.Body, headers); err != nil {
		_ = d.Nack(false, true)
		return err
	}
	_ = d.Ack(false)
	return ErrRetryScheduled
}
