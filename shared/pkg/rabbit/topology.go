package rabbit

import amqp "github.com/rabbitmq/amqp091-go"

const (
	ExchangeEvents = "storefront.events"
	ExchangeDLX    = "storefront.dlx"
	ExchangeRetry  = "storefront.retry"
)

func DeclareBase(ch *amqp.Channel) error {
	for _, name := range []string{ExchangeEvents, ExchangeDLX, ExchangeRetry} {
		if err := ch.ExchangeDeclare(name, "topic", true, false, false, false, nil); err != nil {
			return err
		}
	}
	return nil
}

type QueueSpec struct {
	Name     string
	BindKeys []string // routing keys on ExchangeEvents
	DLQ      string   // dlq routing key and queue name
	Prefetch int
}

func DeclareQueueWithDLQ(ch *amqp.Channel, q QueueSpec) error {
	args := amqp.Table{}
	if q.DLQ != "" {
		args["x-dead-letter-exchange"] = ExchangeDLX
		args["x-dead-letter-routing-key"] = q.DLQ
	}

	qq, err := ch.QueueDeclare(q.Name, true, false, false, false, args)
	if err != nil {
		return err
	}
	for _, key := range q.BindKeys {
		if err := ch.QueueBind(qq.Name, key, ExchangeEvents, false, nil); err != nil {
			return err
		}
	}

	if q.DLQ != "" {
		dlq, err := ch.QueueDeclare(q.DLQ, true, false, false, false, nil)
		if err != nil {
			return err
		}
		if err := ch.QueueBind(dlq.Name, q.DLQ, ExchangeDLX, false, nil); err != nil {
			return err
		}
	}
	return nil
}

// DeclareRetryQueue parks messages published to ExchangeRetry under
// "<service>.<key>" for ttlMs, then dead-letters them straight into the
// consumer queue through the default exchange. Going back through
// ExchangeEvents would hand the retry to every queue bound to the key, so the
// redelivery arrives with routing key consumerQueue and RetryOrDLQ recovers the
// original key from the x-routing-key header.
func DeclareRetryQueue(ch *amqp.Channel, service, consumerQueue string, bindKeys []string, ttlMs int) error {
	name := consumerQueue + ".retry"
	args := amqp.Table{
		"x-message-ttl":             int32(ttlMs),
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": consumerQueue,
	}
	q, err := ch.QueueDeclare(name, true, false, false, false, args)
	if err != nil {
		return err
	}
	for _, key := range bindKeys {
		if err := ch.QueueBind(q.Name, service+"."+key, ExchangeRetry, false, nil); err != nil {
			return err
		}
	}
	return nil
}
