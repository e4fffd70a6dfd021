package rabbit

import (
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultPrefetch = 10

// ConsumeChannel is the part of *amqp.Channel a Consumer uses.
type ConsumeChannel interface {
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
}

// Consumer subscribes a service to its queue with manual acks. Each Consumer
// registers under its own tag so it can be cancelled on shutdown without
// closing the channel under in-flight acks.
type Consumer struct {
	ch  ConsumeChannel
	tag string
}

func NewConsumer(ch ConsumeChannel, service string) *Consumer {
	return &Consumer{ch: ch, tag: service + "." + uuid.NewString()}
}

func (c *Consumer) Tag() string { return c.tag }

// Consume applies the queue's prefetch and starts delivery from q.Name.
func (c *Consumer) Consume(q QueueSpec) (<-chan amqp.Delivery, error) {
	prefetch := q.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return c.ch.Consume(q.Name, c.tag, false, false, false, false, nil)
}

// Cancel stops new deliveries. The broker closes the delivery channel once
// the cancel is processed.
func (c *Consumer) Cancel() error {
	return c.ch.Cancel(c.tag, false)
}
