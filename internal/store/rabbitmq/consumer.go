package rabbitmq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/chainbot/internal/events"
)

// Consumer reads queued events and exposes them as an events.Source.
type Consumer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
	queue      string
}

// acker is the part of amqp.Delivery the consumer needs.
type acker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func NewConsumer(url, queue string, prefetch int) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel: %w", err)
	}
	fail := func(step string, err error) (*Consumer, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: %s: %w", step, err)
	}
	if err := declareQueues(ch, queue); err != nil {
		return fail("queue declare", err)
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return fail("qos", err)
		}
	}
	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return fail("consume", err)
	}
	return &Consumer{conn: conn, ch: ch, deliveries: deliveries, queue: queue}, nil
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Next waits for the next delivery. Malformed deliveries are nacked without
// requeue, which dead-letters them, and reported as an error.
func (c *Consumer) Next(ctx context.Context) (events.Event, error) {
	select {
	case <-ctx.Done():
		return events.Event{}, ctx.Err()
	case d, ok := <-c.deliveries:
		if !ok {
			return events.Event{}, events.ErrClosed
		}
		return eventFromDelivery(d.Body, d)
	}
}

func eventFromDelivery(body []byte, a acker) (events.Event, error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		_ = a.Nack(false, false)
		return events.Event{}, fmt.Errorf("rabbitmq: bad message: %w", err)
	}
	return events.Event{
		Kind:    env.Kind,
		Message: env.Message,
		Ack: func(err error) {
			if err != nil {
				_ = a.Nack(false, false)
				return
			}
			_ = a.Ack(false)
		},
	}, nil
}
