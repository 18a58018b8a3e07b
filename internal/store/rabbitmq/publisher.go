package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/suPer8Hu/chainbot/internal/common"
	"github.com/suPer8Hu/chainbot/internal/events"
)

type Publisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewPublisher(url, queue string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := declareQueues(ch, queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	return &Publisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// PublishMessage enqueues a message-created event and returns its event id.
func (p *Publisher) PublishMessage(ctx context.Context, msg events.Message) (string, error) {
	id, err := common.NewULID()
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(EventEnvelope{
		EventID:     id,
		Kind:        events.KindMessageCreate,
		Message:     &msg,
		PublishedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = p.ch.PublishWithContext(cctx,
		"",      // default exchange
		p.queue, // routing key = queue
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    id,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return "", err
	}
	return id, nil
}
