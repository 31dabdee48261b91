package queue

import (
	"context"

	"github.com/ensp1re/Gigmee/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Producer publishes typed events to named exchanges over the shared channel.
// Publishing is fire-and-forget on the broker side; errors opening the channel
// or writing the frame are returned so the caller can decide whether the event
// was required or best-effort.
type Producer struct {
	conn *Connection
	log  *logger.Logger
}

func NewProducer(conn *Connection, log *logger.Logger) *Producer {
	return &Producer{conn: conn, log: log}
}

// PublishDirect asserts a durable direct exchange and publishes a persistent
// JSON message with the given routing key. Asserting the exchange is
// idempotent, so repeated publishes are safe.
func (p *Producer) PublishDirect(ctx context.Context, exchangeName, routingKey string, body []byte) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(exchangeName, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		p.log.Errorf("queue: failed to assert exchange %s: %v", exchangeName, err)
		return err
	}

	err = ch.PublishWithContext(ctx, exchangeName, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		p.log.Errorf("queue: failed to publish to %s with key %s: %v", exchangeName, routingKey, err)
		return err
	}
	return nil
}
