package queue

import (
	"context"
	"errors"

	"github.com/ensp1re/Gigmee/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer binds durable queues to exchanges and feeds deliveries through a
// Router. A delivery is acknowledged only after its handler succeeds; handler
// failures are requeued by the broker (at-least-once). Messages whose type has
// no handler are copied to a per-queue dead-letter queue and acknowledged, so
// a single bad payload can never wedge the main queue.
type Consumer struct {
	conn *Connection
	log  *logger.Logger
}

func NewConsumer(conn *Connection, log *logger.Logger) *Consumer {
	return &Consumer{conn: conn, log: log}
}

// ConsumeDirect binds queueName to a direct exchange with an exact routing key
// and dispatches deliveries until ctx is cancelled.
func (c *Consumer) ConsumeDirect(ctx context.Context, exchangeName, queueName, routingKey string, router *Router) error {
	return c.consume(ctx, amqp.ExchangeDirect, exchangeName, queueName, routingKey, router.Dispatch)
}

// ConsumeFanout binds queueName to a fanout exchange with an empty key, so the
// queue receives a copy of every published message.
func (c *Consumer) ConsumeFanout(ctx context.Context, exchangeName, queueName string, router *Router) error {
	return c.consume(ctx, amqp.ExchangeFanout, exchangeName, queueName, "", router.Dispatch)
}

// ConsumeRaw is for single-purpose exchanges whose payload is the raw entity
// with no type discriminant; every delivery goes to the one handler.
func (c *Consumer) ConsumeRaw(ctx context.Context, exchangeName, queueName, routingKey string, handler HandlerFunc) error {
	return c.consume(ctx, amqp.ExchangeDirect, exchangeName, queueName, routingKey, handler)
}

func (c *Consumer) consume(ctx context.Context, kind, exchangeName, queueName, routingKey string, handle HandlerFunc) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(exchangeName, kind, true, false, false, false, nil); err != nil {
		c.log.Errorf("queue: failed to assert exchange %s: %v", exchangeName, err)
		return err
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		c.log.Errorf("queue: failed to assert queue %s: %v", queueName, err)
		return err
	}

	if err := ch.QueueBind(q.Name, routingKey, exchangeName, false, nil); err != nil {
		c.log.Errorf("queue: failed to bind queue %s to %s: %v", queueName, exchangeName, err)
		return err
	}

	deliveries, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		c.log.Errorf("queue: failed to consume from %s: %v", queueName, err)
		return err
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					c.log.Warnf("queue: delivery channel for %s closed", queueName)
					return
				}
				c.handleDelivery(ctx, d, queueName, handle)
			}
		}
	}()

	c.log.Infof("queue: consuming %s bound to %s", queueName, exchangeName)
	return nil
}

// handleDelivery applies the ack policy: ack on success, dead-letter+ack on
// unroutable payloads, requeue on handler failure.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery, queueName string, handle HandlerFunc) {
	err := handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrUnroutable):
		c.log.Warnf("queue: dead-lettering message on %s: %v", queueName, err)
		c.deadLetter(ctx, queueName, d.Body)
		_ = d.Ack(false)
	default:
		c.log.Errorf("queue: handler failed on %s, requeueing: %v", queueName, err)
		_ = d.Nack(false, true)
	}
}

// deadLetter copies an unroutable payload to <queue>-dlq via the default
// exchange. Best effort: a failure here still acknowledges the original.
func (c *Consumer) deadLetter(ctx context.Context, queueName string, body []byte) {
	ch, err := c.conn.Channel()
	if err != nil {
		return
	}
	dlq := queueName + "-dlq"
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		c.log.Errorf("queue: failed to assert dead-letter queue %s: %v", dlq, err)
		return
	}
	err = ch.PublishWithContext(ctx, "", dlq, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		c.log.Errorf("queue: failed to publish to dead-letter queue %s: %v", dlq, err)
	}
}
