package queue

import (
	"sync"

	"github.com/ensp1re/Gigmee/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Connection owns one physical broker connection and one channel shared by
// every producer and consumer in the process. The channel is opened lazily on
// first use; a failed dial surfaces to the caller, which decides whether to
// retry. There is no automatic reconnect loop.
type Connection struct {
	url string
	log *logger.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConnection(url string, log *logger.Logger) *Connection {
	return &Connection{url: url, log: log}
}

// Channel returns the shared channel, dialing the broker first if needed.
func (c *Connection) Channel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ch != nil && !c.ch.IsClosed() {
		return c.ch, nil
	}

	if c.conn == nil || c.conn.IsClosed() {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Errorf("queue: failed to connect to broker at %s: %v", c.url, err)
			return nil, err
		}
		c.conn = conn
	}

	ch, err := c.conn.Channel()
	if err != nil {
		c.log.Errorf("queue: failed to open channel: %v", err)
		return nil, err
	}
	c.ch = ch
	return c.ch, nil
}

// Close tears down the channel and connection. Called once on shutdown.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
