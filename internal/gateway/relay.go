package gateway

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ensp1re/Gigmee/internal/ws"
	"github.com/ensp1re/Gigmee/pkg/logger"

	"github.com/gorilla/websocket"
)

// Events forwarded verbatim from the chat service to public clients.
const (
	EventMessageReceived = "message received"
	EventMessageUpdated  = "message updated"
)

const (
	relayBaseBackoff = time.Second
	relayMaxBackoff  = 30 * time.Second
)

// Relay maintains the gateway's internal client connection to the chat
// service socket endpoint and re-broadcasts chat events to all public
// clients. Recipient filtering happens client-side; the relay forwards every
// frame to every connection. Reconnection is supervised: exponential backoff
// capped at 30s, giving up after maxAttempts consecutive failures (0 retries
// forever). Public clients are not told about a dropped internal connection;
// they simply stop receiving chat events until it is restored.
type Relay struct {
	url         string
	hub         *ws.Hub
	maxAttempts int
	log         *logger.Logger
}

func NewRelay(url string, hub *ws.Hub, maxAttempts int, log *logger.Logger) *Relay {
	return &Relay{url: url, hub: hub, maxAttempts: maxAttempts, log: log}
}

// Run connects and forwards until ctx is cancelled or the retry budget is
// exhausted. Intended to run in its own goroutine.
func (r *Relay) Run(ctx context.Context) {
	attempts := 0
	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, r.url, nil)
		if err != nil {
			attempts++
			if r.maxAttempts > 0 && attempts >= r.maxAttempts {
				r.log.Errorf("gateway: giving up on chat service after %d attempts: %v", attempts, err)
				return
			}
			backoff := backoffFor(attempts)
			r.log.Errorf("gateway: cannot reach chat service (attempt %d, retrying in %s): %v", attempts, backoff, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			continue
		}

		r.log.Infof("gateway: connected to chat service at %s", r.url)
		attempts = 0
		r.forward(ctx, conn)
		_ = conn.Close()
		r.log.Warnf("gateway: disconnected from chat service, reconnecting")
	}
}

// forward relays chat frames until the connection drops.
func (r *Relay) forward(ctx context.Context, conn *websocket.Conn) {
	for {
		if ctx.Err() != nil {
			return
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var evt ws.Event
		if err := json.Unmarshal(raw, &evt); err != nil {
			r.log.Warnf("gateway: dropping malformed chat frame: %v", err)
			continue
		}

		switch evt.Event {
		case EventMessageReceived, EventMessageUpdated:
			// Forwarded verbatim; clients filter by their own username.
			r.hub.Broadcast(raw)
		}
	}
}

func backoffFor(attempt int) time.Duration {
	d := relayBaseBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= relayMaxBackoff {
			return relayMaxBackoff
		}
	}
	return d
}
