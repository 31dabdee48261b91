package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ensp1re/Gigmee/internal/ws"
	"github.com/ensp1re/Gigmee/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestBackoffDoublesUpToCap(t *testing.T) {
	req := require.New(t)

	req.Equal(time.Second, backoffFor(1))
	req.Equal(2*time.Second, backoffFor(2))
	req.Equal(4*time.Second, backoffFor(3))
	req.Equal(16*time.Second, backoffFor(5))
	req.Equal(30*time.Second, backoffFor(6))
	req.Equal(30*time.Second, backoffFor(20))
}

func TestRelayGivesUpAfterMaxAttempts(t *testing.T) {
	hub := ws.NewHub()
	relay := NewRelay("ws://127.0.0.1:1/socket", hub, 1, logger.NewNop())

	done := make(chan struct{})
	go func() {
		relay.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not give up after exhausting its attempts")
	}
}

func TestRelayForwardsChatEvents(t *testing.T) {
	req := require.New(t)
	upgrader := websocket.Upgrader{}

	frames := make(chan []byte, 3)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
	}))
	defer srv.Close()
	defer close(frames)

	hub := ws.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := ws.NewClient(nil, "alice")
	hub.Register(client)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/socket"
	relay := NewRelay(url, hub, 0, logger.NewNop())
	go relay.Run(ctx)

	received, err := ws.NewEvent(EventMessageReceived, map[string]string{"body": "hi"})
	req.NoError(err)
	updated, err := ws.NewEvent(EventMessageUpdated, map[string]string{"_id": "m1"})
	req.NoError(err)
	other, err := ws.NewEvent("typing", map[string]string{"user": "bob"})
	req.NoError(err)

	frames <- received
	frames <- other
	frames <- updated

	// Only the two chat events may come through, in order.
	req.Equal(received, waitFrame(t, client))
	req.Equal(updated, waitFrame(t, client))
	select {
	case frame := <-client.Send:
		t.Fatalf("unexpected extra frame: %s", frame)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitFrame(t *testing.T, c *ws.Client) []byte {
	t.Helper()
	select {
	case frame := <-c.Send:
		return frame
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for relayed frame")
		return nil
	}
}
