package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func drain(c *Client) [][]byte {
	var frames [][]byte
	for {
		select {
		case msg := <-c.Send:
			frames = append(frames, msg)
		default:
			return frames
		}
	}
}

func TestBroadcastReachesAllConnectedClients(t *testing.T) {
	req := require.New(t)
	hub := NewHub()

	c1 := NewClient(nil, "alice")
	c2 := NewClient(nil, "bob")
	c3 := NewClient(nil, "carol")
	hub.addClient(c1)
	hub.addClient(c2)
	hub.addClient(c3)

	frame, err := NewEvent("message received", map[string]string{"body": "hi"})
	req.NoError(err)
	hub.Broadcast(frame)

	for _, c := range []*Client{c1, c2, c3} {
		frames := drain(c)
		req.Len(frames, 1)
		req.Equal(frame, frames[0])
	}
}

func TestLateClientDoesNotReceiveEarlierBroadcast(t *testing.T) {
	req := require.New(t)
	hub := NewHub()

	early := NewClient(nil, "alice")
	hub.addClient(early)

	frame, err := NewEvent("message received", map[string]string{"body": "hi"})
	req.NoError(err)
	hub.Broadcast(frame)

	late := NewClient(nil, "dave")
	hub.addClient(late)

	req.Len(drain(early), 1)
	req.Empty(drain(late))
}

func TestRemovedClientStopsReceiving(t *testing.T) {
	req := require.New(t)
	hub := NewHub()

	c := NewClient(nil, "alice")
	hub.addClient(c)
	hub.removeClient(c)
	req.Zero(hub.ClientCount())

	frame, err := NewEvent("online", []string{"bob"})
	req.NoError(err)
	hub.Broadcast(frame)

	// Send is closed on removal; a broadcast must not have queued anything.
	_, open := <-c.Send
	req.False(open)
}

func TestNewEventEnvelope(t *testing.T) {
	req := require.New(t)

	frame, err := NewEvent("online", []string{"alice", "bob"})
	req.NoError(err)

	var evt Event
	req.NoError(json.Unmarshal(frame, &evt))
	req.Equal("online", evt.Event)

	var users []string
	req.NoError(json.Unmarshal(evt.Data, &users))
	req.Equal([]string{"alice", "bob"}, users)
}
