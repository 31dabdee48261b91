package ws

import (
	"context"
	"encoding/json"
	"sync"
)

// Event is the wire envelope for every socket frame in both directions.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals a payload into an envelope frame.
func NewEvent(name string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: name, Data: raw})
}

// Hub tracks connected clients and broadcasts frames to all of them. Events
// are not filtered by recipient: clients filter by their own username, so a
// frame reaches every open connection. Connections made after a broadcast do
// not see it; there is no replay.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
	}
}

// Run processes register/unregister requests until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends a raw frame to every connected client.
func (h *Hub) Broadcast(payload []byte) {
	h.mu.RLock()
	for _, c := range h.clients {
		c.SendMessage(payload)
	}
	h.mu.RUnlock()
}

// BroadcastEvent marshals the payload into an envelope and broadcasts it.
func (h *Hub) BroadcastEvent(name string, data interface{}) error {
	frame, err := NewEvent(name, data)
	if err != nil {
		return err
	}
	h.Broadcast(frame)
	return nil
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client.ID]; !ok {
		return
	}
	delete(h.clients, client.ID)
	close(client.Send)
}
