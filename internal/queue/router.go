package queue

import (
	"context"
	"encoding/json"
	"fmt"
)

// HandlerFunc applies one routed event. Returning an error leaves the
// delivery unacknowledged so the broker redelivers it; handlers must
// therefore tolerate seeing the same event more than once.
type HandlerFunc func(ctx context.Context, body []byte) error

// ErrUnroutable marks a payload whose type discriminant has no registered
// handler. The consumer dead-letters such messages instead of retrying them.
var ErrUnroutable = fmt.Errorf("unroutable event type")

// Router dispatches consumed messages to handlers by their "type" field.
type Router struct {
	handlers map[string]HandlerFunc
}

func NewRouter() *Router {
	return &Router{handlers: make(map[string]HandlerFunc)}
}

// Handle registers a handler for a type discriminant. Registering the same
// type twice panics: each type must map to exactly one handler per consumer.
func (r *Router) Handle(msgType string, h HandlerFunc) {
	if _, ok := r.handlers[msgType]; ok {
		panic(fmt.Sprintf("queue: handler already registered for type %q", msgType))
	}
	r.handlers[msgType] = h
}

// Dispatch parses the type discriminant and invokes the matching handler.
// Unparseable payloads and unknown types return ErrUnroutable.
func (r *Router) Dispatch(ctx context.Context, body []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return fmt.Errorf("%w: %v", ErrUnroutable, err)
	}

	h, ok := r.handlers[probe.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnroutable, probe.Type)
	}
	return h(ctx, body)
}
