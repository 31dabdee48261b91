package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouterDispatchesByType(t *testing.T) {
	req := require.New(t)
	router := NewRouter()

	var got string
	router.Handle("create-order", func(ctx context.Context, body []byte) error {
		var payload struct {
			SellerID string `json:"sellerId"`
		}
		req.NoError(json.Unmarshal(body, &payload))
		got = payload.SellerID
		return nil
	})
	router.Handle("cancel-order", func(ctx context.Context, body []byte) error {
		t.Fatal("wrong handler invoked")
		return nil
	})

	err := router.Dispatch(context.Background(), []byte(`{"type":"create-order","sellerId":"S1"}`))
	req.NoError(err)
	req.Equal("S1", got)
}

func TestRouterUnknownTypeIsUnroutable(t *testing.T) {
	req := require.New(t)
	router := NewRouter()
	router.Handle("auth", func(ctx context.Context, body []byte) error { return nil })

	err := router.Dispatch(context.Background(), []byte(`{"type":"mystery"}`))
	req.ErrorIs(err, ErrUnroutable)
}

func TestRouterMalformedPayloadIsUnroutable(t *testing.T) {
	req := require.New(t)
	router := NewRouter()

	err := router.Dispatch(context.Background(), []byte(`not json`))
	req.ErrorIs(err, ErrUnroutable)
}

func TestRouterHandlerErrorPropagates(t *testing.T) {
	req := require.New(t)
	router := NewRouter()
	boom := errors.New("boom")
	router.Handle("auth", func(ctx context.Context, body []byte) error { return boom })

	err := router.Dispatch(context.Background(), []byte(`{"type":"auth"}`))
	req.ErrorIs(err, boom)
	req.False(errors.Is(err, ErrUnroutable))
}

func TestRouterRejectsDuplicateHandlers(t *testing.T) {
	router := NewRouter()
	router.Handle("auth", func(ctx context.Context, body []byte) error { return nil })

	require.Panics(t, func() {
		router.Handle("auth", func(ctx context.Context, body []byte) error { return nil })
	})
}
