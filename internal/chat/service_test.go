package chat

import (
	"context"
	"encoding/json"
	"sort"
	"testing"
	"time"

	"github.com/ensp1re/Gigmee/internal/event"
	gigmee_errors "github.com/ensp1re/Gigmee/pkg/errors"
	"github.com/ensp1re/Gigmee/pkg/logger"

	"github.com/stretchr/testify/require"
)

// memoryRepository is an in-memory Repository for service tests.
type memoryRepository struct {
	conversations map[string]Conversation
	messages      map[string]Message
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		conversations: make(map[string]Conversation),
		messages:      make(map[string]Message),
	}
}

func (r *memoryRepository) CreateConversation(ctx context.Context, conv *Conversation) error {
	if _, ok := r.conversations[conv.ConversationID]; ok {
		return gigmee_errors.ErrAlreadyExists
	}
	r.conversations[conv.ConversationID] = *conv
	return nil
}

func (r *memoryRepository) ConversationExists(ctx context.Context, conversationID string) (bool, error) {
	_, ok := r.conversations[conversationID]
	return ok, nil
}

func (r *memoryRepository) GetConversation(ctx context.Context, sender, receiver string) ([]Conversation, error) {
	var out []Conversation
	for _, conv := range r.conversations {
		if (conv.SenderUsername == sender && conv.ReceiverUsername == receiver) ||
			(conv.SenderUsername == receiver && conv.ReceiverUsername == sender) {
			out = append(out, conv)
		}
	}
	return out, nil
}

func (r *memoryRepository) CreateMessage(ctx context.Context, m *Message) error {
	if _, ok := r.messages[m.ID]; ok {
		return gigmee_errors.ErrAlreadyExists
	}
	r.messages[m.ID] = *m
	return nil
}

func (r *memoryRepository) GetMessageByID(ctx context.Context, id string) (Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return Message{}, gigmee_errors.ErrNotFound
	}
	return m, nil
}

func (r *memoryRepository) GetMessages(ctx context.Context, sender, receiver string) ([]Message, error) {
	var out []Message
	for _, m := range r.messages {
		if (m.SenderUsername == sender && m.ReceiverUsername == receiver) ||
			(m.SenderUsername == receiver && m.ReceiverUsername == sender) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) GetUserMessages(ctx context.Context, conversationID string) ([]Message, error) {
	var out []Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) GetUserConversationList(ctx context.Context, username string) ([]Message, error) {
	latest := make(map[string]Message)
	for _, m := range r.messages {
		if m.SenderUsername != username && m.ReceiverUsername != username {
			continue
		}
		if prev, ok := latest[m.ConversationID]; !ok || m.CreatedAt.After(prev.CreatedAt) {
			latest[m.ConversationID] = m
		}
	}
	var out []Message
	for _, m := range latest {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConversationID < out[j].ConversationID })
	return out, nil
}

func (r *memoryRepository) MarkMessageAsRead(ctx context.Context, id string) (Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return Message{}, gigmee_errors.ErrNotFound
	}
	m.IsRead = true
	r.messages[id] = m
	return m, nil
}

func (r *memoryRepository) MarkManyMessagesAsRead(ctx context.Context, receiver, sender string) error {
	for id, m := range r.messages {
		if m.SenderUsername == sender && m.ReceiverUsername == receiver && !m.IsRead {
			m.IsRead = true
			r.messages[id] = m
		}
	}
	return nil
}

func (r *memoryRepository) UpdateOffer(ctx context.Context, id, field string) (Message, error) {
	if field != "accepted" && field != "cancelled" {
		return Message{}, gigmee_errors.ErrInvalidInput
	}
	m, ok := r.messages[id]
	if !ok || m.Offer == nil {
		return Message{}, gigmee_errors.ErrNotFound
	}
	if field == "accepted" {
		m.Offer.Accepted = true
	} else {
		m.Offer.Cancelled = true
	}
	r.messages[id] = m
	return m, nil
}

type publishedMessage struct {
	exchange   string
	routingKey string
	body       []byte
}

type fakePublisher struct {
	published []publishedMessage
}

func (p *fakePublisher) PublishDirect(ctx context.Context, exchangeName, routingKey string, body []byte) error {
	p.published = append(p.published, publishedMessage{exchange: exchangeName, routingKey: routingKey, body: body})
	return nil
}

type broadcastEvent struct {
	name string
	data interface{}
}

type fakeBroadcaster struct {
	events []broadcastEvent
}

func (b *fakeBroadcaster) BroadcastEvent(name string, data interface{}) error {
	b.events = append(b.events, broadcastEvent{name: name, data: data})
	return nil
}

func newTestService() (*MessageService, *memoryRepository, *fakePublisher, *fakeBroadcaster) {
	repo := newMemoryRepository()
	publisher := &fakePublisher{}
	broadcaster := &fakeBroadcaster{}
	svc := NewMessageService(repo, publisher, broadcaster, logger.NewNop())
	return svc, repo, publisher, broadcaster
}

func TestAddMessageCreatesConversationAndBroadcasts(t *testing.T) {
	req := require.New(t)
	svc, repo, _, broadcaster := newTestService()
	ctx := context.Background()

	m, err := svc.AddMessage(ctx, Message{
		SenderUsername:   "alice",
		ReceiverUsername: "bob",
		Body:             "hello",
	})
	req.NoError(err)
	req.NotEmpty(m.ID)
	req.NotEmpty(m.ConversationID)
	req.False(m.CreatedAt.IsZero())

	exists, err := repo.ConversationExists(ctx, m.ConversationID)
	req.NoError(err)
	req.True(exists)

	req.Len(broadcaster.events, 1)
	req.Equal(EventMessageReceived, broadcaster.events[0].name)
}

func TestAddMessageReusesExistingConversation(t *testing.T) {
	req := require.New(t)
	svc, repo, _, _ := newTestService()
	ctx := context.Background()

	first, err := svc.AddMessage(ctx, Message{SenderUsername: "alice", ReceiverUsername: "bob", Body: "hi"})
	req.NoError(err)

	_, err = svc.AddMessage(ctx, Message{
		ConversationID:   first.ConversationID,
		SenderUsername:   "bob",
		ReceiverUsername: "alice",
		Body:             "hi back",
	})
	req.NoError(err)
	req.Len(repo.conversations, 1)
}

func TestAddMessageDeduplicatesById(t *testing.T) {
	req := require.New(t)
	svc, repo, _, broadcaster := newTestService()
	ctx := context.Background()

	original := Message{
		ID:               "m-1",
		SenderUsername:   "alice",
		ReceiverUsername: "bob",
		Body:             "first delivery",
	}
	stored, err := svc.AddMessage(ctx, original)
	req.NoError(err)

	// A redelivery with the same id must return the stored message and not
	// announce it a second time.
	redelivered := original
	redelivered.Body = "second delivery"
	got, err := svc.AddMessage(ctx, redelivered)
	req.NoError(err)
	req.Equal(stored.Body, got.Body)
	req.Len(repo.messages, 1)
	req.Len(broadcaster.events, 1)
}

func TestAddMessageWithOfferPublishesNotification(t *testing.T) {
	req := require.New(t)
	svc, _, publisher, broadcaster := newTestService()

	_, err := svc.AddMessage(context.Background(), Message{
		SenderUsername:   "SellerSam",
		ReceiverUsername: "BuyerBea",
		Body:             "custom offer",
		HasOffer:         true,
		Offer: &Offer{
			GigTitle:       "Logo design",
			Price:          150,
			Description:    "Three concepts",
			DeliveryInDays: 5,
		},
	})
	req.NoError(err)

	req.Len(publisher.published, 1)
	pub := publisher.published[0]
	req.Equal(event.ExchangeOrderNotification, pub.exchange)
	req.Equal(event.RoutingKeyOrderEmail, pub.routingKey)

	var notification event.OfferNotification
	req.NoError(json.Unmarshal(pub.body, &notification))
	req.Equal("SellerSam", notification.Sender)
	req.Equal("150", notification.Amount)
	req.Equal("buyerbea", notification.BuyerUsername)
	req.Equal("sellersam", notification.SellerUsername)
	req.Equal("Logo design", notification.Title)
	req.Equal("5", notification.DeliveryDays)
	req.Equal("offer", notification.Template)

	req.Len(broadcaster.events, 1)
}

func TestConversationListReturnsLatestMessagePerConversation(t *testing.T) {
	req := require.New(t)
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	add := func(id, conv, sender, receiver, body string, at time.Time) {
		_, err := svc.AddMessage(ctx, Message{
			ID:               id,
			ConversationID:   conv,
			SenderUsername:   sender,
			ReceiverUsername: receiver,
			Body:             body,
			CreatedAt:        at,
		})
		req.NoError(err)
	}

	add("m1", "conv-1", "alice", "bob", "older", base.Add(10*time.Minute))
	add("m2", "conv-2", "carol", "alice", "other thread", base.Add(15*time.Minute))
	add("m3", "conv-1", "bob", "alice", "newest", base.Add(20*time.Minute))

	list, err := svc.GetUserConversationList(ctx, "alice")
	req.NoError(err)
	req.Len(list, 2)

	byConv := make(map[string]Message, len(list))
	for _, m := range list {
		byConv[m.ConversationID] = m
	}
	req.Equal("newest", byConv["conv-1"].Body)
	req.Equal("other thread", byConv["conv-2"].Body)
}

func TestMarkMessageAsReadBroadcastsUpdate(t *testing.T) {
	req := require.New(t)
	svc, _, _, broadcaster := newTestService()
	ctx := context.Background()

	m, err := svc.AddMessage(ctx, Message{SenderUsername: "alice", ReceiverUsername: "bob", Body: "unread"})
	req.NoError(err)

	updated, err := svc.MarkMessageAsRead(ctx, m.ID)
	req.NoError(err)
	req.True(updated.IsRead)

	req.Len(broadcaster.events, 2)
	req.Equal(EventMessageUpdated, broadcaster.events[1].name)
}

func TestMarkManyMessagesAsRead(t *testing.T) {
	req := require.New(t)
	svc, repo, _, broadcaster := newTestService()
	ctx := context.Background()

	first, err := svc.AddMessage(ctx, Message{ID: "m-1", SenderUsername: "alice", ReceiverUsername: "bob", Body: "one"})
	req.NoError(err)
	_, err = svc.AddMessage(ctx, Message{
		ID: "m-2", ConversationID: first.ConversationID,
		SenderUsername: "alice", ReceiverUsername: "bob", Body: "two",
	})
	req.NoError(err)

	_, err = svc.MarkManyMessagesAsRead(ctx, "bob", "alice", "m-2")
	req.NoError(err)

	for _, id := range []string{"m-1", "m-2"} {
		m, err := repo.GetMessageByID(ctx, id)
		req.NoError(err)
		req.True(m.IsRead)
	}
	req.Equal(EventMessageUpdated, broadcaster.events[len(broadcaster.events)-1].name)
}

func TestUpdateOfferRejectsUnknownField(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.UpdateOffer(context.Background(), "m-1", "price")
	require.ErrorIs(t, err, gigmee_errors.ErrInvalidInput)
}

func TestUpdateOfferFlipsAccepted(t *testing.T) {
	req := require.New(t)
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	m, err := svc.AddMessage(ctx, Message{
		SenderUsername:   "seller",
		ReceiverUsername: "buyer",
		HasOffer:         true,
		Offer:            &Offer{GigTitle: "Logo design", Price: 100, DeliveryInDays: 3},
	})
	req.NoError(err)

	updated, err := svc.UpdateOffer(ctx, m.ID, "accepted")
	req.NoError(err)
	req.True(updated.Offer.Accepted)
	req.False(updated.Offer.Cancelled)
}
