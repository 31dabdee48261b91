package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ensp1re/Gigmee/internal/event"
	gigmee_errors "github.com/ensp1re/Gigmee/pkg/errors"
	"github.com/ensp1re/Gigmee/pkg/logger"

	"github.com/google/uuid"
)

// DirectPublisher publishes to a direct exchange. Satisfied by queue.Producer.
type DirectPublisher interface {
	PublishDirect(ctx context.Context, exchangeName, routingKey string, body []byte) error
}

// Broadcaster pushes chat events to every connected relay. Satisfied by ws.Hub.
type Broadcaster interface {
	BroadcastEvent(name string, data interface{}) error
}

// Socket events emitted to the relay.
const (
	EventMessageReceived = "message received"
	EventMessageUpdated  = "message updated"
)

// MessageService owns conversation and message aggregation: persistence with
// dedup by id, the last-message-per-conversation projection, and read-state
// updates broadcast back through the relay.
type MessageService struct {
	repo        Repository
	producer    DirectPublisher
	broadcaster Broadcaster
	log         *logger.Logger
}

func NewMessageService(repo Repository, producer DirectPublisher, broadcaster Broadcaster, log *logger.Logger) *MessageService {
	return &MessageService{repo: repo, producer: producer, broadcaster: broadcaster, log: log}
}

// AddMessage persists a message, creating its conversation on first contact
// between the pair. Redelivered messages with a known id are returned as-is
// rather than duplicated. Offer messages additionally emit the order
// notification event; the email is best-effort and never blocks the message.
// Every stored message is announced to the relay under "message received".
func (s *MessageService) AddMessage(ctx context.Context, m Message) (Message, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}

	if err := s.ensureConversation(ctx, &m); err != nil {
		return Message{}, err
	}

	if err := s.repo.CreateMessage(ctx, &m); err != nil {
		if errors.Is(err, gigmee_errors.ErrAlreadyExists) {
			return s.repo.GetMessageByID(ctx, m.ID)
		}
		return Message{}, err
	}

	if m.HasOffer && m.Offer != nil {
		s.publishOfferNotification(ctx, m)
	}

	if err := s.broadcaster.BroadcastEvent(EventMessageReceived, m); err != nil {
		s.log.Errorf("chat: failed to broadcast message %s: %v", m.ID, err)
	}
	return m, nil
}

// GetConversation looks up the conversation between two usernames in either
// direction.
func (s *MessageService) GetConversation(ctx context.Context, sender, receiver string) ([]Conversation, error) {
	return s.repo.GetConversation(ctx, sender, receiver)
}

// GetUserConversationList returns the authoritative last-message-per-
// conversation view for a username, recomputed on every call.
func (s *MessageService) GetUserConversationList(ctx context.Context, username string) ([]Message, error) {
	return s.repo.GetUserConversationList(ctx, username)
}

// GetMessages returns the full history between two usernames ascending by
// creation time.
func (s *MessageService) GetMessages(ctx context.Context, sender, receiver string) ([]Message, error) {
	return s.repo.GetMessages(ctx, sender, receiver)
}

// GetUserMessages returns a conversation's messages ascending by creation time.
func (s *MessageService) GetUserMessages(ctx context.Context, conversationID string) ([]Message, error) {
	return s.repo.GetUserMessages(ctx, conversationID)
}

// MarkMessageAsRead flips isRead and rebroadcasts the updated message so read
// receipts and unread badges converge on every client.
func (s *MessageService) MarkMessageAsRead(ctx context.Context, id string) (Message, error) {
	m, err := s.repo.MarkMessageAsRead(ctx, id)
	if err != nil {
		return Message{}, err
	}
	if err := s.broadcaster.BroadcastEvent(EventMessageUpdated, m); err != nil {
		s.log.Errorf("chat: failed to broadcast read update for %s: %v", id, err)
	}
	return m, nil
}

// MarkManyMessagesAsRead marks every unread message from sender to receiver
// and rebroadcasts the reference message as the representative update.
func (s *MessageService) MarkManyMessagesAsRead(ctx context.Context, receiver, sender, messageID string) (Message, error) {
	if err := s.repo.MarkManyMessagesAsRead(ctx, receiver, sender); err != nil {
		return Message{}, err
	}
	m, err := s.repo.GetMessageByID(ctx, messageID)
	if err != nil {
		return Message{}, err
	}
	if err := s.broadcaster.BroadcastEvent(EventMessageUpdated, m); err != nil {
		s.log.Errorf("chat: failed to broadcast bulk read update: %v", err)
	}
	return m, nil
}

// UpdateOffer flips the offer's accepted or cancelled field in place.
func (s *MessageService) UpdateOffer(ctx context.Context, messageID, field string) (Message, error) {
	return s.repo.UpdateOffer(ctx, messageID, field)
}

func (s *MessageService) ensureConversation(ctx context.Context, m *Message) error {
	if m.ConversationID == "" {
		m.ConversationID = uuid.New().String()
	}
	exists, err := s.repo.ConversationExists(ctx, m.ConversationID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	conv := &Conversation{
		ConversationID:   m.ConversationID,
		SenderUsername:   m.SenderUsername,
		ReceiverUsername: m.ReceiverUsername,
	}
	if err := s.repo.CreateConversation(ctx, conv); err != nil && !errors.Is(err, gigmee_errors.ErrAlreadyExists) {
		return err
	}
	return nil
}

func (s *MessageService) publishOfferNotification(ctx context.Context, m Message) {
	notification := event.OfferNotification{
		Sender:         m.SenderUsername,
		Amount:         strconv.FormatFloat(m.Offer.Price, 'f', -1, 64),
		BuyerUsername:  strings.ToLower(m.ReceiverUsername),
		SellerUsername: strings.ToLower(m.SenderUsername),
		Title:          m.Offer.GigTitle,
		Description:    m.Offer.Description,
		DeliveryDays:   strconv.Itoa(m.Offer.DeliveryInDays),
		Template:       "offer",
	}
	body, err := json.Marshal(notification)
	if err != nil {
		s.log.Errorf("chat: failed to marshal offer notification: %v", err)
		return
	}
	if err := s.producer.PublishDirect(ctx, event.ExchangeOrderNotification, event.RoutingKeyOrderEmail, body); err != nil {
		s.log.Errorf("chat: failed to publish offer notification: %v", err)
	}
}
