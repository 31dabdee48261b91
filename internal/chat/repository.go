package chat

import (
	"context"
	"encoding/json"
	"errors"

	gigmee_errors "github.com/ensp1re/Gigmee/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists conversations and messages.
type Repository interface {
	CreateConversation(ctx context.Context, conv *Conversation) error
	ConversationExists(ctx context.Context, conversationID string) (bool, error)
	GetConversation(ctx context.Context, sender, receiver string) ([]Conversation, error)
	CreateMessage(ctx context.Context, m *Message) error
	GetMessageByID(ctx context.Context, id string) (Message, error)
	GetMessages(ctx context.Context, sender, receiver string) ([]Message, error)
	GetUserMessages(ctx context.Context, conversationID string) ([]Message, error)
	GetUserConversationList(ctx context.Context, username string) ([]Message, error)
	MarkMessageAsRead(ctx context.Context, id string) (Message, error)
	MarkManyMessagesAsRead(ctx context.Context, receiver, sender string) error
	UpdateOffer(ctx context.Context, id, field string) (Message, error)
}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// InitSchema creates the chat tables if they do not exist. Called once at
// service startup.
func (r *PostgresRepository) InitSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS conversations (
			conversation_id   TEXT PRIMARY KEY,
			sender_username   TEXT NOT NULL,
			receiver_username TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS messages (
			id                TEXT PRIMARY KEY,
			conversation_id   TEXT NOT NULL REFERENCES conversations(conversation_id),
			sender_username   TEXT NOT NULL,
			receiver_username TEXT NOT NULL,
			sender_picture    TEXT NOT NULL DEFAULT '',
			receiver_picture  TEXT NOT NULL DEFAULT '',
			body              TEXT NOT NULL DEFAULT '',
			file              TEXT NOT NULL DEFAULT '',
			gig_id            TEXT NOT NULL DEFAULT '',
			seller_id         TEXT NOT NULL DEFAULT '',
			buyer_id          TEXT NOT NULL DEFAULT '',
			has_offer         BOOLEAN NOT NULL DEFAULT FALSE,
			offer             JSONB,
			is_read           BOOLEAN NOT NULL DEFAULT FALSE,
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages (conversation_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_messages_sender ON messages (sender_username);
		CREATE INDEX IF NOT EXISTS idx_messages_receiver ON messages (receiver_username);
	`)
	return err
}

func (r *PostgresRepository) CreateConversation(ctx context.Context, conv *Conversation) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO conversations (conversation_id, sender_username, receiver_username) VALUES ($1, $2, $3)`,
		conv.ConversationID, conv.SenderUsername, conv.ReceiverUsername)
	if isUniqueViolation(err) {
		return gigmee_errors.ErrAlreadyExists
	}
	return err
}

func (r *PostgresRepository) ConversationExists(ctx context.Context, conversationID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversations WHERE conversation_id = $1)`, conversationID).Scan(&exists)
	return exists, err
}

func (r *PostgresRepository) GetConversation(ctx context.Context, sender, receiver string) ([]Conversation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT conversation_id, sender_username, receiver_username FROM conversations
		 WHERE (sender_username = $1 AND receiver_username = $2)
		    OR (sender_username = $2 AND receiver_username = $1)`,
		sender, receiver)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		var conv Conversation
		if err := rows.Scan(&conv.ConversationID, &conv.SenderUsername, &conv.ReceiverUsername); err != nil {
			return nil, err
		}
		conversations = append(conversations, conv)
	}
	return conversations, rows.Err()
}

func (r *PostgresRepository) CreateMessage(ctx context.Context, m *Message) error {
	offer, err := marshalOffer(m.Offer)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx,
		`INSERT INTO messages (id, conversation_id, sender_username, receiver_username, sender_picture,
		                       receiver_picture, body, file, gig_id, seller_id, buyer_id, has_offer, offer,
		                       is_read, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		m.ID, m.ConversationID, m.SenderUsername, m.ReceiverUsername, m.SenderPicture,
		m.ReceiverPicture, m.Body, m.File, m.GigID, m.SellerID, m.BuyerID, m.HasOffer, offer,
		m.IsRead, m.CreatedAt)
	if isUniqueViolation(err) {
		return gigmee_errors.ErrAlreadyExists
	}
	return err
}

func (r *PostgresRepository) GetMessageByID(ctx context.Context, id string) (Message, error) {
	row := r.pool.QueryRow(ctx, selectMessage+` WHERE id = $1`, id)
	return scanMessage(row)
}

func (r *PostgresRepository) GetMessages(ctx context.Context, sender, receiver string) ([]Message, error) {
	rows, err := r.pool.Query(ctx,
		selectMessage+` WHERE (sender_username = $1 AND receiver_username = $2)
		    OR (sender_username = $2 AND receiver_username = $1)
		 ORDER BY created_at ASC`,
		sender, receiver)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *PostgresRepository) GetUserMessages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := r.pool.Query(ctx,
		selectMessage+` WHERE conversation_id = $1 ORDER BY created_at ASC`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

// GetUserConversationList returns the most recent message of every
// conversation the user takes part in. Recomputed on every read.
func (r *PostgresRepository) GetUserConversationList(ctx context.Context, username string) ([]Message, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (conversation_id) `+messageColumns+`
		 FROM messages
		 WHERE sender_username = $1 OR receiver_username = $1
		 ORDER BY conversation_id, created_at DESC`,
		username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

func (r *PostgresRepository) MarkMessageAsRead(ctx context.Context, id string) (Message, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE messages SET is_read = TRUE WHERE id = $1 RETURNING `+messageColumns, id)
	return scanMessage(row)
}

func (r *PostgresRepository) MarkManyMessagesAsRead(ctx context.Context, receiver, sender string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE messages SET is_read = TRUE
		 WHERE sender_username = $1 AND receiver_username = $2 AND is_read = FALSE`,
		sender, receiver)
	return err
}

// UpdateOffer flips one of the offer acceptance fields in place.
func (r *PostgresRepository) UpdateOffer(ctx context.Context, id, field string) (Message, error) {
	if field != "accepted" && field != "cancelled" {
		return Message{}, gigmee_errors.ErrInvalidInput
	}
	row := r.pool.QueryRow(ctx,
		`UPDATE messages SET offer = jsonb_set(offer, ARRAY[$2], 'true'::jsonb)
		 WHERE id = $1 AND offer IS NOT NULL RETURNING `+messageColumns,
		id, field)
	return scanMessage(row)
}

const messageColumns = `id, conversation_id, sender_username, receiver_username, sender_picture,
	receiver_picture, body, file, gig_id, seller_id, buyer_id, has_offer, offer, is_read, created_at`

const selectMessage = `SELECT ` + messageColumns + ` FROM messages`

func scanMessage(row pgx.Row) (Message, error) {
	var m Message
	var offer []byte
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderUsername, &m.ReceiverUsername, &m.SenderPicture,
		&m.ReceiverPicture, &m.Body, &m.File, &m.GigID, &m.SellerID, &m.BuyerID, &m.HasOffer, &offer,
		&m.IsRead, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, gigmee_errors.ErrNotFound
	}
	if err != nil {
		return Message{}, err
	}
	if len(offer) > 0 {
		if err := json.Unmarshal(offer, &m.Offer); err != nil {
			return Message{}, err
		}
	}
	return m, nil
}

func scanMessages(rows pgx.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func marshalOffer(o *Offer) ([]byte, error) {
	if o == nil {
		return nil, nil
	}
	return json.Marshal(o)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
