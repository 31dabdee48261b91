package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ensp1re/Gigmee/internal/event"
	"github.com/ensp1re/Gigmee/internal/queue"
	"github.com/ensp1re/Gigmee/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Review is the rating snapshot stored on an order once a party reviews it.
type Review struct {
	Rating    int       `json:"rating"`
	Review    string    `json:"review"`
	CreatedAt time.Time `json:"created"`
}

// Repository stores review snapshots against orders.
type Repository interface {
	UpdateOrderReview(ctx context.Context, orderID, reviewerType string, review Review) error
}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// InitSchema creates the order reviews table if it does not exist.
func (r *PostgresRepository) InitSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS order_reviews (
			order_id      TEXT NOT NULL,
			reviewer_type TEXT NOT NULL,
			rating        INT NOT NULL,
			review        TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (order_id, reviewer_type)
		);
	`)
	return err
}

// UpdateOrderReview upserts the review snapshot; a redelivered review event
// overwrites with identical data, so the apply is idempotent.
func (r *PostgresRepository) UpdateOrderReview(ctx context.Context, orderID, reviewerType string, review Review) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO order_reviews (order_id, reviewer_type, rating, review, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (order_id, reviewer_type) DO UPDATE
		 SET rating = EXCLUDED.rating, review = EXCLUDED.review, created_at = EXCLUDED.created_at`,
		orderID, reviewerType, review.Rating, review.Review, review.CreatedAt)
	return err
}

// Service applies review fanout events to the order's own rating snapshot.
type Service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ApplyReview records the review snapshot on the reviewed order.
func (s *Service) ApplyReview(ctx context.Context, msg event.ReviewMessage) error {
	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	review := Review{Rating: msg.Rating, Review: msg.Review, CreatedAt: createdAt}
	return s.repo.UpdateOrderReview(ctx, msg.OrderID, msg.Type, review)
}

// RegisterConsumers binds the order service's copy of the review fanout.
func RegisterConsumers(ctx context.Context, consumer *queue.Consumer, svc *Service) error {
	router := queue.NewRouter()
	review := func(ctx context.Context, body []byte) error {
		var msg event.ReviewMessage
		if err := json.Unmarshal(body, &msg); err != nil {
			return err
		}
		return svc.ApplyReview(ctx, msg)
	}
	router.Handle(event.TypeBuyerReview, review)
	router.Handle(event.TypeSellerReview, review)
	return consumer.ConsumeFanout(ctx, event.ExchangeReview, event.QueueOrderReview, router)
}
