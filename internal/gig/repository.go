package gig

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists catalog listings and their cached rating fields.
type Repository interface {
	CreateGig(ctx context.Context, g *Gig) error
	UpdateGigReview(ctx context.Context, gigID string, rating int) error
	UpdateSellerGigsReview(ctx context.Context, sellerID string, rating int) error
}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// InitSchema creates the gigs table if it does not exist.
func (r *PostgresRepository) InitSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS gigs (
			id                TEXT PRIMARY KEY,
			seller_id         TEXT NOT NULL,
			username          TEXT NOT NULL DEFAULT '',
			title             TEXT NOT NULL DEFAULT '',
			description       TEXT NOT NULL DEFAULT '',
			categories        TEXT NOT NULL DEFAULT '',
			price             DOUBLE PRECISION NOT NULL DEFAULT 0,
			ratings_count     INT NOT NULL DEFAULT 0,
			rating_sum        INT NOT NULL DEFAULT 0,
			active            BOOLEAN NOT NULL DEFAULT TRUE,
			expected_delivery TEXT NOT NULL DEFAULT '',
			created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_gigs_seller ON gigs (seller_id);
	`)
	return err
}

func (r *PostgresRepository) CreateGig(ctx context.Context, g *Gig) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO gigs (id, seller_id, username, title, description, categories, price,
		                   ratings_count, rating_sum, active, expected_delivery, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (id) DO NOTHING`,
		g.ID, g.SellerID, g.Username, g.Title, g.Description, g.Categories, g.Price,
		g.RatingsCount, g.RatingSum, g.Active, g.ExpectedDelivery, g.CreatedAt)
	return err
}

func (r *PostgresRepository) UpdateGigReview(ctx context.Context, gigID string, rating int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE gigs SET ratings_count = ratings_count + 1, rating_sum = rating_sum + $2
		 WHERE id = $1`, gigID, rating)
	return err
}

func (r *PostgresRepository) UpdateSellerGigsReview(ctx context.Context, sellerID string, rating int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE gigs SET ratings_count = ratings_count + 1, rating_sum = rating_sum + $2
		 WHERE seller_id = $1`, sellerID, rating)
	return err
}
