package users

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// BuyerRepository persists buyer profiles.
type BuyerRepository interface {
	CreateBuyer(ctx context.Context, b *Buyer) error
	UpdatePurchasedGigs(ctx context.Context, username, gigID string, add bool) error
}

// SellerRepository persists seller profiles and their job/rating aggregates.
type SellerRepository interface {
	UpdateOngoingJobs(ctx context.Context, sellerID string, delta int) error
	ApproveOrder(ctx context.Context, sellerID string, ongoingJobs, completedJobs int, totalEarnings float64, recentDelivery time.Time) error
	CancelOrder(ctx context.Context, sellerID string) error
	UpdateTotalGigsCount(ctx context.Context, sellerID string, delta int) error
	UpdateSellerReview(ctx context.Context, sellerID string, rating int) error
	GetRandomSellers(ctx context.Context, count int) ([]Seller, error)
}

// AppliedEventRepository is the redelivery dedup ledger. IsApplied reports
// whether a marker was recorded by an earlier delivery; MarkApplied records it.
type AppliedEventRepository interface {
	IsApplied(ctx context.Context, marker string) (bool, error)
	MarkApplied(ctx context.Context, marker string) error
}

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// InitSchema creates the users tables if they do not exist.
func (r *PostgresRepository) InitSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS buyers (
			username        TEXT PRIMARY KEY,
			email           TEXT NOT NULL,
			profile_picture TEXT NOT NULL DEFAULT '',
			country         TEXT NOT NULL DEFAULT '',
			purchased_gigs  TEXT[] NOT NULL DEFAULT '{}',
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS sellers (
			id              TEXT PRIMARY KEY,
			username        TEXT NOT NULL DEFAULT '',
			email           TEXT NOT NULL DEFAULT '',
			profile_picture TEXT NOT NULL DEFAULT '',
			country         TEXT NOT NULL DEFAULT '',
			ongoing_jobs    INT NOT NULL DEFAULT 0,
			completed_jobs  INT NOT NULL DEFAULT 0,
			cancelled_jobs  INT NOT NULL DEFAULT 0,
			total_earnings  DOUBLE PRECISION NOT NULL DEFAULT 0,
			total_gigs      INT NOT NULL DEFAULT 0,
			ratings_count   INT NOT NULL DEFAULT 0,
			rating_sum      INT NOT NULL DEFAULT 0,
			recent_delivery TIMESTAMPTZ
		);
		CREATE TABLE IF NOT EXISTS applied_events (
			marker     TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	return err
}

// CreateBuyer inserts a buyer profile; replayed identity events are no-ops.
func (r *PostgresRepository) CreateBuyer(ctx context.Context, b *Buyer) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO buyers (username, email, profile_picture, country, purchased_gigs, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (username) DO NOTHING`,
		b.Username, b.Email, b.ProfilePicture, b.Country, b.PurchasedGigs, b.CreatedAt)
	return err
}

// UpdatePurchasedGigs appends or removes a gig id on the buyer's list. The
// append guards against duplicates so redelivery cannot double-add.
func (r *PostgresRepository) UpdatePurchasedGigs(ctx context.Context, username, gigID string, add bool) error {
	if add {
		_, err := r.pool.Exec(ctx,
			`UPDATE buyers SET purchased_gigs = array_append(purchased_gigs, $2)
			 WHERE username = $1 AND NOT ($2 = ANY(purchased_gigs))`,
			username, gigID)
		return err
	}
	_, err := r.pool.Exec(ctx,
		`UPDATE buyers SET purchased_gigs = array_remove(purchased_gigs, $2) WHERE username = $1`,
		username, gigID)
	return err
}

func (r *PostgresRepository) UpdateOngoingJobs(ctx context.Context, sellerID string, delta int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sellers SET ongoing_jobs = ongoing_jobs + $2 WHERE id = $1`, sellerID, delta)
	return err
}

func (r *PostgresRepository) ApproveOrder(ctx context.Context, sellerID string, ongoingJobs, completedJobs int, totalEarnings float64, recentDelivery time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sellers SET
			ongoing_jobs = ongoing_jobs - $2,
			completed_jobs = completed_jobs + $3,
			total_earnings = total_earnings + $4,
			recent_delivery = $5
		 WHERE id = $1`,
		sellerID, ongoingJobs, completedJobs, totalEarnings, recentDelivery)
	return err
}

func (r *PostgresRepository) CancelOrder(ctx context.Context, sellerID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sellers SET ongoing_jobs = ongoing_jobs - 1, cancelled_jobs = cancelled_jobs + 1
		 WHERE id = $1`, sellerID)
	return err
}

func (r *PostgresRepository) UpdateTotalGigsCount(ctx context.Context, sellerID string, delta int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sellers SET total_gigs = total_gigs + $2 WHERE id = $1`, sellerID, delta)
	return err
}

func (r *PostgresRepository) UpdateSellerReview(ctx context.Context, sellerID string, rating int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE sellers SET ratings_count = ratings_count + 1, rating_sum = rating_sum + $2
		 WHERE id = $1`, sellerID, rating)
	return err
}

func (r *PostgresRepository) GetRandomSellers(ctx context.Context, count int) ([]Seller, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, username, email, profile_picture, country FROM sellers ORDER BY random() LIMIT $1`, count)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sellers []Seller
	for rows.Next() {
		var s Seller
		if err := rows.Scan(&s.ID, &s.Username, &s.Email, &s.ProfilePicture, &s.Country); err != nil {
			return nil, err
		}
		sellers = append(sellers, s)
	}
	return sellers, rows.Err()
}

func (r *PostgresRepository) IsApplied(ctx context.Context, marker string) (bool, error) {
	var applied bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM applied_events WHERE marker = $1)`, marker).Scan(&applied)
	return applied, err
}

func (r *PostgresRepository) MarkApplied(ctx context.Context, marker string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO applied_events (marker) VALUES ($1) ON CONFLICT (marker) DO NOTHING`, marker)
	return err
}
