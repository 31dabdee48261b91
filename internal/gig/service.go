package gig

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ensp1re/Gigmee/internal/event"
	"github.com/ensp1re/Gigmee/pkg/logger"

	"github.com/google/uuid"
)

// Service applies catalog-side choreography: cached rating updates and demo
// seeding from sampled sellers.
type Service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ApplyGigReview updates the cached rating fields from a review forwarded by
// the users service on the catalog-update exchange.
func (s *Service) ApplyGigReview(ctx context.Context, update event.GigUpdate) error {
	var review event.ReviewMessage
	if err := json.Unmarshal([]byte(update.GigReview), &review); err != nil {
		return err
	}
	if review.GigID != "" {
		return s.repo.UpdateGigReview(ctx, review.GigID, review.Rating)
	}
	return s.repo.UpdateSellerGigsReview(ctx, review.SellerID, review.Rating)
}

// SeedGigs creates one demo listing per sampled seller.
func (s *Service) SeedGigs(ctx context.Context, sellers []event.SeedSeller) error {
	for i, seller := range sellers {
		g := &Gig{
			ID:          uuid.New().String(),
			SellerID:    seller.ID,
			Username:    seller.Username,
			Title:       fmt.Sprintf("Demo gig %d by %s", i+1, seller.Username),
			Description: "Seeded sample listing.",
			Categories:  "Programming & Tech",
			Price:       float64(10 + i*5),
			Active:      true,
			CreatedAt:   time.Now(),
		}
		if err := s.repo.CreateGig(ctx, g); err != nil {
			return err
		}
	}
	s.log.Infof("gig: seeded %d demo gigs", len(sellers))
	return nil
}
