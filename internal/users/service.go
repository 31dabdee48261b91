package users

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ensp1re/Gigmee/internal/event"
	"github.com/ensp1re/Gigmee/pkg/logger"
)

// DirectPublisher publishes to a direct exchange. Satisfied by queue.Producer.
type DirectPublisher interface {
	PublishDirect(ctx context.Context, exchangeName, routingKey string, body []byte) error
}

// Service applies choreography events to the users service's local state.
type Service struct {
	buyers   BuyerRepository
	sellers  SellerRepository
	applied  AppliedEventRepository
	producer DirectPublisher
	log      *logger.Logger
}

func NewService(buyers BuyerRepository, sellers SellerRepository, applied AppliedEventRepository, producer DirectPublisher, log *logger.Logger) *Service {
	return &Service{buyers: buyers, sellers: sellers, applied: applied, producer: producer, log: log}
}

// CreateBuyerFromAuth creates a buyer profile from an identity-created event.
func (s *Service) CreateBuyerFromAuth(ctx context.Context, update event.BuyerUpdate) error {
	createdAt := update.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	buyer := &Buyer{
		Username:       update.Username,
		Email:          update.Email,
		ProfilePicture: update.ProfilePicture,
		Country:        update.Country,
		PurchasedGigs:  []string{},
		CreatedAt:      createdAt,
	}
	return s.buyers.CreateBuyer(ctx, buyer)
}

// UpdatePurchasedGigs appends or removes a gig on the buyer's purchase list
// depending on the event type.
func (s *Service) UpdatePurchasedGigs(ctx context.Context, update event.BuyerUpdate) error {
	add := update.Type == event.TypePurchasedGigs
	return s.buyers.UpdatePurchasedGigs(ctx, update.BuyerID, update.PurchasedGigs, add)
}

// ApplySellerUpdate mutates the seller's job counters from an order lifecycle
// event. Events carrying an order id are recorded in the applied-events
// ledger and skipped on redelivery; marker-less events apply a raw delta.
// The marker is written only after the counter update commits, so a failed
// apply is retried on redelivery instead of being skipped.
func (s *Service) ApplySellerUpdate(ctx context.Context, update event.SellerUpdate) error {
	marker := update.Type + ":" + update.OrderID
	if update.OrderID != "" {
		applied, err := s.applied.IsApplied(ctx, marker)
		if err != nil {
			return err
		}
		if applied {
			s.log.Infof("users: skipping redelivered %s event for order %s", update.Type, update.OrderID)
			return nil
		}
	}

	var err error
	switch update.Type {
	case event.TypeCreateOrder:
		err = s.sellers.UpdateOngoingJobs(ctx, update.SellerID, update.OngoingJobs)
	case event.TypeApproveOrder:
		recentDelivery, _ := time.Parse(time.RFC3339, update.RecentDelivery)
		err = s.sellers.ApproveOrder(ctx, update.SellerID, update.OngoingJobs, update.CompletedJobs, update.TotalEarnings, recentDelivery)
	case event.TypeCancelOrder:
		err = s.sellers.CancelOrder(ctx, update.SellerID)
	case event.TypeUpdateGigCount:
		err = s.sellers.UpdateTotalGigsCount(ctx, update.GigSellerID, update.Count)
	}
	if err != nil {
		return err
	}

	if update.OrderID != "" {
		return s.applied.MarkApplied(ctx, marker)
	}
	return nil
}

// ApplySellerReview updates the seller's rating aggregate, then republishes
// the review to the gig service so the catalog's cached rating follows.
func (s *Service) ApplySellerReview(ctx context.Context, body []byte) error {
	var review event.ReviewMessage
	if err := json.Unmarshal(body, &review); err != nil {
		return err
	}
	if err := s.sellers.UpdateSellerReview(ctx, review.SellerID, review.Rating); err != nil {
		return err
	}

	gigUpdate := event.GigUpdate{Type: event.TypeUpdateGig, GigReview: string(body)}
	payload, err := json.Marshal(gigUpdate)
	if err != nil {
		return err
	}
	if err := s.producer.PublishDirect(ctx, event.ExchangeUpdateGig, event.RoutingKeyUpdateGig, payload); err != nil {
		return err
	}
	s.log.Infof("users: review for seller %s applied and forwarded to gig service", review.SellerID)
	return nil
}

// SampleSellers answers a seed request with a random sample of sellers.
func (s *Service) SampleSellers(ctx context.Context, count int) ([]event.SeedSeller, error) {
	sellers, err := s.sellers.GetRandomSellers(ctx, count)
	if err != nil {
		return nil, err
	}
	sample := make([]event.SeedSeller, 0, len(sellers))
	for _, seller := range sellers {
		sample = append(sample, event.SeedSeller{
			ID:             seller.ID,
			Username:       seller.Username,
			Email:          seller.Email,
			ProfilePicture: seller.ProfilePicture,
			Country:        seller.Country,
		})
	}
	return sample, nil
}
