package gig

import (
	"context"
	"encoding/json"

	"github.com/ensp1re/Gigmee/internal/event"
	"github.com/ensp1re/Gigmee/internal/queue"
)

// RegisterConsumers binds the gig service's queues: the catalog-update
// direct exchange (raw entity payload) and the seed-response exchange.
// Reviews reach the catalog only through the update-gig republish from the
// users service, so the rating is incremented exactly once per review.
func RegisterConsumers(ctx context.Context, consumer *queue.Consumer, svc *Service) error {
	updateGig := func(ctx context.Context, body []byte) error {
		var update event.GigUpdate
		if err := json.Unmarshal(body, &update); err != nil {
			return err
		}
		return svc.ApplyGigReview(ctx, update)
	}
	if err := consumer.ConsumeRaw(ctx, event.ExchangeUpdateGig, event.QueueGigUpdate, event.RoutingKeyUpdateGig, updateGig); err != nil {
		return err
	}

	seed := func(ctx context.Context, body []byte) error {
		var response event.SeedResponse
		if err := json.Unmarshal(body, &response); err != nil {
			return err
		}
		return svc.SeedGigs(ctx, response.Sellers)
	}
	return consumer.ConsumeRaw(ctx, event.ExchangeSeedGig, event.QueueSeedGig, event.RoutingKeyReceiveSellers, seed)
}
