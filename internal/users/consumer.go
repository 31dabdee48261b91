package users

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/ensp1re/Gigmee/internal/event"
	"github.com/ensp1re/Gigmee/internal/queue"
	"github.com/ensp1re/Gigmee/pkg/logger"
)

// RegisterConsumers binds the users service's queues and wires their routers.
// Four choreography paths: buyer profile updates, seller counter updates, the
// review fanout copy, and the seller seed request/response exchange.
func RegisterConsumers(ctx context.Context, consumer *queue.Consumer, producer *queue.Producer, svc *Service, log *logger.Logger) error {
	buyerRouter := queue.NewRouter()
	buyerRouter.Handle(event.TypeAuth, func(ctx context.Context, body []byte) error {
		var update event.BuyerUpdate
		if err := json.Unmarshal(body, &update); err != nil {
			return err
		}
		return svc.CreateBuyerFromAuth(ctx, update)
	})
	purchased := func(ctx context.Context, body []byte) error {
		var update event.BuyerUpdate
		if err := json.Unmarshal(body, &update); err != nil {
			return err
		}
		return svc.UpdatePurchasedGigs(ctx, update)
	}
	buyerRouter.Handle(event.TypePurchasedGigs, purchased)
	buyerRouter.Handle(event.TypeCancelledGigs, purchased)
	if err := consumer.ConsumeDirect(ctx, event.ExchangeBuyerUpdate, event.QueueUserBuyer, event.RoutingKeyUserBuyer, buyerRouter); err != nil {
		return err
	}

	sellerRouter := queue.NewRouter()
	seller := func(ctx context.Context, body []byte) error {
		var update event.SellerUpdate
		if err := json.Unmarshal(body, &update); err != nil {
			return err
		}
		return svc.ApplySellerUpdate(ctx, update)
	}
	sellerRouter.Handle(event.TypeCreateOrder, seller)
	sellerRouter.Handle(event.TypeApproveOrder, seller)
	sellerRouter.Handle(event.TypeCancelOrder, seller)
	sellerRouter.Handle(event.TypeUpdateGigCount, seller)
	if err := consumer.ConsumeDirect(ctx, event.ExchangeSellerUpdate, event.QueueUserSeller, event.RoutingKeyUserSeller, sellerRouter); err != nil {
		return err
	}

	reviewRouter := queue.NewRouter()
	reviewRouter.Handle(event.TypeBuyerReview, func(ctx context.Context, body []byte) error {
		return svc.ApplySellerReview(ctx, body)
	})
	// Seller reviews fan out to this queue too but only concern the buyer's
	// side; acknowledged without effect.
	reviewRouter.Handle(event.TypeSellerReview, func(ctx context.Context, body []byte) error {
		return nil
	})
	if err := consumer.ConsumeFanout(ctx, event.ExchangeReview, event.QueueSellerReview, reviewRouter); err != nil {
		return err
	}

	seedRouter := queue.NewRouter()
	seedRouter.Handle(event.TypeGetSellers, func(ctx context.Context, body []byte) error {
		var req event.SeedRequest
		if err := json.Unmarshal(body, &req); err != nil {
			return err
		}
		count, err := strconv.Atoi(req.Count)
		if err != nil || count <= 0 {
			log.Warnf("users: invalid seller count received: %s", req.Count)
			return nil
		}
		sellers, err := svc.SampleSellers(ctx, count)
		if err != nil {
			return err
		}
		response := event.SeedResponse{Type: event.TypeReceiveSellers, Sellers: sellers, Count: req.Count}
		payload, err := json.Marshal(response)
		if err != nil {
			return err
		}
		return producer.PublishDirect(ctx, event.ExchangeSeedGig, event.RoutingKeyReceiveSellers, payload)
	})
	return consumer.ConsumeDirect(ctx, event.ExchangeGig, event.QueueUserGig, event.RoutingKeyGetSellers, seedRouter)
}
