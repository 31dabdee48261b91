package event

import "time"

// Exchange and queue names shared by all services. Exchanges are asserted
// idempotently by both producers and consumers, so the names must match exactly.
const (
	ExchangeBuyerUpdate       = "gigme-buyer-update"
	ExchangeSellerUpdate      = "gigme-seller-update"
	ExchangeReview            = "gigme-review"
	ExchangeUpdateGig         = "gigme-update-gig"
	ExchangeGig               = "gigme-gig"
	ExchangeSeedGig           = "gigme-seed-gig"
	ExchangeOrderNotification = "gigme-order-notification"
)

const (
	RoutingKeyUserBuyer      = "user-buyer"
	RoutingKeyUserSeller     = "user-seller"
	RoutingKeyUpdateGig      = "update-gig"
	RoutingKeyGetSellers     = "get-sellers"
	RoutingKeyReceiveSellers = "receive-sellers"
	RoutingKeyOrderEmail     = "order-email"
)

const (
	QueueUserBuyer    = "user-buyer-queue"
	QueueUserSeller   = "user-seller-queue"
	QueueSellerReview = "seller-review-queue"
	QueueOrderReview  = "order-review-queue"
	QueueGigUpdate    = "gig-update-queue"
	QueueUserGig      = "user-gig-queue"
	QueueSeedGig      = "seed-gig-queue"
)

// Type discriminants carried in routed payloads.
const (
	TypeAuth           = "auth"
	TypePurchasedGigs  = "purchased-gigs"
	TypeCancelledGigs  = "cancelled-gigs"
	TypeCreateOrder    = "create-order"
	TypeApproveOrder   = "approve-order"
	TypeCancelOrder    = "cancel-order"
	TypeUpdateGigCount = "update-gig-count"
	TypeBuyerReview    = "buyer-review"
	TypeSellerReview   = "seller-review"
	TypeGetSellers     = "getSellers"
	TypeReceiveSellers = "receiveSellers"
	TypeUpdateGig      = "updateGig"
)

// BuyerUpdate is routed on the gigme-buyer-update exchange. With type "auth"
// the identity fields create a buyer profile; otherwise BuyerID and
// PurchasedGigs adjust the purchased-gigs list.
type BuyerUpdate struct {
	Type           string    `json:"type"`
	Username       string    `json:"username,omitempty"`
	Email          string    `json:"email,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Country        string    `json:"country,omitempty"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
	BuyerID        string    `json:"buyerId,omitempty"`
	PurchasedGigs  string    `json:"purchasedGigs,omitempty"`
}

// SellerUpdate is routed on the gigme-seller-update exchange and mutates a
// seller's job counters and earnings. OrderID, when present, is the
// idempotency marker for redelivery dedup.
type SellerUpdate struct {
	Type           string  `json:"type"`
	SellerID       string  `json:"sellerId,omitempty"`
	OrderID        string  `json:"orderId,omitempty"`
	OngoingJobs    int     `json:"ongoingJobs,omitempty"`
	CompletedJobs  int     `json:"completedJobs,omitempty"`
	TotalEarnings  float64 `json:"totalEarnings,omitempty"`
	RecentDelivery string  `json:"recentDelivery,omitempty"`
	GigSellerID    string  `json:"gigSellerId,omitempty"`
	Count          int     `json:"count,omitempty"`
}

// ReviewMessage fans out on the gigme-review exchange; every bound service
// applies its own rating aggregate independently.
type ReviewMessage struct {
	Type       string    `json:"type"`
	GigID      string    `json:"gigId,omitempty"`
	ReviewerID string    `json:"reviewerId,omitempty"`
	SellerID   string    `json:"sellerId,omitempty"`
	OrderID    string    `json:"orderId,omitempty"`
	Rating     int       `json:"rating,omitempty"`
	Review     string    `json:"review,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// GigUpdate is the raw-entity payload on gigme-update-gig; GigReview holds
// the serialized ReviewMessage that triggered it.
type GigUpdate struct {
	Type      string `json:"type"`
	GigReview string `json:"gigReview"`
}

// SeedRequest asks the users service for a random seller sample.
type SeedRequest struct {
	Type  string `json:"type"`
	Count string `json:"count"`
}

// SeedResponse carries the sampled sellers back to the gig service.
type SeedResponse struct {
	Type    string       `json:"type"`
	Sellers []SeedSeller `json:"sellers"`
	Count   string       `json:"count"`
}

// SeedSeller is the subset of a seller profile needed to seed demo gigs.
type SeedSeller struct {
	ID             string `json:"_id"`
	Username       string `json:"username"`
	Email          string `json:"email"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Country        string `json:"country,omitempty"`
}

// OfferNotification is published to gigme-order-notification when a chat
// message carries an offer; the notification service renders the email.
type OfferNotification struct {
	Sender         string `json:"sender"`
	Amount         string `json:"amount"`
	BuyerUsername  string `json:"buyerUsername"`
	SellerUsername string `json:"sellerUsername"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	DeliveryDays   string `json:"deliveryDays"`
	Template       string `json:"template"`
}
