package users

import "time"

// Buyer is the profile record created from the identity-created event.
type Buyer struct {
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Country        string    `json:"country,omitempty"`
	PurchasedGigs  []string  `json:"purchasedGigs"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Seller carries the aggregates mutated by order lifecycle and review events.
type Seller struct {
	ID             string    `json:"_id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	Country        string    `json:"country,omitempty"`
	OngoingJobs    int       `json:"ongoingJobs"`
	CompletedJobs  int       `json:"completedJobs"`
	CancelledJobs  int       `json:"cancelledJobs"`
	TotalEarnings  float64   `json:"totalEarnings"`
	TotalGigs      int       `json:"totalGigs"`
	RatingsCount   int       `json:"ratingsCount"`
	RatingSum      int       `json:"ratingSum"`
	RecentDelivery time.Time `json:"recentDelivery,omitempty"`
}
