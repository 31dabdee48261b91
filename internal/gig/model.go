package gig

import "time"

// Gig is a catalog listing. RatingsCount and RatingSum are the cached rating
// fields updated from review choreography events.
type Gig struct {
	ID               string    `json:"_id"`
	SellerID         string    `json:"sellerId"`
	Username         string    `json:"username"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Categories       string    `json:"categories"`
	Price            float64   `json:"price"`
	RatingsCount     int       `json:"ratingsCount"`
	RatingSum        int       `json:"ratingSum"`
	Active           bool      `json:"active"`
	ExpectedDelivery string    `json:"expectedDelivery,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}
