package listings

import "time"

// Listing is one rental record as served by the listings API. The client
// never mutates it.
type Listing struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   *string   `json:"description"`
	Price         int64     `json:"price"`
	AdminFee      *int64    `json:"admin_fee"`
	Bedrooms      int       `json:"bedrooms"`
	Bathrooms     int       `json:"bathrooms"`
	ParkingSpaces int       `json:"parking_spaces"`
	Area          float64   `json:"area"`
	Estrato       *int      `json:"estrato"`
	Address       string    `json:"address"`
	Neighborhood  string    `json:"neighborhood"`
	City          string    `json:"city"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Source        string    `json:"source"`
	URL           string    `json:"url"`
	Images        []string  `json:"images"`
	IsActive      bool      `json:"is_active"`
	FirstSeenAt   time.Time `json:"first_seen_at"`
	LastSeenAt    time.Time `json:"last_seen_at"`
}

// PaginatedListings is the search response envelope.
type PaginatedListings struct {
	Items      []Listing `json:"items"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

type FeatureImpact struct {
	Feature   string   `json:"feature"`
	Value     *float64 `json:"value"`
	Impact    float64  `json:"impact"`
	Direction string   `json:"direction"` // "increases" or "decreases"
}

// FairPrice is the analysis endpoint payload for a single listing.
type FairPrice struct {
	ListingID              string          `json:"listing_id"`
	ActualPrice            int64           `json:"actual_price"`
	PredictedPrice         int64           `json:"predicted_price"`
	PriceDifference        int64           `json:"price_difference"`
	PriceDifferencePercent float64         `json:"price_difference_percent"`
	Verdict                string          `json:"verdict"` // fair, overpriced, underpriced
	FeatureImpacts         []FeatureImpact `json:"feature_impacts"`
}
