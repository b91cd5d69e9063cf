package model

import "time"

// Deal represents one time-limited promotional offer from a restaurant.
type Deal struct {
	ID              string    `json:"_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	CompanyName     string    `json:"company_name"`
	DealType        DealType  `json:"deal_type"`
	OriginalPrice   float64   `json:"original_price"`
	DiscountedPrice float64   `json:"discounted_price"`
	DiscountPercent int       `json:"discount_percent"`
	CategoryID      string    `json:"category_id,omitempty"`
	DealCategoryID  string    `json:"deal_category_id,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	Latitude        float64   `json:"latitude,omitempty"`
	Longitude       float64   `json:"longitude,omitempty"`
	IsHotDeal       bool      `json:"is_hot_deal"`
	TotalClaims     int       `json:"total_claims,omitempty"`
	MaxClaims       int       `json:"max_claims,omitempty"`
	StartsAt        time.Time `json:"starts_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// Expired reports whether the offer window has closed as of now.
func (d Deal) Expired(now time.Time) bool {
	return !d.ExpiresAt.IsZero() && now.After(d.ExpiresAt)
}
