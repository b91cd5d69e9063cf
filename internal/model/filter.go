// Package model defines the core domain models used throughout the application.
package model

// SortOption orders deal listings.
type SortOption string

// Supported sort orders.
const (
	SortNewest       SortOption = "newest"
	SortRecommended  SortOption = "recommended"
	SortNearest      SortOption = "nearest"
	SortPriceAsc     SortOption = "price_asc"
	SortPriceDesc    SortOption = "price_desc"
	SortDiscountDesc SortOption = "discount_desc"
	SortExpiryAsc    SortOption = "expiry_asc"
)

// DealType narrows a listing to one promotion mechanic. Empty means any.
type DealType string

// Supported deal types.
const (
	DealTypeAny         DealType = ""
	DealTypePercentage  DealType = "percentage"
	DealTypeFixedAmount DealType = "fixed_amount"
	DealTypeCombo       DealType = "combo"
)

// Filter range bounds. Fields sitting at these defaults are inert: they
// are omitted from both the wire query and the cache identity so that
// equivalent filters never fragment the cache.
const (
	MinPriceDefault    = 0
	MaxPriceDefault    = 500
	MinDiscountDefault = 0
	MaxDiscountDefault = 100
	DefaultPageLimit   = 10
)

// FilterSet is an immutable snapshot of every deal-listing filter control.
// It is constructed by the filter controller on apply and never mutated
// once handed to a collection; the next apply supersedes it wholesale.
type FilterSet struct {
	SortBy         SortOption `validate:"omitempty,oneof=newest recommended nearest price_asc price_desc discount_desc expiry_asc"`
	DealType       DealType   `validate:"omitempty,oneof=percentage fixed_amount combo"`
	MinPrice       int        `validate:"gte=0,lte=500"`
	MaxPrice       int        `validate:"gte=0,lte=500"`
	MinDiscount    int        `validate:"gte=0,lte=100"`
	MaxDiscount    int        `validate:"gte=0,lte=100"`
	CategoryID     string
	DealCategoryID string
	CompanyName    string
	TextSearch     string
	Tags           []string
	Latitude       float64 `validate:"gte=-90,lte=90"`
	Longitude      float64 `validate:"gte=-180,lte=180"`
	RadiusKm       float64 `validate:"gte=0"`
	IsHotDeal      bool
	Page           int `validate:"gte=0"`
	Limit          int `validate:"gte=0,lte=100"`
}

// DefaultFilterSet returns a FilterSet with every control at its inert
// default.
func DefaultFilterSet() FilterSet {
	return FilterSet{
		SortBy:      SortNewest,
		MinPrice:    MinPriceDefault,
		MaxPrice:    MaxPriceDefault,
		MinDiscount: MinDiscountDefault,
		MaxDiscount: MaxDiscountDefault,
	}
}

// Clone returns a deep copy so draft edits never alias the applied set.
func (f FilterSet) Clone() FilterSet {
	clone := f
	if f.Tags != nil {
		clone.Tags = make([]string, len(f.Tags))
		copy(clone.Tags, f.Tags)
	}
	return clone
}
