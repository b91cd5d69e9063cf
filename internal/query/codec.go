// Package query canonicalizes filter state into deterministic cache keys
// and wire query strings. Canonicalization is pure: two filter sets that
// differ only in fields at their inert defaults yield identical keys.
package query

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jomfood/jomdeals/internal/common"
	"github.com/jomfood/jomdeals/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// CanonicalFilter is a FilterSet with every inert default stripped. It is
// immutable once built; both the cache identity and the wire query string
// derive from the same parameter set.
type CanonicalFilter struct {
	params url.Values
	tags   []string
}

// Canonicalize validates fs and strips every field sitting at its inert
// default. Out-of-range values are rejected with InvalidFilterError, never
// silently clamped. Tags are sorted for identity purposes; the caller's
// original order is preserved for re-display via Tags.
func Canonicalize(fs model.FilterSet) (CanonicalFilter, error) {
	if err := validate.Struct(fs); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return CanonicalFilter{}, &common.InvalidFilterError{
				Field:  verrs[0].Field(),
				Reason: fmt.Sprintf("failed %q constraint", verrs[0].Tag()),
			}
		}
		return CanonicalFilter{}, err
	}

	// A zero MaxPrice/MaxDiscount means the control was never touched and
	// is equivalent to the upper bound.
	maxPrice := fs.MaxPrice
	if maxPrice == 0 {
		maxPrice = model.MaxPriceDefault
	}
	maxDiscount := fs.MaxDiscount
	if maxDiscount == 0 {
		maxDiscount = model.MaxDiscountDefault
	}

	if fs.MinPrice > maxPrice {
		return CanonicalFilter{}, &common.InvalidFilterError{
			Field:  "MinPrice",
			Reason: fmt.Sprintf("exceeds max price %d", maxPrice),
		}
	}
	if fs.MinDiscount > maxDiscount {
		return CanonicalFilter{}, &common.InvalidFilterError{
			Field:  "MinDiscount",
			Reason: fmt.Sprintf("exceeds max discount %d", maxDiscount),
		}
	}

	for kind, id := range map[string]string{
		"category":      fs.CategoryID,
		"deal_category": fs.DealCategoryID,
	} {
		if id == "" {
			continue
		}
		if err := common.ValidateID(kind, id); err != nil {
			return CanonicalFilter{}, err
		}
	}

	p := url.Values{}
	if fs.SortBy != "" && fs.SortBy != model.SortNewest {
		p.Set("sort_by", string(fs.SortBy))
	}
	if fs.DealType != model.DealTypeAny {
		p.Set("deal_type", string(fs.DealType))
	}
	if fs.MinPrice > model.MinPriceDefault {
		p.Set("min_price", strconv.Itoa(fs.MinPrice))
	}
	if maxPrice != model.MaxPriceDefault {
		p.Set("max_price", strconv.Itoa(maxPrice))
	}
	if fs.MinDiscount > model.MinDiscountDefault {
		p.Set("min_discount", strconv.Itoa(fs.MinDiscount))
	}
	if maxDiscount != model.MaxDiscountDefault {
		p.Set("max_discount", strconv.Itoa(maxDiscount))
	}
	if fs.CategoryID != "" {
		p.Set("category_id", fs.CategoryID)
	}
	if fs.DealCategoryID != "" {
		p.Set("deal_category_id", fs.DealCategoryID)
	}
	if fs.CompanyName != "" {
		p.Set("company_name", fs.CompanyName)
	}
	if fs.TextSearch != "" {
		p.Set("search", fs.TextSearch)
	}
	if len(fs.Tags) > 0 {
		sorted := make([]string, len(fs.Tags))
		copy(sorted, fs.Tags)
		sort.Strings(sorted)
		p.Set("tags", strings.Join(sorted, ","))
	}
	if fs.Latitude != 0 || fs.Longitude != 0 {
		p.Set("lat", formatFloat(fs.Latitude))
		p.Set("lng", formatFloat(fs.Longitude))
	}
	if fs.RadiusKm > 0 {
		p.Set("radius_km", formatFloat(fs.RadiusKm))
	}
	if fs.IsHotDeal {
		p.Set("is_hot_deal", "true")
	}

	var tags []string
	if len(fs.Tags) > 0 {
		tags = make([]string, len(fs.Tags))
		copy(tags, fs.Tags)
	}

	return CanonicalFilter{params: p, tags: tags}, nil
}

// Key returns the deterministic cache/dedup identity for this filter.
// url.Values.Encode sorts by parameter name, so repeated calls over the
// same filter shape are byte-stable.
func (c CanonicalFilter) Key() string {
	return c.params.Encode()
}

// QueryString returns the wire form of the filter. Page and limit are
// appended per request by the fetcher, never baked into the filter.
func (c CanonicalFilter) QueryString() string {
	return c.params.Encode()
}

// Tags returns the tags in the order the user entered them, for re-display.
func (c CanonicalFilter) Tags() []string {
	return c.tags
}

// Empty reports whether every filter control sat at its inert default.
func (c CanonicalFilter) Empty() bool {
	return len(c.params) == 0
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
