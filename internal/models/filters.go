package models

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownSortKey is returned when a sort key is not one of the SortBy values.
var ErrUnknownSortKey = errors.New("unknown sort key")

// SortBy selects the ordering of search results.
type SortBy string

const (
	SortPriceAsc   SortBy = "price-asc"
	SortPriceDesc  SortBy = "price-desc"
	SortNameAsc    SortBy = "name-asc"
	SortNameDesc   SortBy = "name-desc"
	SortPopularity SortBy = "popularity"
)

// DefaultSort is applied to fresh filters.
const DefaultSort = SortPriceAsc

// ParseSortBy converts a user supplied key into a SortBy.
func ParseSortBy(s string) (SortBy, error) {
	switch key := SortBy(strings.ToLower(strings.TrimSpace(s))); key {
	case SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortPopularity:
		return key, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
}

// Criteria is the navigation query surface: free text and category.
type Criteria struct {
	Text     string
	Category CategoryTag
}

// ParseCriteria reads the q and category query parameters.
func ParseCriteria(values url.Values) Criteria {
	return Criteria{
		Text:     strings.TrimSpace(values.Get("q")),
		Category: CategoryTag(strings.TrimSpace(values.Get("category"))),
	}
}

// SearchFilters is a user-session scoped set of constraints plus a sort order.
// Zero values impose no constraint.
type SearchFilters struct {
	Text     string
	Category CategoryTag
	PriceMin decimal.NullDecimal
	PriceMax decimal.NullDecimal
	Brands   []string
	Vendors  []string
	SortBy   SortBy `validate:"omitempty,oneof=price-asc price-desc name-asc name-desc popularity"`
}

// NewSearchFilters returns filters seeded from the query surface.
func NewSearchFilters(c Criteria) SearchFilters {
	return SearchFilters{SortBy: DefaultSort}.WithCriteria(c)
}

// WithCriteria merges the query surface into the filters. The criteria text
// always replaces the filter text; the criteria category only fills an unset
// filter category.
func (f SearchFilters) WithCriteria(c Criteria) SearchFilters {
	f.Text = c.Text
	if f.Category == "" {
		f.Category = c.Category
	}
	return f
}

// ActiveCount counts the price, brand and vendor constraints in use.
func (f *SearchFilters) ActiveCount() int {
	count := 0
	if f.PriceMin.Valid || f.PriceMax.Valid {
		count++
	}
	if len(f.Brands) > 0 {
		count++
	}
	if len(f.Vendors) > 0 {
		count++
	}
	return count
}

// ToggleBrand adds the brand to the filter set, or removes it if present.
func (f *SearchFilters) ToggleBrand(brand string) {
	f.Brands = toggle(f.Brands, brand)
}

// ToggleVendor adds the vendor name to the filter set, or removes it if present.
func (f *SearchFilters) ToggleVendor(vendor string) {
	f.Vendors = toggle(f.Vendors, vendor)
}

func toggle(set []string, v string) []string {
	for i, s := range set {
		if s == v {
			return append(set[:i:i], set[i+1:]...)
		}
	}
	return append(slices.Clip(set), v)
}
