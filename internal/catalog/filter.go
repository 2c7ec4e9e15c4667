// Package catalog answers which products match a set of search filters and
// in what order they are shown.
package catalog

import (
	"slices"
	"strings"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/Houeta/pricewatch/internal/pricing"
)

// Filter returns the products matching every criterion set in f, in input
// order. Unset criteria impose no constraint. Products without prices never
// match. The input slice is not modified.
func Filter(products []models.Product, f models.SearchFilters) []models.Product {
	text := strings.ToLower(f.Text)

	matched := make([]models.Product, 0, len(products))
	for i := range products {
		p := &products[i]

		if text != "" && !matchesText(p, text) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}

		summary, err := pricing.Summarize(p.Prices)
		if err != nil {
			continue
		}
		// The lower bound checks the cheapest offer and the upper bound the
		// most expensive one.
		if f.PriceMin.Valid && summary.LowestPrice.LessThan(f.PriceMin.Decimal) {
			continue
		}
		if f.PriceMax.Valid && summary.HighestPrice.GreaterThan(f.PriceMax.Decimal) {
			continue
		}

		if len(f.Brands) > 0 && !slices.Contains(f.Brands, p.Brand) {
			continue
		}
		if len(f.Vendors) > 0 && !soldByAny(p, f.Vendors) {
			continue
		}

		matched = append(matched, *p)
	}

	return matched
}

func matchesText(p *models.Product, lowered string) bool {
	return strings.Contains(strings.ToLower(p.Name), lowered) ||
		strings.Contains(strings.ToLower(p.Description), lowered) ||
		strings.Contains(strings.ToLower(p.Brand), lowered)
}

func soldByAny(p *models.Product, vendors []string) bool {
	for _, vp := range p.Prices {
		if slices.Contains(vendors, vp.VendorName) {
			return true
		}
	}
	return false
}
