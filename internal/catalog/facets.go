package catalog

import (
	"slices"

	"github.com/Houeta/pricewatch/internal/models"
)

// Facets are the brand and vendor values a search can filter on.
type Facets struct {
	Brands  []string
	Vendors []string
}

// AvailableFacets collects the brands and vendor names of the products in
// category. An empty category covers the whole catalog. Both lists are sorted
// and hold each value once.
func AvailableFacets(products []models.Product, category models.CategoryTag) Facets {
	var f Facets
	for i := range products {
		p := &products[i]
		if category != "" && p.Category != category {
			continue
		}
		if p.Brand != "" {
			f.Brands = append(f.Brands, p.Brand)
		}
		f.Vendors = append(f.Vendors, p.VendorNames()...)
	}

	slices.Sort(f.Brands)
	slices.Sort(f.Vendors)
	f.Brands = slices.Compact(f.Brands)
	f.Vendors = slices.Compact(f.Vendors)

	return f
}
