package catalog

import (
	"cmp"
	"slices"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/Houeta/pricewatch/internal/pricing"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// PopularityFunc supplies an external popularity score for a product.
// ok is false when no score is known for it.
type PopularityFunc func(p *models.Product) (score float64, ok bool)

type sortEntry struct {
	product models.Product
	lowest  decimal.Decimal
	priced  bool
	score   float64
	scored  bool
}

// Sort returns a new slice ordered by key. The sort is stable: products with
// equal keys keep their input order.
//
// Popularity has no signal in the catalog data. With a nil popularity func
// SortPopularity leaves the input order unchanged; otherwise higher scores come
// first and unscored products follow in input order. Products without prices
// sort after priced ones for the price keys. An unknown key keeps input order.
func Sort(products []models.Product, key models.SortBy, popularity PopularityFunc) []models.Product {
	entries := make([]sortEntry, len(products))
	for i := range products {
		e := sortEntry{product: products[i]}
		if summary, err := pricing.Summarize(products[i].Prices); err == nil {
			e.lowest, e.priced = summary.LowestPrice, true
		}
		if popularity != nil {
			e.score, e.scored = popularity(&products[i])
		}
		entries[i] = e
	}

	if cmpFn := comparator(key, popularity != nil); cmpFn != nil {
		slices.SortStableFunc(entries, cmpFn)
	}

	sorted := make([]models.Product, len(entries))
	for i := range entries {
		sorted[i] = entries[i].product
	}
	return sorted
}

func comparator(key models.SortBy, hasPopularity bool) func(a, b sortEntry) int {
	switch key {
	case models.SortPriceAsc:
		return func(a, b sortEntry) int { return comparePrice(a, b, false) }
	case models.SortPriceDesc:
		return func(a, b sortEntry) int { return comparePrice(a, b, true) }
	case models.SortNameAsc, models.SortNameDesc:
		// Collators are not safe for concurrent use, so each sort gets its own.
		col := collate.New(language.English)
		desc := key == models.SortNameDesc
		return func(a, b sortEntry) int {
			c := col.CompareString(a.product.Name, b.product.Name)
			if desc {
				return -c
			}
			return c
		}
	case models.SortPopularity:
		if !hasPopularity {
			return nil
		}
		return comparePopularity
	default:
		return nil
	}
}

func comparePrice(a, b sortEntry, desc bool) int {
	switch {
	case a.priced != b.priced:
		if a.priced {
			return -1
		}
		return 1
	case !a.priced:
		return 0
	}

	c := a.lowest.Cmp(b.lowest)
	if desc {
		return -c
	}
	return c
}

func comparePopularity(a, b sortEntry) int {
	switch {
	case a.scored != b.scored:
		if a.scored {
			return -1
		}
		return 1
	case !a.scored:
		return 0
	}
	return cmp.Compare(b.score, a.score)
}
