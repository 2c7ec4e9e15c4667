package pricing

import (
	"errors"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/shopspring/decimal"
)

// ErrEmptyPriceList means a product reached the core without any vendor offer.
// The catalog provider is expected to never hand out such products.
var ErrEmptyPriceList = errors.New("product has no vendor prices")

// suggestedFactor is the share of the lowest price proposed as an alert target.
var suggestedFactor = decimal.NewFromFloat(0.9)

// Summarize derives the aggregate price facts of a product's offers.
func Summarize(prices []models.VendorPrice) (models.PriceSummary, error) {
	if len(prices) == 0 {
		return models.PriceSummary{}, ErrEmptyPriceList
	}

	lowest, highest := prices[0].Price, prices[0].Price
	hasDiscount := false
	for _, vp := range prices {
		if vp.Price.LessThan(lowest) {
			lowest = vp.Price
		}
		if vp.Price.GreaterThan(highest) {
			highest = vp.Price
		}
		// A zero discount is present but is not a sale.
		if vp.Discount.Valid && vp.Discount.Decimal.IsPositive() {
			hasDiscount = true
		}
	}

	return models.PriceSummary{
		LowestPrice:  lowest,
		HighestPrice: highest,
		HasRange:     !lowest.Equal(highest),
		HasDiscount:  hasDiscount,
		VendorCount:  len(prices),
	}, nil
}

// BestOffer returns the first offer carrying the lowest price.
func BestOffer(prices []models.VendorPrice) (models.VendorPrice, error) {
	if len(prices) == 0 {
		return models.VendorPrice{}, ErrEmptyPriceList
	}

	best := prices[0]
	for _, vp := range prices[1:] {
		if vp.Price.LessThan(best.Price) {
			best = vp
		}
	}
	return best, nil
}

// SuggestedTarget proposes an alert target 10% under the lowest price.
func SuggestedTarget(summary models.PriceSummary) decimal.Decimal {
	return summary.LowestPrice.Mul(suggestedFactor).Round(2)
}
