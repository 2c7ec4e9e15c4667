package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/shopspring/decimal"
)

// ErrInvalidAlertTarget is returned when an alert target is non-positive, would
// already be satisfied, or names a vendor that does not offer the product.
var ErrInvalidAlertTarget = errors.New("invalid alert target")

// Outcome is the result of evaluating an alert against fresh prices.
type Outcome int

const (
	Unchanged Outcome = iota
	Triggered
)

func (o Outcome) String() string {
	if o == Triggered {
		return "triggered"
	}
	return "unchanged"
}

// NewAlert validates the request against the product's current prices and
// returns an active alert. An alert that would fire immediately is rejected.
func NewAlert(req models.AlertRequest, product *models.Product, id string, now time.Time) (models.PriceAlert, error) {
	if !req.TargetPrice.IsPositive() {
		return models.PriceAlert{}, fmt.Errorf("%w: target price must be positive", ErrInvalidAlertTarget)
	}

	summary, err := Summarize(product.Prices)
	if err != nil {
		return models.PriceAlert{}, fmt.Errorf("product %s: %w", product.ID, err)
	}

	current, ok := comparisonPrice(req.VendorID, summary, product.Prices)
	if !ok {
		return models.PriceAlert{}, fmt.Errorf(
			"%w: vendor %q does not offer product %s", ErrInvalidAlertTarget, req.VendorID, product.ID)
	}

	if req.TargetPrice.GreaterThanOrEqual(current) {
		return models.PriceAlert{}, fmt.Errorf(
			"%w: target %s must be lower than the current price %s",
			ErrInvalidAlertTarget, req.TargetPrice.StringFixed(2), current.StringFixed(2))
	}

	alert := models.PriceAlert{
		ID:          id,
		ProductID:   product.ID,
		UserID:      req.UserID,
		TargetPrice: req.TargetPrice,
		VendorID:    req.VendorID,
		CreatedAt:   now,
		IsActive:    true,
	}

	return alert, nil
}

// Evaluate decides whether the alert fires for the observed prices. Only an
// active alert that has not triggered yet can transition; TriggeredAt is set
// once and never overwritten.
func Evaluate(
	alert models.PriceAlert,
	summary models.PriceSummary,
	prices []models.VendorPrice,
	observedAt time.Time,
) (models.PriceAlert, Outcome) {
	if !alert.IsActive || alert.Triggered {
		return alert, Unchanged
	}

	current, ok := comparisonPrice(alert.VendorID, summary, prices)
	if !ok || current.GreaterThan(alert.TargetPrice) {
		return alert, Unchanged
	}

	at := observedAt
	alert.Triggered = true
	alert.TriggeredAt = &at

	return alert, Triggered
}

// Reset returns a triggered alert to the watching state.
func Reset(alert models.PriceAlert) models.PriceAlert {
	alert.Triggered = false
	alert.TriggeredAt = nil
	alert.IsActive = true
	return alert
}

// ComparisonPrice returns the price an alert is compared against: the scoped
// vendor's price, or the lowest price over all vendors.
func ComparisonPrice(alert *models.PriceAlert, summary models.PriceSummary, prices []models.VendorPrice) (decimal.Decimal, bool) {
	return comparisonPrice(alert.VendorID, summary, prices)
}

func comparisonPrice(vendorID string, summary models.PriceSummary, prices []models.VendorPrice) (decimal.Decimal, bool) {
	if vendorID == "" {
		return summary.LowestPrice, true
	}
	offers := models.Product{Prices: prices}
	vp, ok := offers.PriceFor(vendorID)
	return vp.Price, ok
}
