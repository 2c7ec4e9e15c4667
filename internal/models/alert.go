package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceAlert is a user's request to be notified when a product's price
// falls to or below TargetPrice.
type PriceAlert struct {
	ID          string
	ProductID   string
	UserID      string
	TargetPrice decimal.Decimal
	VendorID    string // empty means any vendor
	CreatedAt   time.Time
	IsActive    bool
	Triggered   bool
	TriggeredAt *time.Time
}

// Scoped reports whether the alert watches a single vendor.
func (a *PriceAlert) Scoped() bool {
	return a.VendorID != ""
}

// AlertRequest carries the fields a user submits to create an alert.
type AlertRequest struct {
	ProductID   string `validate:"required"`
	UserID      string `validate:"required"`
	TargetPrice decimal.Decimal
	VendorID    string
}
