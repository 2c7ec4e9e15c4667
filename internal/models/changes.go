package models

// Offer is a single vendor price for a product, as published by the offer feed.
type Offer struct {
	ProductID string
	Price     VendorPrice
}

// Key identifies an offer across feed snapshots.
func (o Offer) Key() string {
	return o.ProductID + "/" + o.Price.VendorID
}

// OfferChange - information about the changed offer.
type OfferChange struct {
	Old Offer
	New Offer
}

// Changes - comparison result: all types of changes.
type Changes struct {
	Added   []Offer
	Removed []Offer
	Changed []OfferChange
}

// Empty reports whether no offer was added, removed or changed.
func (c *Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0 && len(c.Changed) == 0
}

// State - the complete feed snapshot stored in the database.
type State struct {
	PageHash string
	Offers   []Offer
}
