package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTag identifies the catalog section a product belongs to.
type CategoryTag string

const (
	CategoryLaptop  CategoryTag = "laptop"
	CategoryGrocery CategoryTag = "grocery"
)

// Kind is the variant tag of a Product.
type Kind string

const (
	KindDurable    Kind = "durable"
	KindPerishable Kind = "perishable"
)

// Product is a catalog item offered by one or more vendors.
//
// The variant payload (durable or perishable) is only reachable through
// AsDurable and AsPerishable, which check the Kind tag first.
type Product struct {
	ID          string      `validate:"required"`
	Name        string      `validate:"required"`
	Description string
	ImageURL    string
	Category    CategoryTag `validate:"required"`
	Brand       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Prices      []VendorPrice `validate:"min=1,dive"`

	Kind       Kind `validate:"oneof=durable perishable"`
	durable    *DurableSpec
	perishable *PerishableSpec
}

// DurableSpec holds the fields specific to durable goods (laptops and the like).
type DurableSpec struct {
	Processor string
	Memory    string
	Storage   string
	Display   string
	Graphics  string
}

// PerishableSpec holds the fields specific to perishable goods.
type PerishableSpec struct {
	Weight        string
	NutritionInfo string // empty when unknown
	Organic       bool
}

// VendorPrice is one vendor's current offer for a product.
type VendorPrice struct {
	VendorID      string          `validate:"required"`
	VendorName    string          `validate:"required"`
	Price         decimal.Decimal
	OriginalPrice decimal.NullDecimal
	Discount      decimal.NullDecimal
	InStock       bool
	LastUpdated   time.Time
	URL           string
}

// PriceSummary is the aggregate price facts derived from a VendorPrice list.
// It is never stored.
type PriceSummary struct {
	LowestPrice  decimal.Decimal
	HighestPrice decimal.Decimal
	HasRange     bool
	HasDiscount  bool
	VendorCount  int
}

// NewDurable builds a durable product from the shared fields and its spec.
func NewDurable(base Product, spec DurableSpec) Product {
	base.Kind = KindDurable
	base.durable = &spec
	base.perishable = nil
	return base
}

// NewPerishable builds a perishable product from the shared fields and its spec.
func NewPerishable(base Product, spec PerishableSpec) Product {
	base.Kind = KindPerishable
	base.perishable = &spec
	base.durable = nil
	return base
}

// AsDurable returns the durable payload if the product is a durable good.
func (p *Product) AsDurable() (*DurableSpec, bool) {
	if p.Kind != KindDurable || p.durable == nil {
		return nil, false
	}
	return p.durable, true
}

// AsPerishable returns the perishable payload if the product is a perishable good.
func (p *Product) AsPerishable() (*PerishableSpec, bool) {
	if p.Kind != KindPerishable || p.perishable == nil {
		return nil, false
	}
	return p.perishable, true
}

// Clone returns a deep copy so callers never share the price slice or payload.
func (p Product) Clone() Product {
	cp := p
	cp.Prices = append([]VendorPrice(nil), p.Prices...)
	if p.durable != nil {
		d := *p.durable
		cp.durable = &d
	}
	if p.perishable != nil {
		ps := *p.perishable
		cp.perishable = &ps
	}
	return cp
}

// VendorNames lists the vendor display names of every offer, in offer order.
func (p *Product) VendorNames() []string {
	names := make([]string, 0, len(p.Prices))
	for _, vp := range p.Prices {
		names = append(names, vp.VendorName)
	}
	return names
}

// PriceFor returns the offer of the given vendor.
func (p *Product) PriceFor(vendorID string) (VendorPrice, bool) {
	for _, vp := range p.Prices {
		if vp.VendorID == vendorID {
			return vp, true
		}
	}
	return VendorPrice{}, false
}
