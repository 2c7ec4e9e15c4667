package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalidProduct is returned when catalog data violates the product invariants.
var ErrInvalidProduct = errors.New("invalid product")

// discountTolerance absorbs cent rounding in originalPrice - price == discount.
var discountTolerance = decimal.New(1, -2)

// Validation wraps a validator with the catalog rules registered.
type Validation struct {
	validate *validator.Validate
}

// ValidationError describes one failed rule.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (v ValidationError) Error() string {
	return fmt.Sprintf("field '%s': %s", v.Field, v.Message)
}

// ValidationErrors is a slice of ValidationError.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	msgs := make([]string, 0, len(ve))
	for _, v := range ve {
		msgs = append(msgs, v.Error())
	}
	return strings.Join(msgs, "; ")
}

// NewValidation creates a Validation with the product invariants registered.
func NewValidation() *Validation {
	v := validator.New()
	v.RegisterStructValidation(productInvariants, Product{})
	v.RegisterStructValidation(vendorPriceInvariants, VendorPrice{})
	return &Validation{validate: v}
}

// Validate checks i against its struct tags and registered rules.
// It returns nil or ValidationErrors.
func (v *Validation) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	errs := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, ValidationError{
			Field:   fe.Namespace(),
			Message: fmt.Sprintf("failed on the '%s' tag", fe.Tag()),
		})
	}
	return errs
}

// ValidateProduct checks a product and wraps failures with ErrInvalidProduct.
func (v *Validation) ValidateProduct(p *Product) error {
	if err := v.Validate(p); err != nil {
		return fmt.Errorf("%w %s: %w", ErrInvalidProduct, p.ID, err)
	}
	return nil
}

func productInvariants(sl validator.StructLevel) {
	p, ok := sl.Current().Interface().(Product)
	if !ok {
		return
	}

	switch p.Kind {
	case KindDurable:
		if p.durable == nil {
			sl.ReportError(p.Kind, "Kind", "Kind", "payload", "")
		}
	case KindPerishable:
		if p.perishable == nil {
			sl.ReportError(p.Kind, "Kind", "Kind", "payload", "")
		}
	}

	seen := make(map[string]struct{}, len(p.Prices))
	for _, vp := range p.Prices {
		if _, dup := seen[vp.VendorID]; dup {
			sl.ReportError(vp.VendorID, "Prices", "Prices", "unique_vendor", vp.VendorID)
		}
		seen[vp.VendorID] = struct{}{}
	}
}

func vendorPriceInvariants(sl validator.StructLevel) {
	vp, ok := sl.Current().Interface().(VendorPrice)
	if !ok {
		return
	}

	if !vp.Price.IsPositive() {
		sl.ReportError(vp.Price, "Price", "Price", "gt", "0")
	}

	if !vp.Discount.Valid || !vp.Discount.Decimal.IsPositive() {
		return
	}
	if !vp.OriginalPrice.Valid || !vp.OriginalPrice.Decimal.GreaterThan(vp.Price) {
		sl.ReportError(vp.OriginalPrice, "OriginalPrice", "OriginalPrice", "gtfield", "Price")
		return
	}
	diff := vp.OriginalPrice.Decimal.Sub(vp.Price).Sub(vp.Discount.Decimal).Abs()
	if diff.GreaterThan(discountTolerance) {
		sl.ReportError(vp.Discount, "Discount", "Discount", "discount", "OriginalPrice-Price")
	}
}
