package models_test

import (
	"testing"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validLaptop() models.Product {
	discounted := price("amazon", "Amazon", "2099")
	discounted.OriginalPrice = decimal.NewNullDecimal(decimal.NewFromInt(2199))
	discounted.Discount = decimal.NewNullDecimal(decimal.NewFromInt(100))

	return models.NewDurable(models.Product{
		ID:       "laptop-2",
		Name:     "Dell XPS 15",
		Category: models.CategoryLaptop,
		Brand:    "Dell",
		Prices:   []models.VendorPrice{price("dell", "Dell", "2199"), discounted},
	}, models.DurableSpec{Processor: "Intel Core i9-13900H"})
}

func TestValidation_ValidateProduct(t *testing.T) {
	v := models.NewValidation()

	testCases := []struct {
		name        string
		mutate      func(p *models.Product)
		expectError bool
		field       string
	}{
		{
			name:   "valid product",
			mutate: func(*models.Product) {},
		},
		{
			name:        "no prices",
			mutate:      func(p *models.Product) { p.Prices = nil },
			expectError: true,
			field:       "Prices",
		},
		{
			name:        "missing name",
			mutate:      func(p *models.Product) { p.Name = "" },
			expectError: true,
			field:       "Name",
		},
		{
			name: "duplicate vendor id",
			mutate: func(p *models.Product) {
				p.Prices = append(p.Prices, price("dell", "Dell Outlet", "2000"))
			},
			expectError: true,
			field:       "Prices",
		},
		{
			name:        "non-positive price",
			mutate:      func(p *models.Product) { p.Prices[0].Price = decimal.Zero },
			expectError: true,
			field:       "Price",
		},
		{
			name: "discount without original price",
			mutate: func(p *models.Product) {
				p.Prices[1].OriginalPrice = decimal.NullDecimal{}
			},
			expectError: true,
			field:       "OriginalPrice",
		},
		{
			name: "discount that does not add up",
			mutate: func(p *models.Product) {
				p.Prices[1].Discount = decimal.NewNullDecimal(decimal.NewFromInt(150))
			},
			expectError: true,
			field:       "Discount",
		},
		{
			name: "discount within cent tolerance",
			mutate: func(p *models.Product) {
				p.Prices[1].Discount = decimal.NewNullDecimal(decimal.RequireFromString("99.99"))
			},
		},
		{
			name: "zero discount is not checked",
			mutate: func(p *models.Product) {
				p.Prices[1].OriginalPrice = decimal.NullDecimal{}
				p.Prices[1].Discount = decimal.NewNullDecimal(decimal.Zero)
			},
		},
		{
			name:        "kind without payload",
			mutate:      func(p *models.Product) { p.Kind = models.KindPerishable },
			expectError: true,
			field:       "Kind",
		},
		{
			name:        "unknown kind",
			mutate:      func(p *models.Product) { p.Kind = "service" },
			expectError: true,
			field:       "Kind",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := validLaptop()
			tc.mutate(&p)

			err := v.ValidateProduct(&p)

			if !tc.expectError {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, models.ErrInvalidProduct)
			assert.Contains(t, err.Error(), tc.field)
		})
	}
}

func TestValidation_AlertRequest(t *testing.T) {
	v := models.NewValidation()

	err := v.Validate(models.AlertRequest{ProductID: "laptop-1", UserID: "7", TargetPrice: decimal.NewFromInt(1)})
	require.NoError(t, err)

	err = v.Validate(models.AlertRequest{TargetPrice: decimal.NewFromInt(1)})
	var verrs models.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
}

func TestValidation_SearchFiltersSortKey(t *testing.T) {
	v := models.NewValidation()

	require.NoError(t, v.Validate(models.SearchFilters{}))
	require.NoError(t, v.Validate(models.SearchFilters{SortBy: models.SortNameDesc}))
	require.Error(t, v.Validate(models.SearchFilters{SortBy: "rating"}))
}
