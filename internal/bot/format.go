package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/Houeta/pricewatch/internal/catalog"
	"github.com/Houeta/pricewatch/internal/models"
	"github.com/Houeta/pricewatch/internal/pricing"
	"github.com/shopspring/decimal"
)

const maxResults = 10

const (
	msgSearching    = "Searching..."
	msgSearchFailed = "Search failed, please try again later."
	msgHelp         = `Hello! I compare prices across vendors and watch them for you.

/search <text> [category=laptop|grocery] [min=<price>] [max=<price>] [brand=<name>] [vendor=<name>] [sort=price-asc|price-desc|name-asc|name-desc|popularity]
/product <product id>
/filters [laptop|grocery]
/alert <product id> <target price> [vendor id]
/alerts
/unalert <alert id>
/resetalert <alert id>

Use _ for spaces in filter values, e.g. vendor=Best_Buy.`
)

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func formatFacets(category models.CategoryTag, facets catalog.Facets) string {
	scope := "all categories"
	if category != "" {
		scope = string(category)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Filters for %s:\n", scope)
	fmt.Fprintf(&sb, "Brands: %s\n", facetValues("brand", facets.Brands))
	fmt.Fprintf(&sb, "Vendors: %s", facetValues("vendor", facets.Vendors))
	return sb.String()
}

func facetValues(key string, values []string) string {
	if len(values) == 0 {
		return "none"
	}
	tokens := make([]string, 0, len(values))
	for _, v := range values {
		tokens = append(tokens, key+"="+strings.ReplaceAll(v, " ", "_"))
	}
	return strings.Join(tokens, " ")
}

func formatResults(filters models.SearchFilters, products []models.Product) string {
	if len(products) == 0 {
		return "No products match your search."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d product(s), sorted by %s", len(products), filters.SortBy)
	if n := filters.ActiveCount(); n > 0 {
		fmt.Fprintf(&sb, ", %d filter(s) active", n)
	}
	sb.WriteString(":\n")

	for i := range products {
		if i == maxResults {
			fmt.Fprintf(&sb, "...and %d more\n", len(products)-maxResults)
			break
		}
		p := &products[i]
		fmt.Fprintf(&sb, "\n%s [%s]\n", p.Name, p.ID)

		summary, err := pricing.Summarize(p.Prices)
		if err != nil {
			sb.WriteString("  no offers\n")
			continue
		}
		sb.WriteString("  " + formatRange(summary) + "\n")
	}

	return sb.String()
}

func formatRange(s models.PriceSummary) string {
	out := money(s.LowestPrice)
	if s.HasRange {
		out += " - " + money(s.HighestPrice)
	}
	out += fmt.Sprintf(" at %d vendor(s)", s.VendorCount)
	if s.HasDiscount {
		out += ", on sale"
	}
	return out
}

func formatProduct(p *models.Product) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s [%s]\n", p.Name, p.ID)
	if p.Brand != "" {
		fmt.Fprintf(&sb, "Brand: %s\n", p.Brand)
	}
	fmt.Fprintf(&sb, "Category: %s\n", p.Category)
	if p.Description != "" {
		sb.WriteString(p.Description + "\n")
	}

	if d, ok := p.AsDurable(); ok {
		fmt.Fprintf(&sb, "Processor: %s\nMemory: %s\nStorage: %s\nDisplay: %s\nGraphics: %s\n",
			d.Processor, d.Memory, d.Storage, d.Display, d.Graphics)
	}
	if ps, ok := p.AsPerishable(); ok {
		fmt.Fprintf(&sb, "Weight: %s\n", ps.Weight)
		if ps.NutritionInfo != "" {
			fmt.Fprintf(&sb, "Nutrition: %s\n", ps.NutritionInfo)
		}
		if ps.Organic {
			sb.WriteString("Organic\n")
		}
	}

	summary, err := pricing.Summarize(p.Prices)
	if err != nil {
		sb.WriteString("\nNo offers available.")
		return sb.String()
	}

	sb.WriteString("\nPrice: " + formatRange(summary) + "\n")
	for _, vp := range p.Prices {
		sb.WriteString(formatOffer(vp) + "\n")
	}

	if best, err := pricing.BestOffer(p.Prices); err == nil {
		fmt.Fprintf(&sb, "\nBest offer: %s at %s\n", money(best.Price), best.VendorName)
	}
	fmt.Fprintf(&sb, "Watch it: /alert %s %s", p.ID, pricing.SuggestedTarget(summary).StringFixed(2))

	return sb.String()
}

func formatOffer(vp models.VendorPrice) string {
	line := fmt.Sprintf("  %s (%s): %s", vp.VendorName, vp.VendorID, money(vp.Price))
	if vp.Discount.Valid && vp.Discount.Decimal.IsPositive() && vp.OriginalPrice.Valid {
		line += fmt.Sprintf(", was %s, save %s", money(vp.OriginalPrice.Decimal), money(vp.Discount.Decimal))
	}
	if !vp.InStock {
		line += ", out of stock"
	}
	return line
}

func formatAlert(a *models.PriceAlert) string {
	line := fmt.Sprintf("%s: %s at or below %s", a.ID, a.ProductID, money(a.TargetPrice))
	if a.Scoped() {
		line += " at " + a.VendorID
	}

	switch {
	case a.Triggered && a.TriggeredAt != nil:
		line += ", triggered " + a.TriggeredAt.Format(time.DateTime)
	case a.Triggered:
		line += ", triggered"
	default:
		line += ", watching"
	}
	return line
}

func formatAlerts(list []models.PriceAlert) string {
	if len(list) == 0 {
		return "You have no alerts. Create one with /alert <product id> <target price>."
	}

	lines := make([]string, 0, len(list)+1)
	lines = append(lines, "Your alerts:")
	for i := range list {
		lines = append(lines, formatAlert(&list[i]))
	}
	return strings.Join(lines, "\n")
}

func formatTriggered(a models.PriceAlert, p *models.Product, price decimal.Decimal) string {
	where := "the lowest price"
	if a.Scoped() {
		where = "the price at " + a.VendorID
	}

	return fmt.Sprintf("Price alert! %s of %s [%s] is now %s, your target was %s.\nReset with /resetalert %s",
		strings.ToUpper(where[:1])+where[1:], p.Name, p.ID, money(price), money(a.TargetPrice), a.ID)
}
