package bot

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/Houeta/pricewatch/internal/catalog"
	"github.com/Houeta/pricewatch/internal/models"
	"github.com/Houeta/pricewatch/internal/pricing"
	"github.com/Houeta/pricewatch/internal/repository"
	"github.com/Houeta/pricewatch/internal/services/alerts"
	"github.com/shopspring/decimal"
	"gopkg.in/telebot.v4"
)

var (
	errUnknownFilter   = errors.New("unknown filter")
	errUnknownCategory = errors.New("unknown category")
	errBadPrice        = errors.New("price must be a non-negative number")
	errPriceRange      = errors.New("min must not exceed max")
)

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	b.log.Info("User started the bot", "username", senderName(ctx))

	if err := ctx.Send(msgHelp); err != nil {
		return fmt.Errorf("failed to send greeting message: %w", err)
	}

	return nil
}

// searchHandler process command /search <text> [key=value...].
func (b *Bot) searchHandler(ctx telebot.Context) error {
	filters, err := parseSearchArgs(ctx.Args())
	if err != nil {
		return reply(ctx, "Cannot search: "+err.Error())
	}

	session := b.session(ctx.Chat())
	seq := session.Issue(context.Background(), filters)
	b.log.Debug("search issued", "chat_id", ctx.Chat().ID, "seq", seq, "active_filters", filters.ActiveCount())

	return reply(ctx, msgSearching)
}

// filtersHandler process command /filters [category].
func (b *Bot) filtersHandler(ctx telebot.Context) error {
	args := ctx.Args()
	if len(args) > 1 {
		return reply(ctx, "Usage: /filters [laptop|grocery]")
	}

	var category models.CategoryTag
	if len(args) == 1 {
		category = models.CategoryTag(args[0])
		if category != models.CategoryLaptop && category != models.CategoryGrocery {
			return reply(ctx, fmt.Sprintf("Cannot list filters: %s %q", errUnknownCategory, args[0]))
		}
	}

	products, err := b.catalog.FetchCatalog(context.Background())
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}

	return reply(ctx, formatFacets(category, catalog.AvailableFacets(products, category)))
}

// productHandler process command /product <id>.
func (b *Bot) productHandler(ctx telebot.Context) error {
	args := ctx.Args()
	if len(args) != 1 {
		return reply(ctx, "Usage: /product <product id>")
	}

	product, err := b.session(ctx.Chat()).Lookup(context.Background(), args[0])
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return reply(ctx, fmt.Sprintf("Product %q not found.", args[0]))
	case err != nil:
		return fmt.Errorf("failed to look up product: %w", err)
	}

	return reply(ctx, formatProduct(product))
}

// alertHandler process command /alert <product id> <target> [vendor id].
func (b *Bot) alertHandler(ctx telebot.Context) error {
	args := ctx.Args()
	if len(args) < 2 || len(args) > 3 {
		return reply(ctx, "Usage: /alert <product id> <target price> [vendor id]")
	}

	target, err := parsePrice(args[1])
	if err != nil {
		return reply(ctx, "Cannot create alert: "+err.Error())
	}

	req := models.AlertRequest{ProductID: args[0], UserID: userID(ctx), TargetPrice: target}
	if len(args) == 3 {
		req.VendorID = args[2]
	}

	alert, err := b.alerts.Create(context.Background(), req)
	switch {
	case alerts.IsUserError(err):
		return reply(ctx, "Cannot create alert: "+userMessage(err))
	case err != nil:
		return fmt.Errorf("failed to create alert: %w", err)
	}

	return reply(ctx, "Alert created.\n"+formatAlert(alert))
}

// alertsHandler process command /alerts.
func (b *Bot) alertsHandler(ctx telebot.Context) error {
	list, err := b.alerts.List(context.Background(), userID(ctx))
	if err != nil {
		return fmt.Errorf("failed to list alerts: %w", err)
	}

	return reply(ctx, formatAlerts(list))
}

// unalertHandler process command /unalert <alert id>.
func (b *Bot) unalertHandler(ctx telebot.Context) error {
	args := ctx.Args()
	if len(args) != 1 {
		return reply(ctx, "Usage: /unalert <alert id>")
	}

	err := b.alerts.Remove(context.Background(), userID(ctx), args[0])
	switch {
	case errors.Is(err, repository.ErrAlertNotFound):
		return reply(ctx, fmt.Sprintf("Alert %q not found.", args[0]))
	case err != nil:
		return fmt.Errorf("failed to remove alert: %w", err)
	}

	return reply(ctx, "Alert removed.")
}

// resetAlertHandler process command /resetalert <alert id>.
func (b *Bot) resetAlertHandler(ctx telebot.Context) error {
	args := ctx.Args()
	if len(args) != 1 {
		return reply(ctx, "Usage: /resetalert <alert id>")
	}

	alert, err := b.alerts.Reset(context.Background(), userID(ctx), args[0])
	switch {
	case errors.Is(err, repository.ErrAlertNotFound):
		return reply(ctx, fmt.Sprintf("Alert %q not found.", args[0]))
	case err != nil:
		return fmt.Errorf("failed to reset alert: %w", err)
	}

	return reply(ctx, "Alert is watching again.\n"+formatAlert(alert))
}

func reply(ctx telebot.Context, text string) error {
	if err := ctx.Send(text); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

func userID(ctx telebot.Context) string {
	if sender := ctx.Sender(); sender != nil {
		return strconv.FormatInt(sender.ID, 10)
	}
	return ""
}

func senderName(ctx telebot.Context) string {
	if sender := ctx.Sender(); sender != nil {
		return sender.Username
	}
	return ""
}

// parseSearchArgs turns command arguments into filters. key=value tokens set
// filters, everything else is search text. Underscores in values stand for
// spaces, so "vendor=Best_Buy" selects "Best Buy".
func parseSearchArgs(args []string) (models.SearchFilters, error) {
	var (
		text     []string
		brands   []string
		vendors  []string
		query    = url.Values{}
		priceMin decimal.NullDecimal
		priceMax decimal.NullDecimal
		sortBy   = models.DefaultSort
	)

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			text = append(text, arg)
			continue
		}
		value = strings.ReplaceAll(value, "_", " ")

		switch strings.ToLower(key) {
		case "category":
			switch models.CategoryTag(value) {
			case models.CategoryLaptop, models.CategoryGrocery:
				query.Set("category", value)
			default:
				return models.SearchFilters{}, fmt.Errorf("%w %q", errUnknownCategory, value)
			}
		case "min":
			p, err := parsePrice(value)
			if err != nil {
				return models.SearchFilters{}, err
			}
			priceMin = decimal.NewNullDecimal(p)
		case "max":
			p, err := parsePrice(value)
			if err != nil {
				return models.SearchFilters{}, err
			}
			priceMax = decimal.NewNullDecimal(p)
		case "brand":
			brands = append(brands, value)
		case "vendor":
			vendors = append(vendors, value)
		case "sort":
			parsed, err := models.ParseSortBy(value)
			if err != nil {
				return models.SearchFilters{}, err
			}
			sortBy = parsed
		default:
			return models.SearchFilters{}, fmt.Errorf("%w %q", errUnknownFilter, key)
		}
	}

	if priceMin.Valid && priceMax.Valid && priceMin.Decimal.GreaterThan(priceMax.Decimal) {
		return models.SearchFilters{}, errPriceRange
	}

	query.Set("q", strings.Join(text, " "))
	filters := models.NewSearchFilters(models.ParseCriteria(query))
	filters.PriceMin = priceMin
	filters.PriceMax = priceMax
	filters.SortBy = sortBy
	for _, brand := range brands {
		if !slices.Contains(filters.Brands, brand) {
			filters.ToggleBrand(brand)
		}
	}
	for _, vendor := range vendors {
		if !slices.Contains(filters.Vendors, vendor) {
			filters.ToggleVendor(vendor)
		}
	}

	return filters, nil
}

func parsePrice(s string) (decimal.Decimal, error) {
	p, err := decimal.NewFromString(strings.TrimPrefix(s, "$"))
	if err != nil || p.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", errBadPrice, s)
	}
	return p, nil
}

// userMessage strips the operation prefixes from a user facing error.
func userMessage(err error) string {
	var verrs models.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return verrs.Error()
	case errors.Is(err, repository.ErrProductNotFound):
		return "product not found"
	}

	msg := err.Error()
	if i := strings.Index(msg, pricing.ErrInvalidAlertTarget.Error()); i >= 0 {
		return msg[i:]
	}
	return msg
}
