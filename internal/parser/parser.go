package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// HTMLParser fetches the vendor offer feed and extracts its offers.
type HTMLParser interface {
	GetHTMLResponse(ctx context.Context) (*http.Response, error)
	ParseOfferTable(ctx context.Context, inp io.ReadCloser) ([]models.Offer, error)
}

var errEmptyCell = errors.New("empty value")

// Column layout of a row in the offer table.
const (
	productIdx = iota
	vendorIdx
	vendorNameIdx
	priceIdx
	originalPriceIdx
	discountIdx
	inStockIdx
	urlIdx
	numberOfCells
)

// moneyCleaner strips the currency sign and thousands separators.
var moneyCleaner = strings.NewReplacer("$", "", ",", "", " ", "")

type Parser struct {
	log     *slog.Logger
	client  *http.Client
	destURL string
	now     func() time.Time
}

func NewParser(log *slog.Logger, destinationURL string) *Parser {
	return &Parser{log: log, destURL: destinationURL, client: http.DefaultClient, now: time.Now}
}

func (p *Parser) GetHTMLResponse(ctx context.Context) (*http.Response, error) {
	reqURL, err := url.Parse(p.destURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse destination URL %s: %w", p.destURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request %s: %w", reqURL.String(), err)
	}

	req.Header.Add("User-Agent", "Mozilla/5.0 (compatible; pricewatch/1.0)")

	p.log.DebugContext(ctx, "Send request", "method", req.Method, "URL", req.URL)

	res, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", p.destURL, err)
	}

	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("status code error: [%d] %s", res.StatusCode, res.Status)
	}

	p.log.InfoContext(ctx, "Successfully received http response", "status code", res.StatusCode)

	return res, nil
}

// ParseOfferTable reads the rows of table.offers. Rows with a wrong number of
// cells or with values that cannot be parsed are skipped with a warning.
func (p *Parser) ParseOfferTable(ctx context.Context, inp io.ReadCloser) ([]models.Offer, error) {
	doc, err := goquery.NewDocumentFromReader(inp)
	if err != nil {
		return nil, fmt.Errorf("data cannot be parsed as HTML: %w", err)
	}

	observedAt := p.now()

	var offers []models.Offer
	doc.Find("table.offers tbody tr").Each(func(idx int, s *goquery.Selection) {
		cells := s.Find("td")
		if cells.Length() != numberOfCells {
			p.log.WarnContext(ctx, "table row has unexpected number of cells", "index", idx, "length", cells.Length())
			return
		}

		cell := func(i int) string { return strings.TrimSpace(cells.Eq(i).Text()) }

		offer, err := buildOffer(cell, observedAt)
		if err != nil {
			p.log.WarnContext(ctx, "skipping malformed offer row", "index", idx, "error", err)
			return
		}

		p.log.DebugContext(
			ctx,
			"Parsed offer",
			"product", offer.ProductID,
			"vendor", offer.Price.VendorID,
			"price", offer.Price.Price.String(),
		)
		offers = append(offers, offer)
	})

	return offers, nil
}

func buildOffer(cell func(int) string, observedAt time.Time) (models.Offer, error) {
	productID, vendorID, vendorName := cell(productIdx), cell(vendorIdx), cell(vendorNameIdx)
	if productID == "" || vendorID == "" || vendorName == "" {
		return models.Offer{}, errors.New("missing product or vendor identity")
	}

	price, err := parseMoney(cell(priceIdx))
	if err != nil {
		return models.Offer{}, fmt.Errorf("price: %w", err)
	}
	if !price.IsPositive() {
		return models.Offer{}, fmt.Errorf("price: must be positive, got %s", price)
	}

	original, err := parseOptionalMoney(cell(originalPriceIdx))
	if err != nil {
		return models.Offer{}, fmt.Errorf("original price: %w", err)
	}
	discount, err := parseOptionalMoney(cell(discountIdx))
	if err != nil {
		return models.Offer{}, fmt.Errorf("discount: %w", err)
	}

	inStock, err := parseStock(cell(inStockIdx))
	if err != nil {
		return models.Offer{}, err
	}

	return models.Offer{
		ProductID: productID,
		Price: models.VendorPrice{
			VendorID:      vendorID,
			VendorName:    vendorName,
			Price:         price,
			OriginalPrice: original,
			Discount:      discount,
			InStock:       inStock,
			LastUpdated:   observedAt,
			URL:           cell(urlIdx),
		},
	}, nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	s = moneyCleaner.Replace(s)
	if s == "" {
		return decimal.Decimal{}, errEmptyCell
	}
	return decimal.NewFromString(s)
}

func parseOptionalMoney(s string) (decimal.NullDecimal, error) {
	if s == "" || s == "-" {
		return decimal.NullDecimal{}, nil
	}
	d, err := parseMoney(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func parseStock(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "in stock":
		return true, nil
	case "no", "false", "out of stock":
		return false, nil
	default:
		return false, fmt.Errorf("in stock: unexpected value %q", s)
	}
}
