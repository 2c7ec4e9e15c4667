package checker

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/Houeta/pricewatch/internal/parser"
	"github.com/Houeta/pricewatch/internal/repository"
	"github.com/Houeta/pricewatch/internal/repository/sqlite"
	"github.com/shopspring/decimal"
)

// PriceStore is the catalog the checker writes refreshed vendor prices to.
type PriceStore interface {
	FetchProductByID(ctx context.Context, id string) (*models.Product, error)
	UpdatePrices(ctx context.Context, productID string, prices []models.VendorPrice) error
}

// Checker is an orchestrator that performs a full verification cycle of the
// vendor offer feed.
type Checker struct {
	log    *slog.Logger
	parser parser.HTMLParser
	repo   sqlite.StateRepository
	store  PriceStore

	// synced is set once the catalog holds every offer of the feed. The
	// catalog lives in memory while the snapshot survives restarts, so the
	// first check of a process reseeds it from the whole feed.
	synced atomic.Bool
}

// NewChecker creates a new Checker instance.
func NewChecker(log *slog.Logger, parser parser.HTMLParser, repo sqlite.StateRepository, store PriceStore) *Checker {
	return &Checker{log: log, parser: parser, repo: repo, store: store}
}

// CheckForUpdates downloads the feed, diffs it against the stored snapshot,
// merges the differences into the catalog and stores the new snapshot.
// The first successful check of a Checker upserts every feed offer and
// reports them all as added.
func (c *Checker) CheckForUpdates(ctx context.Context) (*models.Changes, error) {
	const opn = "checker.CheckForUpdates"
	log := c.log.With("op", opn)

	// 1. Retrieving HTML and calculating a new hash
	log.InfoContext(ctx, "Fetching offer feed to check for updates")
	resp, err := c.parser.GetHTMLResponse(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get html response: %w", opn, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response body: %w", opn, err)
	}

	newPageHash := calculateHash(body)
	log.DebugContext(ctx, "Calculated new page hash", "hash", newPageHash)

	// 2. Getting the old snapshot from the database
	oldState, err := c.repo.GetState(ctx)
	if err != nil && !errors.Is(err, repository.ErrStateNotFound) {
		return nil, fmt.Errorf("%s: failed to get old state: %w", opn, err)
	}

	// 3. Hash comparison
	seeding := !c.synced.Load()
	if err == nil && oldState.PageHash == newPageHash && !seeding {
		log.InfoContext(ctx, "Page hash has not changed. No updates.")
		return &models.Changes{}, nil
	}
	log.InfoContext(ctx, "Page hash differs or catalog not synced. Starting full analysis...", "seeding", seeding)

	// 4. Full page parsing
	newOffers, err := c.parser.ParseOfferTable(ctx, io.NopCloser(bytes.NewReader(body)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse offers from new response: %w", opn, err)
	}
	log.InfoContext(ctx, "Successfully parsed offers", "count", len(newOffers))

	// 5. Offer list comparison
	var oldOffers []models.Offer
	if oldState != nil {
		oldOffers = oldState.Offers
	}
	changes := detectChanges(oldOffers, newOffers)
	if seeding {
		changes = models.Changes{Added: newOffers, Removed: changes.Removed}
	}
	log.InfoContext(
		ctx,
		"Change detection complete",
		"added", len(changes.Added),
		"removed", len(changes.Removed),
		"changed", len(changes.Changed),
	)

	// 6. Merging the differences into the catalog. The snapshot is only
	// stored afterwards so a failed merge is retried on the next run.
	if err = c.applyChanges(ctx, &changes); err != nil {
		return nil, fmt.Errorf("%s: failed to apply changes: %w", opn, err)
	}

	// 7. Updating the database and returning the result
	newState := &models.State{
		PageHash: newPageHash,
		Offers:   newOffers,
	}

	if err = c.repo.UpdateState(ctx, newState); err != nil {
		return nil, fmt.Errorf("%s: failed to update state in repository: %w", opn, err)
	}
	log.InfoContext(ctx, "Successfully updated state in repository")
	c.synced.Store(true)

	return &changes, nil
}

// applyChanges upserts added and changed offers and drops removed ones,
// one catalog write per affected product.
func (c *Checker) applyChanges(ctx context.Context, changes *models.Changes) error {
	const opn = "checker.applyChanges"
	log := c.log.With("op", opn)

	upserts := make(map[string][]models.VendorPrice)
	removals := make(map[string][]string)
	affected := make(map[string]struct{})

	for _, o := range changes.Added {
		upserts[o.ProductID] = append(upserts[o.ProductID], o.Price)
		affected[o.ProductID] = struct{}{}
	}
	for _, ch := range changes.Changed {
		upserts[ch.New.ProductID] = append(upserts[ch.New.ProductID], ch.New.Price)
		affected[ch.New.ProductID] = struct{}{}
	}
	for _, o := range changes.Removed {
		removals[o.ProductID] = append(removals[o.ProductID], o.Price.VendorID)
		affected[o.ProductID] = struct{}{}
	}

	for _, productID := range slices.Sorted(maps.Keys(affected)) {
		product, err := c.store.FetchProductByID(ctx, productID)
		if errors.Is(err, repository.ErrProductNotFound) {
			log.WarnContext(ctx, "feed references unknown product", "product_id", productID)
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: fetch product %s: %w", opn, productID, err)
		}

		prices := mergePrices(product.Prices, upserts[productID], removals[productID])
		if len(prices) == 0 {
			log.WarnContext(ctx, "skipping update that would leave product without offers", "product_id", productID)
			continue
		}

		err = c.store.UpdatePrices(ctx, productID, prices)
		switch {
		case errors.Is(err, models.ErrInvalidProduct):
			log.WarnContext(ctx, "feed offers rejected", "product_id", productID, "error", err)
		case err != nil:
			return fmt.Errorf("%s: update prices of %s: %w", opn, productID, err)
		default:
			log.DebugContext(ctx, "prices refreshed", "product_id", productID, "vendors", len(prices))
		}
	}

	return nil
}

// mergePrices returns current with upserts applied by vendor id and the
// removed vendors dropped. Existing vendors keep their position.
func mergePrices(current, upserts []models.VendorPrice, removed []string) []models.VendorPrice {
	merged := make([]models.VendorPrice, 0, len(current)+len(upserts))
	for _, vp := range current {
		if slices.Contains(removed, vp.VendorID) {
			continue
		}
		merged = append(merged, vp)
	}

	for _, up := range upserts {
		idx := slices.IndexFunc(merged, func(vp models.VendorPrice) bool { return vp.VendorID == up.VendorID })
		if idx >= 0 {
			merged[idx] = up
			continue
		}
		merged = append(merged, up)
	}

	return merged
}

// calculateHash calculates the SHA256 hash for a slice of bytes.
func calculateHash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// detectChanges compares two offer lists and finds the difference.
func detectChanges(oldOffers, newOffers []models.Offer) models.Changes {
	oldMap := make(map[string]models.Offer, len(oldOffers))
	for _, o := range oldOffers {
		oldMap[o.Key()] = o
	}

	newMap := make(map[string]models.Offer, len(newOffers))
	for _, o := range newOffers {
		newMap[o.Key()] = o
	}

	var changes models.Changes
	for key, newOffer := range newMap {
		oldOffer, found := oldMap[key]
		if found {
			if offerChanged(oldOffer.Price, newOffer.Price) {
				changes.Changed = append(changes.Changed, models.OfferChange{Old: oldOffer, New: newOffer})
			}
			delete(oldMap, key)
		} else {
			changes.Added = append(changes.Added, newOffer)
		}
	}

	for _, removedOffer := range oldMap {
		changes.Removed = append(changes.Removed, removedOffer)
	}
	return changes
}

// offerChanged ignores LastUpdated, which moves on every fetch.
func offerChanged(a, b models.VendorPrice) bool {
	return !a.Price.Equal(b.Price) ||
		!nullEqual(a.OriginalPrice, b.OriginalPrice) ||
		!nullEqual(a.Discount, b.Discount) ||
		a.InStock != b.InStock ||
		a.VendorName != b.VendorName ||
		a.URL != b.URL
}

func nullEqual(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Decimal.Equal(b.Decimal)
}
