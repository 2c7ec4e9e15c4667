// Package memory provides the read-mostly catalog provider backed by a
// fixed product list held in memory.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/Houeta/pricewatch/internal/repository"
)

// Catalog serves products from memory with a simulated access latency.
// Callers always receive deep copies.
type Catalog struct {
	mu       sync.RWMutex
	products []models.Product
	latency  time.Duration
	valid    *models.Validation
	log      *slog.Logger
}

// NewCatalog validates products and returns a catalog serving them.
func NewCatalog(log *slog.Logger, products []models.Product, latency time.Duration) (*Catalog, error) {
	const opn = "repository.memory.NewCatalog"

	valid := models.NewValidation()
	seen := make(map[string]struct{}, len(products))
	stored := make([]models.Product, 0, len(products))
	for i := range products {
		if err := valid.ValidateProduct(&products[i]); err != nil {
			return nil, fmt.Errorf("%s: %w", opn, err)
		}
		if _, dup := seen[products[i].ID]; dup {
			return nil, fmt.Errorf("%s: %w %s: duplicate id", opn, models.ErrInvalidProduct, products[i].ID)
		}
		seen[products[i].ID] = struct{}{}
		stored = append(stored, products[i].Clone())
	}

	return &Catalog{products: stored, latency: latency, valid: valid, log: log}, nil
}

// NewFixtureCatalog returns a catalog preloaded with the built-in products.
func NewFixtureCatalog(log *slog.Logger, latency time.Duration) (*Catalog, error) {
	return NewCatalog(log, Fixture(), latency)
}

// FetchCatalog returns every product.
func (c *Catalog) FetchCatalog(ctx context.Context) ([]models.Product, error) {
	const opn = "repository.memory.FetchCatalog"

	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Product, len(c.products))
	for i := range c.products {
		out[i] = c.products[i].Clone()
	}

	c.log.DebugContext(ctx, "catalog fetched", "op", opn, "count", len(out))
	return out, nil
}

// FetchProductByID returns the product with the given id or repository.ErrProductNotFound.
func (c *Catalog) FetchProductByID(ctx context.Context, id string) (*models.Product, error) {
	const opn = "repository.memory.FetchProductByID"

	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := c.indexOf(id)
	if idx < 0 {
		return nil, repository.ErrProductNotFound
	}
	p := c.products[idx].Clone()
	return &p, nil
}

// UpdatePrices replaces the vendor prices of a product. The update is
// rejected when the resulting product would break the catalog invariants.
func (c *Catalog) UpdatePrices(ctx context.Context, productID string, prices []models.VendorPrice) error {
	const opn = "repository.memory.UpdatePrices"

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.indexOf(productID)
	if idx < 0 {
		return repository.ErrProductNotFound
	}

	updated := c.products[idx].Clone()
	updated.Prices = append([]models.VendorPrice(nil), prices...)
	updated.UpdatedAt = time.Now()
	if err := c.valid.ValidateProduct(&updated); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	c.products[idx] = updated
	c.log.DebugContext(ctx, "prices updated", "op", opn, "product_id", productID, "vendors", len(prices))
	return nil
}

func (c *Catalog) indexOf(id string) int {
	for i := range c.products {
		if c.products[i].ID == id {
			return i
		}
	}
	return -1
}

// wait simulates the access latency and gives up when ctx is done.
func (c *Catalog) wait(ctx context.Context) error {
	if c.latency <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(c.latency)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
