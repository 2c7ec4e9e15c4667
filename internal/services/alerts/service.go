// Package alerts manages users' price alerts: creation against live prices,
// ownership checked removal and reset, and periodic evaluation.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/Houeta/pricewatch/internal/pricing"
	"github.com/Houeta/pricewatch/internal/repository"
	"github.com/Houeta/pricewatch/internal/repository/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductFetcher is the catalog access the service reads prices from.
type ProductFetcher interface {
	FetchCatalog(ctx context.Context) ([]models.Product, error)
	FetchProductByID(ctx context.Context, id string) (*models.Product, error)
}

// Notifier tells an alert's owner that it fired.
type Notifier interface {
	NotifyTriggered(ctx context.Context, alert models.PriceAlert, product *models.Product, price decimal.Decimal) error
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the random alert id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// Service implements the alert use cases on top of the alert store.
type Service struct {
	log      *slog.Logger
	repo     sqlite.AlertRepository
	catalog  ProductFetcher
	notifier Notifier
	valid    *models.Validation
	now      func() time.Time
	newID    func() string
}

// NewService creates a Service. A notifier can be attached later with SetNotifier.
func NewService(log *slog.Logger, repo sqlite.AlertRepository, catalog ProductFetcher, opts ...Option) *Service {
	s := &Service{
		log:     log,
		repo:    repo,
		catalog: catalog,
		valid:   models.NewValidation(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetNotifier attaches the notifier. It must be called before EvaluateAll runs
// concurrently with anything else.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Create validates the request against the product's current prices and stores
// the new alert.
func (s *Service) Create(ctx context.Context, req models.AlertRequest) (*models.PriceAlert, error) {
	const opn = "alerts.Create"
	log := s.log.With("op", opn)

	if err := s.valid.Validate(&req); err != nil {
		return nil, fmt.Errorf("%s: invalid request: %w", opn, err)
	}

	product, err := s.catalog.FetchProductByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	if product == nil {
		return nil, fmt.Errorf("%s: %w", opn, repository.ErrProductNotFound)
	}

	alert, err := pricing.NewAlert(req, product, s.newID(), s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	if err = s.repo.SaveAlert(ctx, &alert); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	log.InfoContext(ctx, "alert created",
		"alert_id", alert.ID, "product_id", alert.ProductID, "user_id", alert.UserID,
		"target", alert.TargetPrice.StringFixed(2), "vendor_id", alert.VendorID)

	return &alert, nil
}

// List returns the user's alerts, oldest first.
func (s *Service) List(ctx context.Context, userID string) ([]models.PriceAlert, error) {
	const opn = "alerts.List"

	alerts, err := s.repo.ListUserAlerts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	return alerts, nil
}

// Remove deletes an alert owned by the user.
func (s *Service) Remove(ctx context.Context, userID, id string) error {
	const opn = "alerts.Remove"

	if err := s.repo.DeleteAlert(ctx, id, userID); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	s.log.InfoContext(ctx, "alert removed", "op", opn, "alert_id", id, "user_id", userID)
	return nil
}

// Reset re-arms a triggered alert owned by the user. Alerts of other users are
// reported as not found.
func (s *Service) Reset(ctx context.Context, userID, id string) (*models.PriceAlert, error) {
	const opn = "alerts.Reset"

	alert, err := s.repo.GetAlert(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	if alert.UserID != userID {
		return nil, fmt.Errorf("%s: %w", opn, repository.ErrAlertNotFound)
	}

	reset := pricing.Reset(*alert)
	if err = s.repo.ResetAlert(ctx, id); err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	s.log.InfoContext(ctx, "alert reset", "op", opn, "alert_id", id, "user_id", userID)
	return &reset, nil
}

// EvaluateAll checks every active alert against one catalog snapshot, stores
// the alerts that fired and notifies their owners. It returns how many fired.
func (s *Service) EvaluateAll(ctx context.Context) (int, error) {
	const opn = "alerts.EvaluateAll"
	log := s.log.With("op", opn)

	active, err := s.repo.ActiveAlerts(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", opn, err)
	}
	if len(active) == 0 {
		log.DebugContext(ctx, "no active alerts")
		return 0, nil
	}

	products, err := s.catalog.FetchCatalog(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: fetch catalog: %w", opn, err)
	}
	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	observedAt := s.now().UTC()
	fired := 0
	for _, alert := range active {
		product, ok := byID[alert.ProductID]
		if !ok {
			log.WarnContext(ctx, "alert references unknown product", "alert_id", alert.ID, "product_id", alert.ProductID)
			continue
		}

		summary, err := pricing.Summarize(product.Prices)
		if err != nil {
			log.ErrorContext(ctx, "cannot evaluate alert", "alert_id", alert.ID, "product_id", product.ID, "error", err)
			continue
		}

		updated, outcome := pricing.Evaluate(alert, summary, product.Prices, observedAt)
		if outcome != pricing.Triggered {
			continue
		}

		if err = s.repo.MarkTriggered(ctx, updated.ID, *updated.TriggeredAt); err != nil {
			return fired, fmt.Errorf("%s: %w", opn, err)
		}
		fired++

		price, _ := pricing.ComparisonPrice(&updated, summary, product.Prices)
		log.InfoContext(ctx, "alert triggered",
			"alert_id", updated.ID, "product_id", product.ID, "price", price.StringFixed(2))

		s.notify(ctx, updated, product, price)
	}

	return fired, nil
}

func (s *Service) notify(ctx context.Context, alert models.PriceAlert, product *models.Product, price decimal.Decimal) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyTriggered(ctx, alert, product, price); err != nil {
		s.log.WarnContext(ctx, "failed to notify alert owner",
			"op", "alerts.notify", "alert_id", alert.ID, "user_id", alert.UserID, "error", err)
	}
}

// IsUserError reports whether err is caused by the user's input rather than
// by the system.
func IsUserError(err error) bool {
	var verrs models.ValidationErrors
	return errors.Is(err, pricing.ErrInvalidAlertTarget) ||
		errors.Is(err, repository.ErrProductNotFound) ||
		errors.Is(err, repository.ErrAlertNotFound) ||
		errors.As(err, &verrs)
}
