// Package search runs catalog queries for a single user session and makes
// sure the caller only ever sees the result of the newest query.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Houeta/pricewatch/internal/catalog"
	"github.com/Houeta/pricewatch/internal/models"
	"github.com/Houeta/pricewatch/internal/repository"
)

// ProductFetcher is the read-only catalog access the session depends on.
type ProductFetcher interface {
	FetchCatalog(ctx context.Context) ([]models.Product, error)
	FetchProductByID(ctx context.Context, id string) (*models.Product, error)
}

// Result is what a completed query delivers. Err is set when fetching the
// catalog failed for the newest query.
type Result struct {
	Seq      uint64
	Filters  models.SearchFilters
	Products []models.Product
	Err      error
}

// DeliverFunc receives results. Calls are serialized.
type DeliverFunc func(Result)

// Option configures a Session.
type Option func(*Session)

// WithTimeout bounds every catalog fetch. A fetch that runs out of time is
// dropped like a superseded one.
func WithTimeout(d time.Duration) Option {
	return func(s *Session) { s.timeout = d }
}

// WithPopularity supplies the score used by the popularity sort.
func WithPopularity(fn catalog.PopularityFunc) Option {
	return func(s *Session) { s.popularity = fn }
}

// Session sequences queries against a latent catalog. Each query gets a
// number from a per-session counter and its result is delivered only if no
// newer query was issued in the meantime.
type Session struct {
	log        *slog.Logger
	fetcher    ProductFetcher
	deliver    DeliverFunc
	timeout    time.Duration
	popularity catalog.PopularityFunc

	mu       sync.Mutex
	latest   uint64
	inFlight bool

	// deliverMu serializes deliveries; it is never held together with mu
	// while calling out, so deliver may issue a new query.
	deliverMu sync.Mutex
	wg        sync.WaitGroup
}

// NewSession creates a session delivering results to deliver.
func NewSession(log *slog.Logger, fetcher ProductFetcher, deliver DeliverFunc, opts ...Option) *Session {
	s := &Session{log: log, fetcher: fetcher, deliver: deliver}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue starts a query and returns its sequence number. The fetch runs in
// the background and is not cancelled when ctx is, nor when a newer query
// supersedes it; its result is simply dropped.
func (s *Session) Issue(ctx context.Context, filters models.SearchFilters) uint64 {
	s.mu.Lock()
	s.latest++
	seq := s.latest
	s.inFlight = true
	s.mu.Unlock()

	s.log.DebugContext(ctx, "query issued", "op", "search.Issue", "seq", seq, "text", filters.Text)

	s.wg.Add(1)
	go s.run(context.WithoutCancel(ctx), seq, filters)

	return seq
}

// InFlight reports whether the newest query has neither been delivered nor dropped.
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// Latest returns the sequence number of the newest issued query.
func (s *Session) Latest() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

// Wait blocks until every issued query has finished.
func (s *Session) Wait() {
	s.wg.Wait()
}

// Lookup fetches a single product. A miss is reported as repository.ErrProductNotFound.
func (s *Session) Lookup(ctx context.Context, id string) (*models.Product, error) {
	const opn = "search.Lookup"

	product, err := s.fetcher.FetchProductByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrProductNotFound), err == nil && product == nil:
		return nil, repository.ErrProductNotFound
	case err != nil:
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return product, nil
}

func (s *Session) run(ctx context.Context, seq uint64, filters models.SearchFilters) {
	const opn = "search.run"
	defer s.wg.Done()
	log := s.log.With("op", opn, "seq", seq)

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res := Result{Seq: seq, Filters: filters}

	products, err := s.fetcher.FetchCatalog(ctx)
	switch {
	case err != nil && s.timeout > 0 && errors.Is(err, context.DeadlineExceeded):
		log.WarnContext(ctx, "catalog fetch timed out, dropping query", "timeout", s.timeout)
		s.complete(ctx, res, false)
		return
	case err != nil:
		res.Err = fmt.Errorf("%s: fetch catalog: %w", opn, err)
	default:
		matched := catalog.Filter(products, filters)
		res.Products = catalog.Sort(matched, filters.SortBy, s.popularity)
	}

	s.complete(ctx, res, true)
}

// complete clears the in-flight flag for the newest query and hands its
// result to the caller when deliverable. Older results are dropped.
func (s *Session) complete(ctx context.Context, res Result, deliverable bool) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	s.mu.Lock()
	current := res.Seq == s.latest
	if current {
		s.inFlight = false
	}
	s.mu.Unlock()

	if !current {
		s.log.DebugContext(ctx, "stale result discarded", "op", "search.complete", "seq", res.Seq)
		return
	}
	if !deliverable {
		return
	}

	s.deliver(res)
}
