// Package monitor periodically refreshes vendor prices and evaluates price
// alerts against them.
package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/pricewatch/internal/models"
)

// Checker refreshes the catalog from the vendor offer feed.
type Checker interface {
	CheckForUpdates(ctx context.Context) (*models.Changes, error)
}

// Evaluator evaluates every active alert and reports how many fired.
type Evaluator interface {
	EvaluateAll(ctx context.Context) (int, error)
}

// Monitor runs the refresh cycle on a fixed interval.
type Monitor struct {
	log       *slog.Logger
	checker   Checker
	evaluator Evaluator
	interval  time.Duration
}

// New creates a Monitor. A nil checker means prices never change from the
// outside, so every cycle only evaluates alerts.
func New(log *slog.Logger, checker Checker, evaluator Evaluator, interval time.Duration) *Monitor {
	return &Monitor{log: log, checker: checker, evaluator: evaluator, interval: interval}
}

// Run performs a cycle immediately and then once per interval until ctx is done.
// Cycle errors are logged and do not stop the loop.
func (m *Monitor) Run(ctx context.Context) {
	const opn = "monitor.Run"
	log := m.log.With("op", opn)

	log.InfoContext(ctx, "monitor started", "interval", m.interval)

	m.cycle(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.InfoContext(ctx, "monitor stopped")
			return
		case <-ticker.C:
			m.cycle(ctx)
		}
	}
}

// RunOnce refreshes prices and evaluates alerts. Evaluation is skipped when the
// feed brought no changes, except on a checker-less monitor.
func (m *Monitor) RunOnce(ctx context.Context) (int, error) {
	const opn = "monitor.RunOnce"

	if m.checker != nil {
		changes, err := m.checker.CheckForUpdates(ctx)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", opn, err)
		}
		if changes.Empty() {
			m.log.DebugContext(ctx, "no offer changes, skipping alert evaluation", "op", opn)
			return 0, nil
		}
	}

	fired, err := m.evaluator.EvaluateAll(ctx)
	if err != nil {
		return fired, fmt.Errorf("%s: %w", opn, err)
	}

	return fired, nil
}

func (m *Monitor) cycle(ctx context.Context) {
	fired, err := m.RunOnce(ctx)
	if err != nil {
		m.log.ErrorContext(ctx, "refresh cycle failed", "op", "monitor.cycle", "error", err)
		return
	}
	if fired > 0 {
		m.log.InfoContext(ctx, "alerts triggered", "op", "monitor.cycle", "count", fired)
	}
}
