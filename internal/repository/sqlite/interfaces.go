package sqlite

import (
	"context"
	"time"

	"github.com/Houeta/pricewatch/internal/models"
)

// StateRepository persists the last seen offer feed snapshot.
type StateRepository interface {
	GetState(ctx context.Context) (*models.State, error)
	UpdateState(ctx context.Context, state *models.State) error
}

// AlertRepository persists price alerts.
type AlertRepository interface {
	SaveAlert(ctx context.Context, alert *models.PriceAlert) error
	GetAlert(ctx context.Context, id string) (*models.PriceAlert, error)
	ListUserAlerts(ctx context.Context, userID string) ([]models.PriceAlert, error)
	ActiveAlerts(ctx context.Context) ([]models.PriceAlert, error)
	MarkTriggered(ctx context.Context, id string, at time.Time) error
	ResetAlert(ctx context.Context, id string) error
	DeleteAlert(ctx context.Context, id, userID string) error
}

var (
	_ StateRepository = (*Repository)(nil)
	_ AlertRepository = (*Repository)(nil)
)
