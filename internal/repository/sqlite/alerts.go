package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/Houeta/pricewatch/internal/repository"
)

const selectAlertsQuery = `SELECT id, product_id, user_id, target_price, vendor_id, created_at,
	is_active, triggered, triggered_at FROM alerts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (models.PriceAlert, error) {
	var (
		a           models.PriceAlert
		triggeredAt sql.NullTime
	)
	err := row.Scan(
		&a.ID,
		&a.ProductID,
		&a.UserID,
		&a.TargetPrice,
		&a.VendorID,
		&a.CreatedAt,
		&a.IsActive,
		&a.Triggered,
		&triggeredAt,
	)
	if err != nil {
		return models.PriceAlert{}, err
	}
	if triggeredAt.Valid {
		at := triggeredAt.Time
		a.TriggeredAt = &at
	}
	return a, nil
}

// SaveAlert inserts a new alert.
func (r *Repository) SaveAlert(ctx context.Context, alert *models.PriceAlert) error {
	const opn = "repository.sqlite.SaveAlert"

	var triggeredAt sql.NullTime
	if alert.TriggeredAt != nil {
		triggeredAt = sql.NullTime{Time: *alert.TriggeredAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO alerts
		(id, product_id, user_id, target_price, vendor_id, created_at, is_active, triggered, triggered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		alert.ID,
		alert.ProductID,
		alert.UserID,
		alert.TargetPrice,
		alert.VendorID,
		alert.CreatedAt,
		alert.IsActive,
		alert.Triggered,
		triggeredAt,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	return nil
}

// GetAlert returns the alert with the given id or repository.ErrAlertNotFound.
func (r *Repository) GetAlert(ctx context.Context, id string) (*models.PriceAlert, error) {
	const opn = "repository.sqlite.GetAlert"

	alert, err := scanAlert(r.db.QueryRowContext(ctx, selectAlertsQuery+" WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrAlertNotFound
		}
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return &alert, nil
}

// ListUserAlerts returns the alerts owned by userID, oldest first.
func (r *Repository) ListUserAlerts(ctx context.Context, userID string) ([]models.PriceAlert, error) {
	const opn = "repository.sqlite.ListUserAlerts"

	alerts, err := r.queryAlerts(ctx, selectAlertsQuery+" WHERE user_id = ? ORDER BY created_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return alerts, nil
}

// ActiveAlerts returns every alert that is still waiting for its price.
func (r *Repository) ActiveAlerts(ctx context.Context) ([]models.PriceAlert, error) {
	const opn = "repository.sqlite.ActiveAlerts"

	alerts, err := r.queryAlerts(ctx, selectAlertsQuery+" WHERE is_active = 1 AND triggered = 0 ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return alerts, nil
}

// MarkTriggered records the first trigger of an alert. An alert that already
// triggered keeps its original trigger time.
func (r *Repository) MarkTriggered(ctx context.Context, id string, at time.Time) error {
	const opn = "repository.sqlite.MarkTriggered"

	_, err := r.db.ExecContext(ctx,
		"UPDATE alerts SET triggered = 1, triggered_at = ? WHERE id = ? AND triggered = 0", at, id)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	return nil
}

// ResetAlert puts a triggered alert back to watching.
func (r *Repository) ResetAlert(ctx context.Context, id string) error {
	const opn = "repository.sqlite.ResetAlert"

	res, err := r.db.ExecContext(ctx,
		"UPDATE alerts SET triggered = 0, triggered_at = NULL, is_active = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	return expectAffected(opn, res)
}

// DeleteAlert removes an alert owned by userID.
func (r *Repository) DeleteAlert(ctx context.Context, id, userID string) error {
	const opn = "repository.sqlite.DeleteAlert"

	res, err := r.db.ExecContext(ctx, "DELETE FROM alerts WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	return expectAffected(opn, res)
}

func (r *Repository) queryAlerts(ctx context.Context, query string, args ...any) ([]models.PriceAlert, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []models.PriceAlert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return alerts, nil
}

func expectAffected(opn string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to read affected rows: %w", opn, err)
	}
	if n == 0 {
		return repository.ErrAlertNotFound
	}
	return nil
}
