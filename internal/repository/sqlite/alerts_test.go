package sqlite_test

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Houeta/pricewatch/internal/models"
	"github.com/Houeta/pricewatch/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alertColumns = []string{
	"id", "product_id", "user_id", "target_price", "vendor_id", "created_at",
	"is_active", "triggered", "triggered_at",
}

func testAlert(id, userID string, created time.Time) *models.PriceAlert {
	return &models.PriceAlert{
		ID:          id,
		ProductID:   "laptop-1",
		UserID:      userID,
		TargetPrice: decimal.RequireFromString("2299.50"),
		CreatedAt:   created,
		IsActive:    true,
	}
}

// =============================================================================
// Integration Tests (using a real temporary database)
// =============================================================================

func TestRepository_Integration_AlertLifecycle(t *testing.T) {
	repo := newTestDB(t)
	ctx := t.Context()
	base := time.Date(2023, 8, 10, 9, 0, 0, 0, time.UTC)

	first := testAlert("a-1", "100", base)
	second := testAlert("a-2", "100", base.Add(time.Minute))
	second.VendorID = "bestbuy"
	other := testAlert("a-3", "200", base.Add(2*time.Minute))

	t.Run("save", func(t *testing.T) {
		for _, a := range []*models.PriceAlert{first, second, other} {
			require.NoError(t, repo.SaveAlert(ctx, a))
		}
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetAlert(ctx, "a-2")
		require.NoError(t, err)
		assert.Equal(t, "bestbuy", got.VendorID)
		assert.True(t, got.TargetPrice.Equal(second.TargetPrice))
		assert.True(t, got.CreatedAt.Equal(second.CreatedAt))
		assert.True(t, got.IsActive)
		assert.False(t, got.Triggered)
		assert.Nil(t, got.TriggeredAt)
	})

	t.Run("get_missing", func(t *testing.T) {
		_, err := repo.GetAlert(ctx, "nope")
		require.ErrorIs(t, err, repository.ErrAlertNotFound)
	})

	t.Run("list_by_owner", func(t *testing.T) {
		alerts, err := repo.ListUserAlerts(ctx, "100")
		require.NoError(t, err)
		require.Len(t, alerts, 2)
		assert.Equal(t, "a-1", alerts[0].ID)
		assert.Equal(t, "a-2", alerts[1].ID)
	})

	triggeredAt := base.Add(time.Hour)

	t.Run("mark_triggered_once", func(t *testing.T) {
		require.NoError(t, repo.MarkTriggered(ctx, "a-1", triggeredAt))
		require.NoError(t, repo.MarkTriggered(ctx, "a-1", triggeredAt.Add(time.Hour)))

		got, err := repo.GetAlert(ctx, "a-1")
		require.NoError(t, err)
		assert.True(t, got.Triggered)
		require.NotNil(t, got.TriggeredAt)
		assert.True(t, got.TriggeredAt.Equal(triggeredAt), "trigger time must not be overwritten")
	})

	t.Run("active_excludes_triggered", func(t *testing.T) {
		alerts, err := repo.ActiveAlerts(ctx)
		require.NoError(t, err)
		ids := []string{}
		for _, a := range alerts {
			ids = append(ids, a.ID)
		}
		assert.Equal(t, []string{"a-2", "a-3"}, ids)
	})

	t.Run("reset", func(t *testing.T) {
		require.NoError(t, repo.ResetAlert(ctx, "a-1"))

		got, err := repo.GetAlert(ctx, "a-1")
		require.NoError(t, err)
		assert.False(t, got.Triggered)
		assert.Nil(t, got.TriggeredAt)

		require.ErrorIs(t, repo.ResetAlert(ctx, "nope"), repository.ErrAlertNotFound)
	})

	t.Run("delete_only_own", func(t *testing.T) {
		require.ErrorIs(t, repo.DeleteAlert(ctx, "a-3", "100"), repository.ErrAlertNotFound)
		require.NoError(t, repo.DeleteAlert(ctx, "a-3", "200"))

		_, err := repo.GetAlert(ctx, "a-3")
		require.ErrorIs(t, err, repository.ErrAlertNotFound)
	})
}

// =============================================================================
// Unit Tests (using sqlmock for failure scenarios)
// =============================================================================

func TestSaveAlert(t *testing.T) {
	ctx := t.Context()
	alert := testAlert("a-1", "100", time.Now())

	t.Run("error: exec query", func(t *testing.T) {
		// Arrange
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("INSERT INTO alerts").WillReturnError(assert.AnError)

		// Act
		err := repo.SaveAlert(ctx, alert)

		// Assert
		require.ErrorContains(t, err, "repository.sqlite.SaveAlert")
		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("success", func(t *testing.T) {
		// Arrange
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("INSERT INTO alerts").
			WithArgs("a-1", "laptop-1", "100", "2299.5", "", sqlmock.AnyArg(), true, false, nil).
			WillReturnResult(sqlmock.NewResult(1, 1))

		// Act
		err := repo.SaveAlert(ctx, alert)

		// Assert
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetAlert(t *testing.T) {
	ctx := t.Context()

	t.Run("error: query", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectQuery("SELECT (.+) FROM alerts WHERE id").WillReturnError(assert.AnError)

		_, err := repo.GetAlert(ctx, "a-1")

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "repository.sqlite.GetAlert")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("triggered alert", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		at := time.Date(2023, 8, 18, 0, 0, 0, 0, time.UTC)
		rows := sqlmock.NewRows(alertColumns).
			AddRow("a-1", "laptop-1", "100", "2299", "", at, true, true, at)
		mock.ExpectQuery("SELECT (.+) FROM alerts WHERE id").WithArgs("a-1").WillReturnRows(rows)

		got, err := repo.GetAlert(ctx, "a-1")

		require.NoError(t, err)
		assert.True(t, got.Triggered)
		require.NotNil(t, got.TriggeredAt)
		assert.Equal(t, at, *got.TriggeredAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListAlerts_Failures(t *testing.T) {
	ctx := t.Context()

	t.Run("list: query error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectQuery("SELECT (.+) FROM alerts WHERE user_id").WillReturnError(assert.AnError)

		_, err := repo.ListUserAlerts(ctx, "100")

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "repository.sqlite.ListUserAlerts")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("active: scan error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		rows := sqlmock.NewRows(alertColumns).
			AddRow("a-1", "laptop-1", "100", "bad", "", time.Now(), true, false, nil)
		mock.ExpectQuery("SELECT (.+) FROM alerts WHERE is_active").WillReturnRows(rows)

		_, err := repo.ActiveAlerts(ctx)

		require.ErrorContains(t, err, "failed to scan alert")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("active: rows error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		rows := sqlmock.NewRows(alertColumns).
			AddRow("a-1", "laptop-1", "100", "1", "", time.Now(), true, false, nil).
			RowError(0, assert.AnError)
		mock.ExpectQuery("SELECT (.+) FROM alerts WHERE is_active").WillReturnRows(rows)

		_, err := repo.ActiveAlerts(ctx)

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "rows iteration error")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAlertUpdates_Failures(t *testing.T) {
	ctx := t.Context()

	t.Run("mark triggered: exec error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("UPDATE alerts SET triggered = 1").WillReturnError(assert.AnError)

		err := repo.MarkTriggered(ctx, "a-1", time.Now())

		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reset: exec error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("UPDATE alerts SET triggered = 0").WillReturnError(assert.AnError)

		err := repo.ResetAlert(ctx, "a-1")

		require.ErrorIs(t, err, assert.AnError)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete: rows affected error", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("DELETE FROM alerts").
			WithArgs("a-1", "100").
			WillReturnResult(sqlmock.NewErrorResult(assert.AnError))

		err := repo.DeleteAlert(ctx, "a-1", "100")

		require.ErrorIs(t, err, assert.AnError)
		require.ErrorContains(t, err, "failed to read affected rows")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete: nothing deleted", func(t *testing.T) {
		repo, mock := newMockedRepo(t)
		mock.ExpectExec("DELETE FROM alerts").WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteAlert(ctx, "a-1", "100")

		require.ErrorIs(t, err, repository.ErrAlertNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
