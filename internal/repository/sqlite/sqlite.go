package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// Registers the sqlite3 driver used by NewRepository.
	_ "github.com/mattn/go-sqlite3"
)

// Repository stores the offer feed snapshot and the users' price alerts.
type Repository struct {
	db  *sql.DB
	log *slog.Logger
}

// NewRepository opens (or creates) the SQLite database at storagePath and
// migrates its schema.
func NewRepository(ctx context.Context, log *slog.Logger, storagePath string) (*Repository, error) {
	dtb, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", storagePath))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err = dtb.PingContext(ctx); err != nil {
		dtb.Close()
		return nil, fmt.Errorf("unable to establish connection to database: %w", err)
	}

	if err = initSchema(ctx, dtb); err != nil {
		dtb.Close()
		return nil, fmt.Errorf("DB schema initialization error: %w", err)
	}

	log.DebugContext(ctx, "database ready", "op", "repository.sqlite.NewRepository", "path", storagePath)

	return &Repository{db: dtb, log: log}, nil
}

// NewForTest wraps an already opened database, typically a sqlmock one.
func NewForTest(db *sql.DB) *Repository {
	return &Repository{db: db, log: slog.New(slog.DiscardHandler)}
}

// initSchema creates the necessary tables if they don't already exist.
func initSchema(ctx context.Context, dtb *sql.DB) error {
	const migrationQuery = `
	CREATE TABLE IF NOT EXISTS page_state (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		page_hash TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS offers (
		product_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		vendor_name TEXT NOT NULL,
		price TEXT NOT NULL,
		original_price TEXT,
		discount TEXT,
		in_stock INTEGER NOT NULL,
		last_updated TIMESTAMP NOT NULL,
		url TEXT,
		PRIMARY KEY (product_id, vendor_id)
	);

	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY NOT NULL,
		product_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		target_price TEXT NOT NULL,
		vendor_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		is_active INTEGER NOT NULL,
		triggered INTEGER NOT NULL DEFAULT 0,
		triggered_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_alerts_user ON alerts (user_id);
	`
	_, err := dtb.ExecContext(ctx, migrationQuery)
	if err != nil {
		return fmt.Errorf("failed to execute migration query: %w", err)
	}

	return nil
}

// Close closes the connection to the database.
func (r *Repository) Close() error {
	if err := r.db.Close(); err != nil {
		r.log.Error("failed to close the database", "op", "repository.sqlite.Close", "error", err)
		return fmt.Errorf("failed to close the database: %w", err)
	}

	return nil
}

// DB is a getter for database handler.
func (r *Repository) DB() *sql.DB {
	return r.db
}
