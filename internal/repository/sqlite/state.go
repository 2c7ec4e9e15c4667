package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Houeta/pricewatch/internal/models"
	"github.com/Houeta/pricewatch/internal/repository"
)

const selectOffersQuery = `SELECT product_id, vendor_id, vendor_name, price, original_price, discount,
	in_stock, last_updated, url FROM offers`

// GetState returns the stored feed snapshot or repository.ErrStateNotFound.
func (r *Repository) GetState(ctx context.Context) (*models.State, error) {
	const opn = "repository.sqlite.GetState"

	// 1. Get hash of page
	var pageHash string
	err := r.db.QueryRowContext(ctx, "SELECT page_hash FROM page_state WHERE id = 1").Scan(&pageHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrStateNotFound
		}
		return nil, fmt.Errorf("%s: failed to get page hash: %w", opn, err)
	}

	// 2. Get all offers of the snapshot
	rows, err := r.db.QueryContext(ctx, selectOffersQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to get offers: %w", opn, err)
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		var (
			o   models.Offer
			url sql.NullString
		)
		err = rows.Scan(
			&o.ProductID,
			&o.Price.VendorID,
			&o.Price.VendorName,
			&o.Price.Price,
			&o.Price.OriginalPrice,
			&o.Price.Discount,
			&o.Price.InStock,
			&o.Price.LastUpdated,
			&url,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to scan offer: %w", opn, err)
		}
		o.Price.URL = url.String
		offers = append(offers, o)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return &models.State{
		PageHash: pageHash,
		Offers:   offers,
	}, nil
}

// UpdateState atomically replaces the stored snapshot.
func (r *Repository) UpdateState(ctx context.Context, state *models.State) error {
	const opn = "repository.sqlite.UpdateState"

	tx, err := r.db.BeginTx(ctx, nil) //nolint:varnamelen // tx its a default naming for transaction
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", opn, err)
	}
	defer tx.Rollback() //nolint:errcheck // returns sql.ErrTxDone after a successful commit

	_, err = tx.ExecContext(ctx, "INSERT OR REPLACE INTO page_state (id, page_hash) VALUES (1, ?)", state.PageHash)
	if err != nil {
		return fmt.Errorf("%s: failed to update page hash: %w", opn, err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM offers")
	if err != nil {
		return fmt.Errorf("%s: failed to delete old offers: %w", opn, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO offers
		(product_id, vendor_id, vendor_name, price, original_price, discount, in_stock, last_updated, url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("%s: failed to prepare insert statement: %w", opn, err)
	}
	defer stmt.Close()

	for _, o := range state.Offers {
		_, err = stmt.ExecContext(ctx,
			o.ProductID,
			o.Price.VendorID,
			o.Price.VendorName,
			o.Price.Price,
			o.Price.OriginalPrice,
			o.Price.Discount,
			o.Price.InStock,
			o.Price.LastUpdated,
			o.Price.URL,
		)
		if err != nil {
			return fmt.Errorf("%s: failed to insert offer %s: %w", opn, o.Key(), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", opn, err)
	}

	return nil
}
