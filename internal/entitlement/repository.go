// AngelaMos | 2026
// repository.go

package entitlement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/imotor-app/marketplace-api/internal/core"
)

type repository struct {
	db core.DBTX
}

func NewStore(db core.DBTX) Store {
	return &repository{db: db}
}

const recordColumns = `
	id, email, name,
	standard_limit, featured_limit, premium_limit,
	standard_used, featured_used, premium_used,
	bundled_package`

func (r *repository) Load(ctx context.Context, userID string) (*Record, error) {
	return r.load(ctx, r.db, userID, false)
}

func (r *repository) LoadForUpdate(
	ctx context.Context,
	tx *sqlx.Tx,
	userID string,
) (*Record, error) {
	return r.load(ctx, tx, userID, true)
}

func (r *repository) load(
	ctx context.Context,
	db core.DBTX,
	userID string,
	forUpdate bool,
) (*Record, error) {
	query := `
		SELECT` + recordColumns + `
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`
	if forUpdate {
		query += `
		FOR UPDATE`
	}

	var rec Record
	err := db.GetContext(ctx, &rec, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load entitlements: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load entitlements: %w", err)
	}

	if err := r.loadMarkers(ctx, db, &rec); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (r *repository) loadMarkers(
	ctx context.Context,
	db core.DBTX,
	rec *Record,
) error {
	query := `
		SELECT product_id, failed_at
		FROM payment_failure_markers
		WHERE user_id = $1`

	var rows []struct {
		ProductID string    `db:"product_id"`
		FailedAt  time.Time `db:"failed_at"`
	}
	if err := db.SelectContext(ctx, &rows, query, rec.UserID); err != nil {
		return fmt.Errorf("load failure markers: %w", err)
	}

	for _, row := range rows {
		rec.setMarker(row.ProductID, row.FailedAt)
	}

	return nil
}

func (r *repository) Save(
	ctx context.Context,
	tx *sqlx.Tx,
	rec *Record,
) error {
	query := `
		UPDATE users
		SET standard_limit = $2,
		    featured_limit = $3,
		    premium_limit = $4,
		    standard_used = $5,
		    featured_used = $6,
		    premium_used = $7,
		    bundled_package = $8,
		    updated_at = NOW()
		WHERE id = $1`

	result, err := tx.ExecContext(ctx, query,
		rec.UserID,
		rec.StandardLimit,
		rec.FeaturedLimit,
		rec.PremiumLimit,
		rec.StandardUsed,
		rec.FeaturedUsed,
		rec.PremiumUsed,
		rec.BundledPackage,
	)
	if err != nil {
		return fmt.Errorf("save entitlements: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save entitlements: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("save entitlements: %w", core.ErrNotFound)
	}

	return r.saveMarkers(ctx, tx, rec)
}

func (r *repository) saveMarkers(
	ctx context.Context,
	tx *sqlx.Tx,
	rec *Record,
) error {
	// ON CONFLICT DO NOTHING keeps the first failure timestamp: the grace
	// deadline is anchored at the first notice, never pushed out by
	// retries of later invoices.
	query := `
		INSERT INTO payment_failure_markers (user_id, product_id, failed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, product_id) DO NOTHING`

	for productID, failedAt := range rec.FailureMarkers {
		if _, err := tx.ExecContext(
			ctx, query, rec.UserID, productID, failedAt,
		); err != nil {
			return fmt.Errorf("save failure marker: %w", err)
		}
	}

	deleteQuery := `
		DELETE FROM payment_failure_markers
		WHERE user_id = $1 AND product_id = $2`

	for _, productID := range rec.clearedMarkers {
		if _, err := tx.ExecContext(
			ctx, deleteQuery, rec.UserID, productID,
		); err != nil {
			return fmt.Errorf("clear failure marker: %w", err)
		}
	}

	return nil
}

// MarkEventProcessed claims a provider event id inside the current
// transaction. It reports false when another delivery already claimed it.
func (r *repository) MarkEventProcessed(
	ctx context.Context,
	tx *sqlx.Tx,
	eventID string,
) (bool, error) {
	query := `
		INSERT INTO processed_webhook_events (id, processed_at)
		VALUES ($1, NOW())
		ON CONFLICT (id) DO NOTHING`

	result, err := tx.ExecContext(ctx, query, eventID)
	if err != nil {
		return false, fmt.Errorf("mark event processed: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark event processed: %w", err)
	}

	return rows > 0, nil
}

// AdjustUsed shifts a tier's usage counter, clamping at zero. Runs inside
// the caller's transaction so the gate check and the insert it guards stay
// atomic.
func (r *repository) AdjustUsed(
	ctx context.Context,
	tx *sqlx.Tx,
	userID string,
	t Tier,
	delta int,
) error {
	column, err := usedColumn(t)
	if err != nil {
		return err
	}

	//nolint:gosec // G201: column name comes from usedColumn, not input
	query := fmt.Sprintf(`
		UPDATE users
		SET %s = GREATEST(0, %s + $2),
		    updated_at = NOW()
		WHERE id = $1`, column, column)

	result, err := tx.ExecContext(ctx, query, userID, delta)
	if err != nil {
		return fmt.Errorf("adjust usage: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust usage: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("adjust usage: %w", core.ErrNotFound)
	}

	return nil
}

func usedColumn(t Tier) (string, error) {
	switch t {
	case TierStandard:
		return "standard_used", nil
	case TierFeatured:
		return "featured_used", nil
	case TierPremium:
		return "premium_used", nil
	}
	return "", fmt.Errorf("adjust usage: %w", ErrNoTier)
}
