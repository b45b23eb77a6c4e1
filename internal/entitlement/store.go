// AngelaMos | 2026
// store.go

package entitlement

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Store persists entitlement records. LoadForUpdate must be called inside a
// transaction; it takes a row lock so concurrent webhook deliveries for the
// same user serialize.
type Store interface {
	Load(ctx context.Context, userID string) (*Record, error)
	LoadForUpdate(ctx context.Context, tx *sqlx.Tx, userID string) (*Record, error)
	Save(ctx context.Context, tx *sqlx.Tx, rec *Record) error
	MarkEventProcessed(ctx context.Context, tx *sqlx.Tx, eventID string) (bool, error)
	AdjustUsed(ctx context.Context, tx *sqlx.Tx, userID string, t Tier, delta int) error
}
