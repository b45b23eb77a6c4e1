// AngelaMos | 2026
// gate.go

package entitlement

import (
	"errors"
	"fmt"
)

// ErrNoTier is returned when a listing create names no recognizable tier.
var ErrNoTier = errors.New("no tier specified")

// QuotaError reports a create that would exceed the user's limit for a tier.
type QuotaError struct {
	Tier  Tier
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("limit reached for %s, limit = %d", e.Tier, e.Limit)
}

// CheckCreate decides whether one more listing at tier t fits under rec's
// quota. It does not mutate usage; the caller increments the counter in the
// same transaction that inserts the listing.
func CheckCreate(rec *Record, t Tier) error {
	if _, ok := ParseTier(string(t)); !ok {
		return ErrNoTier
	}

	if rec.Used(t) >= rec.Limit(t) {
		return &QuotaError{Tier: t, Limit: rec.Limit(t)}
	}

	return nil
}
