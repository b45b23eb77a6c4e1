// AngelaMos | 2026
// record.go

package entitlement

import (
	"time"
)

// Tier is the quality class a listing is published under. Each tier has an
// independent quota on the owning user's entitlement record.
type Tier string

const (
	TierStandard Tier = "standard"
	TierFeatured Tier = "featured"
	TierPremium  Tier = "premium"
)

var Tiers = []Tier{TierStandard, TierFeatured, TierPremium}

func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case TierStandard, TierFeatured, TierPremium:
		return Tier(s), true
	default:
		return "", false
	}
}

// GracePeriod is how long a subscriber has to settle a failed invoice
// before manual cancellation, anchored at the first failure notice.
const GracePeriod = 7 * 24 * time.Hour

// Record is the per-user entitlement state: current limits and usage for
// each tier, whether the bundled premium package is active, and the first
// payment-failure timestamp per product. Email and Name ride along from the
// same user row for notification addressing; they are never written back.
type Record struct {
	UserID string `db:"id"`
	Email  string `db:"email"`
	Name   string `db:"name"`

	StandardLimit int `db:"standard_limit"`
	FeaturedLimit int `db:"featured_limit"`
	PremiumLimit  int `db:"premium_limit"`

	StandardUsed int `db:"standard_used"`
	FeaturedUsed int `db:"featured_used"`
	PremiumUsed  int `db:"premium_used"`

	BundledPackage bool `db:"bundled_package"`

	// FailureMarkers maps product id to the time the first payment-failed
	// notice was recorded. Written once per product; cleared when the
	// product's payment succeeds or its subscription ends.
	FailureMarkers map[string]time.Time `db:"-"`

	// clearedMarkers lists product ids whose failure episode resolved in
	// this transition. The persistence layer deletes their rows on save.
	clearedMarkers []string
}

func (r *Record) Limit(t Tier) int {
	switch t {
	case TierStandard:
		return r.StandardLimit
	case TierFeatured:
		return r.FeaturedLimit
	case TierPremium:
		return r.PremiumLimit
	}
	return 0
}

func (r *Record) SetLimit(t Tier, limit int) {
	if limit < 0 {
		limit = 0
	}
	switch t {
	case TierStandard:
		r.StandardLimit = limit
	case TierFeatured:
		r.FeaturedLimit = limit
	case TierPremium:
		r.PremiumLimit = limit
	}
}

func (r *Record) Used(t Tier) int {
	switch t {
	case TierStandard:
		return r.StandardUsed
	case TierFeatured:
		return r.FeaturedUsed
	case TierPremium:
		return r.PremiumUsed
	}
	return 0
}

func (r *Record) SetUsed(t Tier, used int) {
	if used < 0 {
		used = 0
	}
	switch t {
	case TierStandard:
		r.StandardUsed = used
	case TierFeatured:
		r.FeaturedUsed = used
	case TierPremium:
		r.PremiumUsed = used
	}
}

func (r *Record) MarkerFor(productID string) (time.Time, bool) {
	t, ok := r.FailureMarkers[productID]
	return t, ok
}

func (r *Record) setMarker(productID string, at time.Time) {
	if r.FailureMarkers == nil {
		r.FailureMarkers = make(map[string]time.Time, 1)
	}
	r.FailureMarkers[productID] = at
}

func (r *Record) clearMarker(productID string) {
	if _, ok := r.FailureMarkers[productID]; !ok {
		return
	}
	delete(r.FailureMarkers, productID)
	r.clearedMarkers = append(r.clearedMarkers, productID)
}
