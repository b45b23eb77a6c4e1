// AngelaMos | 2026
// catalog.go

package entitlement

import (
	"github.com/imotor-app/marketplace-api/internal/config"
)

// Plan describes a purchasable billing product. Exactly one plan is the
// bundle; the rest map 1:1 to a listing tier.
type Plan struct {
	ProductID string
	Name      string
	Tier      Tier
	Bundle    bool
}

// TierLimits holds the two floors a tier's limit can rest on: Base while
// the user is unbundled, Bundled while the premium package is active.
type TierLimits struct {
	Base    int
	Bundled int
}

// Catalog is the configuration table driving the reconciler: product-id to
// plan resolution plus the per-tier floors. Keeping the numbers here, out
// of the transition logic, keeps the rules testable in isolation.
type Catalog struct {
	plans  map[string]Plan
	limits map[Tier]TierLimits
}

var defaultLimits = map[Tier]TierLimits{
	TierStandard: {Base: 3, Bundled: 16},
	TierFeatured: {Base: 0, Bundled: 5},
	TierPremium:  {Base: 0, Bundled: 2},
}

func NewCatalog(cfg config.StripeConfig) *Catalog {
	plans := map[string]Plan{
		cfg.ProductStandard: {
			ProductID: cfg.ProductStandard,
			Name:      "Additional Standard Listing",
			Tier:      TierStandard,
		},
		cfg.ProductFeatured: {
			ProductID: cfg.ProductFeatured,
			Name:      "Additional Featured Listing",
			Tier:      TierFeatured,
		},
		cfg.ProductPremium: {
			ProductID: cfg.ProductPremium,
			Name:      "Additional Premium Listing",
			Tier:      TierPremium,
		},
		cfg.ProductBundle: {
			ProductID: cfg.ProductBundle,
			Name:      "Premium Package",
			Bundle:    true,
		},
	}

	return &Catalog{plans: plans, limits: defaultLimits}
}

// PlanFor resolves a billing product id. Unknown products are a valid
// outcome: the billing account may carry products this system does not own.
func (c *Catalog) PlanFor(productID string) (Plan, bool) {
	p, ok := c.plans[productID]
	return p, ok
}

// Floor returns the baseline limit for a tier given the bundled state.
func (c *Catalog) Floor(t Tier, bundled bool) int {
	l := c.limits[t]
	if bundled {
		return l.Bundled
	}
	return l.Base
}

// BundleDelta is how much the bundle purchase raises a tier's limit above
// the unbundled floor.
func (c *Catalog) BundleDelta(t Tier) int {
	l := c.limits[t]
	return l.Bundled - l.Base
}

// NewBaselineRecord returns the entitlement counters a freshly registered
// user starts with.
func (c *Catalog) NewBaselineRecord(userID string) *Record {
	return &Record{
		UserID:        userID,
		StandardLimit: c.limits[TierStandard].Base,
		FeaturedLimit: c.limits[TierFeatured].Base,
		PremiumLimit:  c.limits[TierPremium].Base,
	}
}
