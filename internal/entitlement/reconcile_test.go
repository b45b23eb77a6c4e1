// AngelaMos | 2026
// reconcile_test.go

package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imotor-app/marketplace-api/internal/config"
)

var testStripeConfig = config.StripeConfig{
	ProductStandard: "prod_std",
	ProductFeatured: "prod_feat",
	ProductPremium:  "prod_prem",
	ProductBundle:   "prod_bundle",
}

func testCatalog() *Catalog {
	return NewCatalog(testStripeConfig)
}

func baselineRecord() Record {
	return *testCatalog().NewBaselineRecord("user-1")
}

func TestNewBaselineRecord(t *testing.T) {
	rec := baselineRecord()

	assert.Equal(t, 3, rec.StandardLimit)
	assert.Equal(t, 0, rec.FeaturedLimit)
	assert.Equal(t, 0, rec.PremiumLimit)
	assert.False(t, rec.BundledPackage)
}

func TestReconcile_CheckoutAddon(t *testing.T) {
	tests := []struct {
		name      string
		productID string
		quantity  int64
		tier      Tier
		wantLimit int
	}{
		{
			name:      "standard defaults to one seat",
			productID: "prod_std",
			quantity:  0,
			tier:      TierStandard,
			wantLimit: 4,
		},
		{
			name:      "standard with explicit quantity",
			productID: "prod_std",
			quantity:  5,
			tier:      TierStandard,
			wantLimit: 8,
		},
		{
			name:      "featured from zero floor",
			productID: "prod_feat",
			quantity:  2,
			tier:      TierFeatured,
			wantLimit: 2,
		},
		{
			name:      "premium from zero floor",
			productID: "prod_prem",
			quantity:  1,
			tier:      TierPremium,
			wantLimit: 1,
		},
	}

	rc := NewReconciler(testCatalog())
	now := time.Now()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := rc.Reconcile(baselineRecord(), Event{
				ID:        "evt_1",
				Type:      EventCheckoutCompleted,
				UserID:    "user-1",
				ProductID: tt.productID,
				Quantity:  tt.quantity,
			}, now)

			assert.Equal(t, tt.wantLimit, out.Record.Limit(tt.tier))
			assert.Empty(t, out.Demotions)

			require.Len(t, out.Notices, 1)
			assert.Equal(t, NoticeSubscriptionConfirmed, out.Notices[0].Kind)
		})
	}
}

func TestReconcile_CheckoutAddonAccumulates(t *testing.T) {
	rc := NewReconciler(testCatalog())
	now := time.Now()

	rec := baselineRecord()
	for i := 0; i < 3; i++ {
		out := rc.Reconcile(rec, Event{
			Type:      EventCheckoutCompleted,
			ProductID: "prod_std",
			Quantity:  2,
		}, now)
		rec = out.Record
	}

	assert.Equal(t, 9, rec.StandardLimit)
}

func TestReconcile_CheckoutBundle(t *testing.T) {
	rc := NewReconciler(testCatalog())

	out := rc.Reconcile(baselineRecord(), Event{
		Type:      EventCheckoutCompleted,
		ProductID: "prod_bundle",
		Quantity:  4,
	}, time.Now())

	rec := out.Record
	assert.Equal(t, 16, rec.StandardLimit)
	assert.Equal(t, 5, rec.FeaturedLimit)
	assert.Equal(t, 2, rec.PremiumLimit)
	assert.True(t, rec.BundledPackage)

	// The bundle is a single package regardless of the requested quantity.
	require.Len(t, out.Notices, 1)
	assert.Equal(t, int64(1), out.Notices[0].Quantity)
	assert.Equal(t, "Premium Package", out.Notices[0].PlanName)
}

func TestReconcile_CancelAddon(t *testing.T) {
	tests := []struct {
		name          string
		rec           Record
		productID     string
		tier          Tier
		wantLimit     int
		wantDemotions []Demotion
	}{
		{
			name: "usage under new floor needs no demotions",
			rec: Record{
				StandardLimit: 5,
				StandardUsed:  2,
			},
			productID:     "prod_std",
			tier:          TierStandard,
			wantLimit:     3,
			wantDemotions: nil,
		},
		{
			name: "excess usage demotes down to the floor",
			rec: Record{
				StandardLimit: 6,
				StandardUsed:  6,
			},
			productID: "prod_std",
			tier:      TierStandard,
			wantLimit: 3,
			wantDemotions: []Demotion{
				{Tier: TierStandard, Count: 3},
			},
		},
		{
			name: "featured cancellation lands on zero",
			rec: Record{
				StandardLimit: 3,
				FeaturedLimit: 2,
				FeaturedUsed:  1,
			},
			productID: "prod_feat",
			tier:      TierFeatured,
			wantLimit: 0,
			wantDemotions: []Demotion{
				{Tier: TierFeatured, Count: 1},
			},
		},
		{
			name: "bundled user falls to the bundled floor",
			rec: Record{
				StandardLimit:  20,
				StandardUsed:   18,
				BundledPackage: true,
			},
			productID: "prod_std",
			tier:      TierStandard,
			wantLimit: 16,
			wantDemotions: []Demotion{
				{Tier: TierStandard, Count: 2},
			},
		},
	}

	rc := NewReconciler(testCatalog())
	now := time.Now()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := rc.Reconcile(tt.rec, Event{
				Type:      EventSubscriptionDeleted,
				ProductID: tt.productID,
			}, now)

			assert.Equal(t, tt.wantLimit, out.Record.Limit(tt.tier))
			assert.Equal(t, tt.wantDemotions, out.Demotions)
			assert.Empty(t, out.Notices)
		})
	}
}

func TestReconcile_CancelBundleAtFloors(t *testing.T) {
	rc := NewReconciler(testCatalog())

	bundled := rc.Reconcile(baselineRecord(), Event{
		Type:      EventCheckoutCompleted,
		ProductID: "prod_bundle",
	}, time.Now())

	out := rc.Reconcile(bundled.Record, Event{
		Type:      EventSubscriptionDeleted,
		ProductID: "prod_bundle",
	}, time.Now())

	rec := out.Record
	assert.Equal(t, 3, rec.StandardLimit)
	assert.Equal(t, 0, rec.FeaturedLimit)
	assert.Equal(t, 0, rec.PremiumLimit)
	assert.False(t, rec.BundledPackage)
	assert.Empty(t, out.Demotions)
}

func TestReconcile_CancelBundleWithExtraSeats(t *testing.T) {
	rc := NewReconciler(testCatalog())

	// Bundled user who also bought two extra standard seats: 18/5/2.
	rec := Record{
		StandardLimit:  18,
		FeaturedLimit:  5,
		PremiumLimit:   2,
		StandardUsed:   18,
		FeaturedUsed:   5,
		PremiumUsed:    1,
		BundledPackage: true,
	}

	out := rc.Reconcile(rec, Event{
		Type:      EventSubscriptionDeleted,
		ProductID: "prod_bundle",
	}, time.Now())

	got := out.Record
	assert.Equal(t, 5, got.StandardLimit) // abs(18 - 16 + 3)
	assert.Equal(t, 0, got.FeaturedLimit)
	assert.Equal(t, 0, got.PremiumLimit)
	assert.False(t, got.BundledPackage)

	assert.Equal(t, []Demotion{
		{Tier: TierStandard, Count: 13},
		{Tier: TierFeatured, Count: 5},
		{Tier: TierPremium, Count: 1},
	}, out.Demotions)
}

func TestReconcile_PaymentFailed(t *testing.T) {
	rc := NewReconciler(testCatalog())
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	out := rc.Reconcile(baselineRecord(), Event{
		Type:       EventInvoicePaymentFailed,
		ProductID:  "prod_std",
		InvoiceURL: "https://pay.example/inv_1",
	}, first)

	marker, ok := out.Record.MarkerFor("prod_std")
	require.True(t, ok)
	assert.Equal(t, first, marker)

	require.Len(t, out.Notices, 1)
	assert.Equal(t, NoticePaymentFailed, out.Notices[0].Kind)
	assert.Equal(t, "https://pay.example/inv_1", out.Notices[0].InvoiceURL)

	// A later failure for the same product keeps the original deadline
	// anchor but still notifies.
	out = rc.Reconcile(out.Record, Event{
		Type:      EventInvoicePaymentFailed,
		ProductID: "prod_std",
	}, second)

	marker, ok = out.Record.MarkerFor("prod_std")
	require.True(t, ok)
	assert.Equal(t, first, marker)
	require.Len(t, out.Notices, 1)
}

func TestReconcile_PaymentSucceeded(t *testing.T) {
	rc := NewReconciler(testCatalog())

	rec := baselineRecord()
	out := rc.Reconcile(rec, Event{
		Type:       EventInvoicePaymentSucceeded,
		ProductID:  "prod_prem",
		InvoiceURL: "https://pay.example/inv_2",
	}, time.Now())

	assert.Equal(t, rec, out.Record)
	assert.Empty(t, out.Demotions)

	require.Len(t, out.Notices, 1)
	assert.Equal(t, NoticePaymentSucceeded, out.Notices[0].Kind)
	assert.Equal(t, "Additional Premium Listing", out.Notices[0].PlanName)
}

func TestReconcile_PaymentSucceededClearsFailureMarker(t *testing.T) {
	rc := NewReconciler(testCatalog())
	failedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	out := rc.Reconcile(baselineRecord(), Event{
		Type:      EventInvoicePaymentFailed,
		ProductID: "prod_std",
	}, failedAt)

	_, ok := out.Record.MarkerFor("prod_std")
	require.True(t, ok)

	out = rc.Reconcile(out.Record, Event{
		Type:      EventInvoicePaymentSucceeded,
		ProductID: "prod_std",
	}, failedAt.Add(time.Hour))

	_, ok = out.Record.MarkerFor("prod_std")
	assert.False(t, ok)
	assert.Equal(t, []string{"prod_std"}, out.Record.clearedMarkers)
}

// The input record stays untouched even through marker writes, which
// mutate a map the struct copy would otherwise share.
func TestReconcile_DoesNotMutateInput(t *testing.T) {
	rc := NewReconciler(testCatalog())
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	rec := baselineRecord()
	out := rc.Reconcile(rec, Event{
		Type:      EventInvoicePaymentFailed,
		ProductID: "prod_std",
	}, now)

	_, ok := out.Record.MarkerFor("prod_std")
	require.True(t, ok)
	_, ok = rec.MarkerFor("prod_std")
	assert.False(t, ok, "marker leaked into the input record")

	// Clearing on the outcome leaves the previous snapshot's marker alone.
	prev := out.Record
	out = rc.Reconcile(prev, Event{
		Type:      EventInvoicePaymentSucceeded,
		ProductID: "prod_std",
	}, now.Add(time.Hour))

	_, ok = out.Record.MarkerFor("prod_std")
	assert.False(t, ok)
	_, ok = prev.MarkerFor("prod_std")
	assert.True(t, ok)
}

func TestReconcile_UnknownProductIsNoOp(t *testing.T) {
	rc := NewReconciler(testCatalog())
	rec := baselineRecord()

	for _, et := range []EventType{
		EventCheckoutCompleted,
		EventSubscriptionDeleted,
		EventInvoicePaymentFailed,
		EventInvoicePaymentSucceeded,
	} {
		out := rc.Reconcile(rec, Event{
			Type:      et,
			ProductID: "prod_someone_elses",
		}, time.Now())

		assert.Equal(t, rec, out.Record, "event %s", et)
		assert.Empty(t, out.Demotions, "event %s", et)
		assert.Empty(t, out.Notices, "event %s", et)
	}
}

func TestRecordClamping(t *testing.T) {
	var rec Record

	rec.SetLimit(TierStandard, -4)
	assert.Equal(t, 0, rec.StandardLimit)

	rec.SetUsed(TierFeatured, -1)
	assert.Equal(t, 0, rec.FeaturedUsed)
}
