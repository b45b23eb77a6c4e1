// AngelaMos | 2026
// reconcile.go

package entitlement

import (
	"maps"
	"time"
)

// Reconciler computes entitlement transitions for billing events. It is
// pure: no I/O, no clock reads; the caller supplies the record and the
// current time and applies the returned outcome.
type Reconciler struct {
	catalog *Catalog
}

func NewReconciler(catalog *Catalog) *Reconciler {
	return &Reconciler{catalog: catalog}
}

// Reconcile applies one event to a copy of rec and returns the outcome.
// Events for products the catalog does not know are a no-op: the billing
// account is shared, so foreign products are acknowledged and ignored.
func (rc *Reconciler) Reconcile(rec Record, evt Event, now time.Time) Outcome {
	out := Outcome{Record: rec}
	// The struct copy above still shares the marker map with the caller.
	out.Record.FailureMarkers = maps.Clone(rec.FailureMarkers)

	plan, ok := rc.catalog.PlanFor(evt.ProductID)
	if !ok {
		return out
	}

	switch evt.Type {
	case EventCheckoutCompleted:
		rc.applyPurchase(&out, plan, evt)
	case EventSubscriptionDeleted:
		rc.applyCancellation(&out, plan)
	case EventInvoicePaymentFailed:
		rc.applyPaymentFailed(&out, plan, evt, now)
	case EventInvoicePaymentSucceeded:
		out.Record.clearMarker(plan.ProductID)
		out.Notices = append(out.Notices, Notice{
			Kind:       NoticePaymentSucceeded,
			PlanName:   plan.Name,
			InvoiceURL: evt.InvoiceURL,
		})
	}

	return out
}

func (rc *Reconciler) applyPurchase(out *Outcome, plan Plan, evt Event) {
	rec := &out.Record

	if plan.Bundle {
		// The bundle is only purchasable from the unbundled floor, so the
		// fixed deltas land each tier exactly on its bundled floor.
		for _, t := range Tiers {
			rec.SetLimit(t, rec.Limit(t)+rc.catalog.BundleDelta(t))
		}
		rec.BundledPackage = true

		out.Notices = append(out.Notices, Notice{
			Kind:       NoticeSubscriptionConfirmed,
			PlanName:   plan.Name,
			Quantity:   1,
			InvoiceURL: evt.InvoiceURL,
		})

		return
	}

	qty := evt.Quantity
	if qty < 1 {
		qty = 1
	}

	rec.SetLimit(plan.Tier, rec.Limit(plan.Tier)+int(qty))

	out.Notices = append(out.Notices, Notice{
		Kind:       NoticeSubscriptionConfirmed,
		PlanName:   plan.Name,
		Quantity:   qty,
		InvoiceURL: evt.InvoiceURL,
	})
}

func (rc *Reconciler) applyCancellation(out *Outcome, plan Plan) {
	rec := &out.Record

	// A dead subscription has nothing left in grace.
	rec.clearMarker(plan.ProductID)

	if plan.Bundle {
		for _, t := range Tiers {
			bundledFloor := rc.catalog.Floor(t, true)
			baseFloor := rc.catalog.Floor(t, false)

			if rec.Limit(t) == bundledFloor {
				rec.SetLimit(t, baseFloor)
			} else {
				// Historical arithmetic: subtract the bundled floor, add the
				// base floor, and take the absolute value rather than
				// clamping. Kept as-is so limits that drifted below the
				// bundled floor resolve the same way they always have.
				rec.SetLimit(t, abs(rec.Limit(t)-bundledFloor+baseFloor))
			}

			out.Demotions = appendDemotion(out.Demotions, t, excess(rec, t))
		}

		rec.BundledPackage = false

		return
	}

	t := plan.Tier
	rec.SetLimit(t, rc.catalog.Floor(t, rec.BundledPackage))
	out.Demotions = appendDemotion(out.Demotions, t, excess(rec, t))
}

func (rc *Reconciler) applyPaymentFailed(
	out *Outcome,
	plan Plan,
	evt Event,
	now time.Time,
) {
	rec := &out.Record

	// The marker anchors the grace deadline and is written exactly once per
	// product; repeated failures for the same product keep the first
	// timestamp. The notice itself is sent on every failure event.
	if _, exists := rec.MarkerFor(plan.ProductID); !exists {
		rec.setMarker(plan.ProductID, now)
	}

	out.Notices = append(out.Notices, Notice{
		Kind:       NoticePaymentFailed,
		PlanName:   plan.Name,
		InvoiceURL: evt.InvoiceURL,
	})
}

// excess is how far current usage overshoots the (already updated) limit.
func excess(rec *Record, t Tier) int {
	if n := rec.Used(t) - rec.Limit(t); n > 0 {
		return n
	}
	return 0
}

func appendDemotion(plans []Demotion, t Tier, count int) []Demotion {
	if count <= 0 {
		return plans
	}
	return append(plans, Demotion{Tier: t, Count: count})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
