// AngelaMos | 2026
// event.go

package entitlement

type EventType string

const (
	EventCheckoutCompleted       EventType = "checkout.session.completed"
	EventSubscriptionDeleted     EventType = "customer.subscription.deleted"
	EventInvoicePaymentFailed    EventType = "invoice.payment_failed"
	EventInvoicePaymentSucceeded EventType = "invoice.payment_succeeded"
)

// Event is one billing-provider fact, already authenticated and resolved to
// a marketplace user by the webhook layer. Delivery is at-least-once; ID is
// the provider's event id and is the dedupe key.
type Event struct {
	ID         string
	Type       EventType
	UserID     string
	ProductID  string
	Quantity   int64
	InvoiceURL string
}

type NoticeKind string

const (
	NoticeSubscriptionConfirmed NoticeKind = "subscription_confirmed"
	NoticePaymentFailed         NoticeKind = "payment_failed"
	NoticePaymentSucceeded      NoticeKind = "payment_succeeded"
)

// Notice is an email the reconciler wants sent. Dispatch is fire-and-forget
// and happens outside the entitlement transaction.
type Notice struct {
	Kind       NoticeKind
	PlanName   string
	Quantity   int64
	InvoiceURL string
}

// Demotion asks for the Count oldest non-demoted listings of Tier to be
// unpublished.
type Demotion struct {
	Tier  Tier
	Count int
}

// Outcome is what reconciling one event against one record produces: the
// updated record, the listings to demote, and the notices to send. The
// caller owns persisting all of it atomically.
type Outcome struct {
	Record    Record
	Demotions []Demotion
	Notices   []Notice
}
