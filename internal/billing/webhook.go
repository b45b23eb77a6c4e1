// AngelaMos | 2026
// webhook.go

package billing

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/imotor-app/marketplace-api/internal/config"
	"github.com/imotor-app/marketplace-api/internal/core"
	"github.com/imotor-app/marketplace-api/internal/entitlement"
)

const webhookBodyLimit = 1 << 20

// EventApplier is the entitlement engine's entry point.
type EventApplier interface {
	ApplyEvent(ctx context.Context, evt entitlement.Event) error
}

// SubscriptionResolver looks up subscription and invoice details the
// webhook payload does not carry inline.
type SubscriptionResolver interface {
	SubscriptionInfo(ctx context.Context, subscriptionID string) (string, int64, error)
	LatestInvoiceURL(ctx context.Context, customerID string) (string, error)
}

// WebhookHandler authenticates billing-provider deliveries and translates
// them into entitlement events. Once a delivery is authenticated the
// response is 200 regardless of business outcome: the provider retries
// non-2xx, and a rolled-back event is recovered by the next delivery of
// the same event id.
type WebhookHandler struct {
	cfg      config.StripeConfig
	events   EventApplier
	resolver SubscriptionResolver
	logger   *slog.Logger
}

func NewWebhookHandler(
	cfg config.StripeConfig,
	events EventApplier,
	resolver SubscriptionResolver,
	logger *slog.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		cfg:      cfg,
		events:   events,
		resolver: resolver,
		logger:   logger,
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, webhookBodyLimit)

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		core.BadRequest(w, "failed to read request body")
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		r.Header.Get("Stripe-Signature"),
		h.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		core.BadRequest(w, "invalid signature")
		return
	}

	ctx := r.Context()

	evt, ok := h.translate(ctx, string(event.Type), event.ID, event.Data.Raw)
	if ok {
		if err := h.events.ApplyEvent(ctx, evt); err != nil {
			h.logger.ErrorContext(ctx, "billing event failed",
				"event_id", event.ID,
				"event_type", string(event.Type),
				"error", err,
			)
		}
	}

	core.OK(w, map[string]bool{"received": true})
}

type checkoutSessionPayload struct {
	Customer     string `json:"customer"`
	Subscription string `json:"subscription"`
}

type subscriptionPayload struct {
	Customer string `json:"customer"`
	Quantity int64  `json:"quantity"`
	Plan     struct {
		Product string `json:"product"`
	} `json:"plan"`
}

type invoicePayload struct {
	Customer         string `json:"customer"`
	HostedInvoiceURL string `json:"hosted_invoice_url"`
	Lines            struct {
		Data []struct {
			Price struct {
				Product string `json:"product"`
			} `json:"price"`
		} `json:"data"`
	} `json:"lines"`
}

// translate maps a provider event onto an entitlement event. A false
// return means the delivery is acknowledged without reconciliation:
// unhandled types, foreign customers, and unresolvable payloads.
func (h *WebhookHandler) translate(
	ctx context.Context,
	eventType, eventID string,
	raw json.RawMessage,
) (entitlement.Event, bool) {
	evt := entitlement.Event{
		ID:   eventID,
		Type: entitlement.EventType(eventType),
	}

	switch evt.Type {
	case entitlement.EventCheckoutCompleted:
		var session checkoutSessionPayload
		if err := json.Unmarshal(raw, &session); err != nil {
			h.logPayloadError(ctx, eventID, err)
			return evt, false
		}

		userID, ok := h.resolveCustomer(ctx, eventID, session.Customer)
		if !ok {
			return evt, false
		}
		evt.UserID = userID

		if session.Subscription == "" {
			h.logger.WarnContext(ctx, "checkout session without subscription",
				"event_id", eventID,
			)
			return evt, false
		}

		productID, quantity, err := h.resolver.SubscriptionInfo(
			ctx, session.Subscription,
		)
		if err != nil {
			h.logger.ErrorContext(ctx, "subscription lookup failed",
				"event_id", eventID,
				"error", err,
			)
			return evt, false
		}
		evt.ProductID = productID
		evt.Quantity = quantity

		if url, err := h.resolver.LatestInvoiceURL(
			ctx, session.Customer,
		); err == nil {
			evt.InvoiceURL = url
		}

		return evt, true

	case entitlement.EventSubscriptionDeleted:
		var sub subscriptionPayload
		if err := json.Unmarshal(raw, &sub); err != nil {
			h.logPayloadError(ctx, eventID, err)
			return evt, false
		}

		userID, ok := h.resolveCustomer(ctx, eventID, sub.Customer)
		if !ok {
			return evt, false
		}

		evt.UserID = userID
		evt.ProductID = sub.Plan.Product
		evt.Quantity = sub.Quantity

		return evt, true

	case entitlement.EventInvoicePaymentFailed,
		entitlement.EventInvoicePaymentSucceeded:
		var inv invoicePayload
		if err := json.Unmarshal(raw, &inv); err != nil {
			h.logPayloadError(ctx, eventID, err)
			return evt, false
		}

		userID, ok := h.resolveCustomer(ctx, eventID, inv.Customer)
		if !ok {
			return evt, false
		}

		evt.UserID = userID
		evt.InvoiceURL = inv.HostedInvoiceURL
		if len(inv.Lines.Data) > 0 {
			evt.ProductID = inv.Lines.Data[0].Price.Product
		}

		return evt, true
	}

	return evt, false
}

func (h *WebhookHandler) resolveCustomer(
	ctx context.Context,
	eventID, customerID string,
) (string, bool) {
	userID, ok := parseCustomerID(h.cfg.CustomerNamespace, customerID)
	if !ok {
		// The billing account is shared; events for customers outside our
		// namespace are somebody else's.
		h.logger.InfoContext(ctx, "ignoring foreign billing customer",
			"event_id", eventID,
			"customer_id", customerID,
		)
		return "", false
	}
	return userID, true
}

func (h *WebhookHandler) logPayloadError(
	ctx context.Context,
	eventID string,
	err error,
) {
	h.logger.ErrorContext(ctx, "malformed webhook payload",
		"event_id", eventID,
		"error", err,
	)
}

func parseCustomerID(namespace, customerID string) (string, bool) {
	prefix := namespace + "_"
	if !strings.HasPrefix(customerID, prefix) {
		return "", false
	}

	userID := strings.TrimPrefix(customerID, prefix)
	return userID, userID != ""
}
