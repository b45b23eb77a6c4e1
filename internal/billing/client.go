// AngelaMos | 2026
// client.go

package billing

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/invoice"
	"github.com/stripe/stripe-go/v82/subscription"

	"github.com/imotor-app/marketplace-api/internal/config"
)

// Client wraps the Stripe API surface this service touches. The call sites
// are function fields so tests can swap them without network access.
type Client struct {
	cfg config.StripeConfig

	createCheckoutSession func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	getCheckoutSession    func(string, *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	getSubscription       func(string, *stripe.SubscriptionParams) (*stripe.Subscription, error)
	listInvoices          func(*stripe.InvoiceListParams) *invoice.Iter
}

func NewClient(cfg config.StripeConfig) *Client {
	stripe.Key = cfg.APIKey

	return &Client{
		cfg:                   cfg,
		createCheckoutSession: checkoutsession.New,
		getCheckoutSession:    checkoutsession.Get,
		getSubscription:       subscription.Get,
		listInvoices:          invoice.List,
	}
}

// CustomerID derives the billing customer id for a marketplace user. The
// billing account is shared with other consumers, so every customer this
// service owns carries the configured namespace prefix.
func (c *Client) CustomerID(userID string) string {
	return c.cfg.CustomerNamespace + "_" + userID
}

// ParseCustomerID reverses CustomerID. The second return is false for
// customers owned by other consumers of the billing account.
func (c *Client) ParseCustomerID(customerID string) (string, bool) {
	return parseCustomerID(c.cfg.CustomerNamespace, customerID)
}

// CheckoutSession holds what the storefront needs to mount the embedded
// checkout form.
type CheckoutSession struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

func (c *Client) CreateCheckoutSession(
	_ context.Context,
	userID, email, priceID string,
	quantity int64,
) (*CheckoutSession, error) {
	if quantity < 1 {
		quantity = 1
	}

	params := &stripe.CheckoutSessionParams{
		UIMode: stripe.String(string(stripe.CheckoutSessionUIModeEmbedded)),
		Mode: stripe.String(
			string(stripe.CheckoutSessionModeSubscription),
		),
		Customer: stripe.String(c.CustomerID(userID)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(quantity),
			},
		},
		ReturnURL: stripe.String(
			c.cfg.ReturnURL + "?session_id={CHECKOUT_SESSION_ID}",
		),
	}
	params.AddMetadata("user_id", userID)
	params.AddMetadata("user_email", email)

	session, err := c.createCheckoutSession(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	return &CheckoutSession{
		ID:           session.ID,
		ClientSecret: session.ClientSecret,
	}, nil
}

// SessionStatus is the polling result for a checkout in progress.
type SessionStatus struct {
	Status       string `json:"status"`
	BillingEmail string `json:"billing_email,omitempty"`
}

func (c *Client) GetSessionStatus(
	_ context.Context,
	sessionID string,
) (*SessionStatus, error) {
	session, err := c.getCheckoutSession(sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}

	status := &SessionStatus{Status: string(session.Status)}
	if session.CustomerDetails != nil {
		status.BillingEmail = session.CustomerDetails.Email
	}

	return status, nil
}

// SubscriptionInfo resolves a subscription to its product id and quantity.
func (c *Client) SubscriptionInfo(
	_ context.Context,
	subscriptionID string,
) (string, int64, error) {
	sub, err := c.getSubscription(subscriptionID, nil)
	if err != nil {
		return "", 0, fmt.Errorf("get subscription: %w", err)
	}

	if sub.Items == nil || len(sub.Items.Data) == 0 {
		return "", 0, fmt.Errorf("subscription %s has no items", subscriptionID)
	}

	item := sub.Items.Data[0]
	if item.Price == nil || item.Price.Product == nil {
		return "", 0, fmt.Errorf(
			"subscription %s has no resolvable product", subscriptionID,
		)
	}

	return item.Price.Product.ID, item.Quantity, nil
}

// LatestInvoiceURL returns the hosted URL of the customer's most recent
// invoice, or empty when none exists yet.
func (c *Client) LatestInvoiceURL(
	_ context.Context,
	customerID string,
) (string, error) {
	params := &stripe.InvoiceListParams{
		Customer: stripe.String(customerID),
	}
	params.Limit = stripe.Int64(1)

	iter := c.listInvoices(params)
	for iter.Next() {
		return iter.Invoice().HostedInvoiceURL, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list invoices: %w", err)
	}

	return "", nil
}
