// AngelaMos | 2026
// webhook_test.go

package billing

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imotor-app/marketplace-api/internal/config"
	"github.com/imotor-app/marketplace-api/internal/entitlement"
)

const testSecret = "whsec_test_secret"

var testCfg = config.StripeConfig{
	WebhookSecret:     testSecret,
	CustomerNamespace: "imotorV2",
}

type fakeApplier struct {
	events []entitlement.Event
	err    error
}

func (f *fakeApplier) ApplyEvent(
	_ context.Context,
	evt entitlement.Event,
) error {
	f.events = append(f.events, evt)
	return f.err
}

type fakeResolver struct {
	productID  string
	quantity   int64
	invoiceURL string
}

func (f *fakeResolver) SubscriptionInfo(
	_ context.Context,
	_ string,
) (string, int64, error) {
	return f.productID, f.quantity, nil
}

func (f *fakeResolver) LatestInvoiceURL(
	_ context.Context,
	_ string,
) (string, error) {
	return f.invoiceURL, nil
}

func newTestHandler(
	applier *fakeApplier,
	resolver *fakeResolver,
) *WebhookHandler {
	return NewWebhookHandler(
		testCfg, applier, resolver,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func signedRequest(t *testing.T, payload string) *http.Request {
	t.Helper()

	signed := stripewebhook.GenerateTestSignedPayload(
		&stripewebhook.UnsignedPayload{
			Payload:   []byte(payload),
			Secret:    testSecret,
			Timestamp: time.Now(),
			Scheme:    "v1",
		},
	)

	req := httptest.NewRequest(
		http.MethodPost, "/api/v1/billing/webhook",
		bytes.NewReader(signed.Payload),
	)
	req.Header.Set("Stripe-Signature", signed.Header)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestWebhook_BadSignatureRejectedBeforeReconciliation(t *testing.T) {
	applier := &fakeApplier{}
	handler := newTestHandler(applier, &fakeResolver{})

	req := httptest.NewRequest(
		http.MethodPost, "/api/v1/billing/webhook",
		bytes.NewReader([]byte(`{"id":"evt_1","type":"checkout.session.completed"}`)),
	)
	req.Header.Set("Stripe-Signature", "t=1,v1=bogus")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, applier.events)
}

func TestWebhook_CheckoutCompletedResolvesSubscription(t *testing.T) {
	applier := &fakeApplier{}
	resolver := &fakeResolver{
		productID:  "prod_std",
		quantity:   3,
		invoiceURL: "https://pay.example/inv_1",
	}
	handler := newTestHandler(applier, resolver)

	payload := `{
		"id": "evt_checkout_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"customer": "imotorV2_user-1",
			"subscription": "sub_123"
		}}
	}`

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(t, payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, applier.events, 1)

	evt := applier.events[0]
	assert.Equal(t, "evt_checkout_1", evt.ID)
	assert.Equal(t, entitlement.EventCheckoutCompleted, evt.Type)
	assert.Equal(t, "user-1", evt.UserID)
	assert.Equal(t, "prod_std", evt.ProductID)
	assert.Equal(t, int64(3), evt.Quantity)
	assert.Equal(t, "https://pay.example/inv_1", evt.InvoiceURL)
}

func TestWebhook_ForeignCustomerAckedWithoutReconciliation(t *testing.T) {
	applier := &fakeApplier{}
	handler := newTestHandler(applier, &fakeResolver{})

	payload := `{
		"id": "evt_foreign_1",
		"type": "customer.subscription.deleted",
		"data": {"object": {
			"customer": "cus_someoneelse",
			"plan": {"product": "prod_std"}
		}}
	}`

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(t, payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, applier.events)
}

func TestWebhook_SubscriptionDeleted(t *testing.T) {
	applier := &fakeApplier{}
	handler := newTestHandler(applier, &fakeResolver{})

	payload := `{
		"id": "evt_cancel_1",
		"type": "customer.subscription.deleted",
		"data": {"object": {
			"customer": "imotorV2_user-2",
			"quantity": 1,
			"plan": {"product": "prod_bundle"}
		}}
	}`

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(t, payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, applier.events, 1)
	assert.Equal(t, entitlement.EventSubscriptionDeleted, applier.events[0].Type)
	assert.Equal(t, "user-2", applier.events[0].UserID)
	assert.Equal(t, "prod_bundle", applier.events[0].ProductID)
}

func TestWebhook_InvoicePaymentFailed(t *testing.T) {
	applier := &fakeApplier{}
	handler := newTestHandler(applier, &fakeResolver{})

	payload := `{
		"id": "evt_fail_1",
		"type": "invoice.payment_failed",
		"data": {"object": {
			"customer": "imotorV2_user-3",
			"hosted_invoice_url": "https://pay.example/inv_9",
			"lines": {"data": [{"price": {"product": "prod_prem"}}]}
		}}
	}`

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(t, payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, applier.events, 1)

	evt := applier.events[0]
	assert.Equal(t, entitlement.EventInvoicePaymentFailed, evt.Type)
	assert.Equal(t, "prod_prem", evt.ProductID)
	assert.Equal(t, "https://pay.example/inv_9", evt.InvoiceURL)
}

func TestWebhook_ReconcilerErrorStillAcked(t *testing.T) {
	applier := &fakeApplier{err: assert.AnError}
	handler := newTestHandler(applier, &fakeResolver{})

	payload := `{
		"id": "evt_err_1",
		"type": "invoice.payment_succeeded",
		"data": {"object": {
			"customer": "imotorV2_user-4",
			"lines": {"data": [{"price": {"product": "prod_std"}}]}
		}}
	}`

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, signedRequest(t, payload))

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, applier.events, 1)
}

func TestParseCustomerID(t *testing.T) {
	tests := []struct {
		customer string
		wantUser string
		wantOK   bool
	}{
		{"imotorV2_user-1", "user-1", true},
		{"imotorV2_", "", false},
		{"cus_abc123", "", false},
		{"imotorV3_user-1", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		userID, ok := parseCustomerID("imotorV2", tt.customer)
		assert.Equal(t, tt.wantOK, ok, tt.customer)
		assert.Equal(t, tt.wantUser, userID, tt.customer)
	}
}
