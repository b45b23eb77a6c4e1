// AngelaMos | 2026
// dispatcher_test.go

package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imotor-app/marketplace-api/internal/entitlement"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

func (f *fakeMailer) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.sent...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_DeliversQueuedMessages(t *testing.T) {
	fake := &fakeMailer{}
	d := NewDispatcher(fake, 8, discardLogger())

	d.Enqueue(Message{ToEmail: "a@example.com", Subject: "one"})
	d.Enqueue(Message{ToEmail: "b@example.com", Subject: "two"})
	d.Close()

	sent := fake.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "one", sent[0].Subject)
	assert.Equal(t, "two", sent[1].Subject)
}

func TestDispatcher_DeliveryFailureDoesNotStopWorker(t *testing.T) {
	fake := &fakeMailer{err: errors.New("smtp down")}
	d := NewDispatcher(fake, 8, discardLogger())

	d.Enqueue(Message{ToEmail: "a@example.com"})
	d.Enqueue(Message{ToEmail: "b@example.com"})
	d.Close()

	assert.Len(t, fake.messages(), 2)
}

func TestNotices_RendersEntitlementKinds(t *testing.T) {
	fake := &fakeMailer{}
	d := NewDispatcher(fake, 8, discardLogger())
	notices := NewNotices(d)

	notices.NotifyEntitlement("u@example.com", "U", entitlement.Notice{
		Kind:     entitlement.NoticeSubscriptionConfirmed,
		PlanName: "Premium Package",
		Quantity: 1,
	})
	notices.NotifyEntitlement("u@example.com", "U", entitlement.Notice{
		Kind:       entitlement.NoticePaymentFailed,
		PlanName:   "Additional Standard Listing",
		InvoiceURL: "https://pay.example/inv",
	})
	notices.NotifyEntitlement("u@example.com", "U", entitlement.Notice{
		Kind:     entitlement.NoticePaymentSucceeded,
		PlanName: "Additional Standard Listing",
	})
	d.Close()

	sent := fake.messages()
	require.Len(t, sent, 3)
	assert.Equal(t, "Subscription Confirmation", sent[0].Subject)
	assert.Equal(t, "Subscription Payment Failed", sent[1].Subject)
	assert.Contains(t, sent[1].HTML, "https://pay.example/inv")
	assert.Contains(t, sent[1].PlainText, "7 days")
	assert.Equal(t, "Subscription Payment Successful", sent[2].Subject)
	assert.Equal(t, "u@example.com", sent[0].ToEmail)
}
