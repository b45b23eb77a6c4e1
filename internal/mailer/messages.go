// AngelaMos | 2026
// messages.go

package mailer

import (
	"fmt"

	"github.com/imotor-app/marketplace-api/internal/entitlement"
)

// Notices adapts the dispatcher to the entitlement engine's notifier
// contract, rendering each notice kind into a concrete email.
type Notices struct {
	dispatcher *Dispatcher
}

func NewNotices(dispatcher *Dispatcher) *Notices {
	return &Notices{dispatcher: dispatcher}
}

var _ entitlement.Notifier = (*Notices)(nil)

func (n *Notices) NotifyEntitlement(
	email, name string,
	notice entitlement.Notice,
) {
	var msg Message

	switch notice.Kind {
	case entitlement.NoticeSubscriptionConfirmed:
		msg = subscriptionConfirmedMessage(notice)
	case entitlement.NoticePaymentFailed:
		msg = paymentFailedMessage(notice)
	case entitlement.NoticePaymentSucceeded:
		msg = paymentSucceededMessage(notice)
	default:
		return
	}

	msg.ToEmail = email
	msg.ToName = name
	n.dispatcher.Enqueue(msg)
}

func subscriptionConfirmedMessage(notice entitlement.Notice) Message {
	plain := fmt.Sprintf(
		"Your subscription to the %s plan (quantity %d) is confirmed.",
		notice.PlanName, notice.Quantity,
	)

	return Message{
		Subject:   "Subscription Confirmation",
		PlainText: plain,
		HTML: renderCard("Subscription Confirmation", plain,
			notice.InvoiceURL, "View Invoice"),
	}
}

func paymentFailedMessage(notice entitlement.Notice) Message {
	plain := fmt.Sprintf(
		"We noticed an issue processing your payment for the %s plan "+
			"subscription. To avoid interruption of your service, please "+
			"update your payment information within the next 7 days.",
		notice.PlanName,
	)

	return Message{
		Subject:   "Subscription Payment Failed",
		PlainText: plain,
		HTML: renderCard("Subscription Payment Failed", plain,
			notice.InvoiceURL, "Pay Invoice"),
	}
}

func paymentSucceededMessage(notice entitlement.Notice) Message {
	plain := fmt.Sprintf(
		"Your payment for the %s plan subscription has been successfully "+
			"processed.",
		notice.PlanName,
	)

	return Message{
		Subject:   "Subscription Payment Successful",
		PlainText: plain,
		HTML: renderCard("Subscription Payment Successful", plain,
			notice.InvoiceURL, "View Invoice"),
	}
}

// VerificationCodeMessage carries the emailed registration code.
func VerificationCodeMessage(email, name, code string) Message {
	plain := fmt.Sprintf("Your verification code is: %s", code)

	return Message{
		ToEmail:   email,
		ToName:    name,
		Subject:   "Email Verification Code",
		PlainText: plain,
		HTML:      renderCard("Email Verification", plain, "", ""),
	}
}

// PasswordResetMessage carries the reset link.
func PasswordResetMessage(email, name, resetLink string) Message {
	plain := "You've requested to reset your password. " +
		"If you didn't request a password reset, you can ignore this email."

	return Message{
		ToEmail:   email,
		ToName:    name,
		Subject:   "Password Reset",
		PlainText: plain + " Reset link: " + resetLink,
		HTML: renderCard("Password Reset", plain, resetLink,
			"Reset Password"),
	}
}

func renderCard(heading, body, linkURL, linkLabel string) string {
	link := ""
	if linkURL != "" {
		link = fmt.Sprintf(
			`<p style="text-align:center;margin-top:20px;">`+
				`<a href="%s" style="text-decoration:none;`+
				`background-color:#007bff;color:#fff;padding:10px 20px;`+
				`border-radius:5px;display:inline-block;">%s</a></p>`,
			linkURL, linkLabel,
		)
	}

	return fmt.Sprintf(
		`<html lang="en"><head><meta charset="UTF-8"></head>`+
			`<body style="font-family:Arial,sans-serif;`+
			`background-color:#f4f4f4;margin:0;padding:20px;">`+
			`<div style="max-width:600px;margin:0 auto;`+
			`background-color:#fff;padding:20px;border-radius:5px;">`+
			`<h2 style="text-align:center;">%s</h2>`+
			`<div style="padding:20px;background-color:#f9f9f9;`+
			`border-radius:5px;">%s</div>%s</div></body></html>`,
		heading, body, link,
	)
}
