// AngelaMos | 2026
// mailer.go

package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/imotor-app/marketplace-api/internal/config"
)

// Message is one outbound email, already rendered.
type Message struct {
	ToEmail   string
	ToName    string
	Subject   string
	PlainText string
	HTML      string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type sendGridMailer struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGrid(cfg config.MailConfig) Mailer {
	return &sendGridMailer{
		client: sendgrid.NewSendClient(cfg.SendGridAPIKey),
		from:   mail.NewEmail(cfg.FromName, cfg.FromAddress),
	}
}

func (m *sendGridMailer) Send(ctx context.Context, msg Message) error {
	email := mail.NewSingleEmail(
		m.from,
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.ToEmail),
		msg.PlainText,
		msg.HTML,
	)

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("send email: sendgrid status %d", resp.StatusCode)
	}

	return nil
}
