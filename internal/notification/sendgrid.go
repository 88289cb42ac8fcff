package notification

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Email is a single outbound message.
type Email struct {
	ToName    string
	ToAddress string
	Subject   string
	PlainText string
	HTML      string
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

// SendGridMailer sends email through the SendGrid v3 API.
type SendGridMailer struct {
	client   *sendgrid.Client
	fromName string
	fromAddr string
	sandbox  bool
	logger   *zap.Logger
}

// NewSendGridMailer creates a mailer. In sandbox mode SendGrid validates but does not deliver.
func NewSendGridMailer(apiKey, fromName, fromAddr string, sandbox bool, logger *zap.Logger) *SendGridMailer {
	return &SendGridMailer{
		client:   sendgrid.NewSendClient(apiKey),
		fromName: fromName,
		fromAddr: fromAddr,
		sandbox:  sandbox,
		logger:   logger,
	}
}

// Send delivers email and treats any non-2xx response as an error.
func (m *SendGridMailer) Send(ctx context.Context, email Email) error {
	from := mail.NewEmail(m.fromName, m.fromAddr)
	to := mail.NewEmail(email.ToName, email.ToAddress)
	msg := mail.NewSingleEmail(from, email.Subject, to, email.PlainText, email.HTML)
	if m.sandbox {
		ms := mail.NewMailSettings()
		ms.SetSandboxMode(mail.NewSetting(true))
		msg.MailSettings = ms
	}

	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid rejected email: status %d: %s", resp.StatusCode, resp.Body)
	}

	m.logger.Debug("email sent",
		zap.String("to", email.ToAddress),
		zap.String("subject", email.Subject),
		zap.Int("status", resp.StatusCode),
	)
	return nil
}
