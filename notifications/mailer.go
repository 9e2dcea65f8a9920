package notifications

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/medassist/medassist-api/models"
	templates "github.com/medassist/medassist-api/templates/html"
)

// ErrMailDisabled is returned when no SendGrid key is configured
var ErrMailDisabled = errors.New("email delivery is not configured")

// go generate: mockery --name Mailer

// Mailer sends transactional email
type Mailer interface {
	SendRefillReminder(ctx context.Context, toEmail, toName string, medication models.Medication) error
}

type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridMailer sends email through SendGrid
type SendGridMailer struct {
	client sendClient
	from   *mail.Email
}

// NewSendGridMailer returns a mailer, or nil when apiKey is empty
func NewSendGridMailer(apiKey, fromAddress string) *SendGridMailer {
	if apiKey == "" {
		return nil
	}
	return &SendGridMailer{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("MedAssist", fromAddress),
	}
}

// SendRefillReminder tells the user a medication is running low
func (m *SendGridMailer) SendRefillReminder(ctx context.Context, toEmail, toName string, medication models.Medication) error {
	if m == nil || m.client == nil {
		return ErrMailDisabled
	}
	subject := fmt.Sprintf("Time to refill %s", medication.Name)
	plain := templates.RefillReminderText(toName, medication.Name, medication.Dosage, medication.CurrentSupply)
	html := templates.RenderRefillReminderEmail(toName, medication.Name, medication.Dosage, medication.CurrentSupply)
	return m.send(ctx, toEmail, toName, subject, plain, html)
}

func (m *SendGridMailer) send(ctx context.Context, toEmail, toName, subject, plainText, htmlContent string) error {
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(m.from, subject, to, plainText, htmlContent)
	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		zap.S().Errorw("failed to send email", "error", err, "to", toEmail)
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", toEmail)
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	zap.S().Infow("email sent successfully", "to", toEmail, "subject", subject)
	return nil
}
