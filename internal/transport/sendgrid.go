// internal/transport/sendgrid.go
package transport

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender sends email through the SendGrid API.
type SendGridSender struct {
	APIKey    string
	FromEmail string
	FromName  string
}

func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	return &SendGridSender{
		APIKey:    apiKey,
		FromEmail: fromEmail,
		FromName:  fromName,
	}
}

func (s *SendGridSender) Send(msg Message, idempotencyKey string) (*Result, error) {
	from := mail.NewEmail(s.FromName, s.FromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)

	m := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)
	// Echoed back in delivery webhooks so provider-side events can be matched
	// to our ledger row.
	m.Personalizations[0].SetCustomArg("idempotency_key", idempotencyKey)

	client := sendgrid.NewSendClient(s.APIKey)
	response, err := client.Send(m)
	if err != nil {
		log.Printf("❌ SendGrid error: %v", err)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	if response.StatusCode >= 400 {
		log.Printf("❌ SendGrid returned error status %d: %s", response.StatusCode, response.Body)
		return nil, fmt.Errorf("sendgrid returned error status: %d", response.StatusCode)
	}

	providerID := ""
	if ids := response.Headers["X-Message-Id"]; len(ids) > 0 {
		providerID = ids[0]
	}
	return &Result{ProviderID: providerID}, nil
}

var _ Sender = (*SendGridSender)(nil)
