package mailer

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridTransport sends mail through the SendGrid v3 API.
type SendGridTransport struct {
	client *sendgrid.Client
	logger *slog.Logger
}

// NewSendGridTransport creates a SendGrid transport for apiKey.
func NewSendGridTransport(apiKey string, logger *slog.Logger) (*SendGridTransport, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("sendgrid api key is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SendGridTransport{
		client: sendgrid.NewSendClient(apiKey),
		logger: logger.With("component", "sendgrid_transport"),
	}, nil
}

// Name implements Transport.
func (t *SendGridTransport) Name() string { return "sendgrid" }

// Send implements Transport.
func (t *SendGridTransport) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail("", msg.From)
	to := mail.NewEmail("", msg.To)
	htmlBody := strings.ReplaceAll(html.EscapeString(msg.Body), "\n", "<br>")
	message := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, htmlBody)

	response, err := t.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send failed: %w", err)
	}
	if response.StatusCode >= 400 {
		t.logger.ErrorContext(ctx, "SendGrid returned error status", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("sendgrid returned status %d", response.StatusCode)
	}

	t.logger.DebugContext(ctx, "Mail accepted by sendgrid", "status", response.StatusCode, "to", msg.To)
	return nil
}
