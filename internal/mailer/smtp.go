package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/wneessen/go-mail"
)

// SMTPTransport sends mail over implicit TLS (SMTPS, usually port 465)
// with PLAIN authentication.
type SMTPTransport struct {
	addr   string
	client *mail.Client
	logger *slog.Logger
}

// NewSMTPTransport creates a transport for the server at addr ("host:port").
// Authentication is skipped when username is empty.
func NewSMTPTransport(addr, username, password string, timeout time.Duration, logger *slog.Logger) (*SMTPTransport, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp server address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp server port %q: %w", portStr, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithSSL(),
		mail.WithTLSConfig(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}),
	}
	if timeout > 0 {
		opts = append(opts, mail.WithTimeout(timeout))
	}
	if username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(username),
			mail.WithPassword(password),
		)
	}

	client, err := mail.NewClient(host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client for %s: %w", addr, err)
	}

	return &SMTPTransport{
		addr:   addr,
		client: client,
		logger: logger.With("component", "smtp_transport"),
	}, nil
}

// Name implements Transport.
func (t *SMTPTransport) Name() string { return "smtp" }

// Send implements Transport. One connection per message; the relay sends
// rarely and a held connection would time out between messages anyway.
func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m, err := msg.mailMsg(time.Now())
	if err != nil {
		return err
	}

	if err := t.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp delivery via %s failed: %w", t.addr, err)
	}

	t.logger.DebugContext(ctx, "Mail accepted by smtp server", "server", t.addr, "to", msg.To)
	return nil
}
