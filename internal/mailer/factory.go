package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/chatrelay/internal/config"
	apperrors "github.com/edgard/chatrelay/internal/errors"
)

// NewTransport builds the transport selected by cfg.Provider, wrapped in a
// circuit breaker when cfg.Breaker.Enabled.
func NewTransport(ctx context.Context, cfg config.MailConfig, logger *slog.Logger) (Transport, error) {
	var (
		transport Transport
		err       error
	)

	switch cfg.Provider {
	case "smtp":
		transport, err = NewSMTPTransport(cfg.Server, cfg.Username, cfg.Password, cfg.Timeout, logger)
	case "sendgrid":
		transport, err = NewSendGridTransport(cfg.SendGridAPIKey, logger)
	case "ses":
		transport, err = NewSESTransport(ctx, cfg.SESRegion, logger)
	case "log":
		transport = NewLogTransport(logger)
	default:
		err = fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, apperrors.NewConfigurationError("failed to create mail transport", err)
	}

	if cfg.Breaker.Enabled {
		maxFailures := cfg.Breaker.MaxFailures
		if maxFailures == 0 {
			maxFailures = config.DefaultBreakerMaxFailures
		}
		openTimeout := cfg.Breaker.OpenTimeout
		if openTimeout == 0 {
			openTimeout = config.DefaultBreakerOpenTimeout
		}
		transport = NewBreakerTransport(transport, maxFailures, openTimeout, logger)
	}

	return transport, nil
}
