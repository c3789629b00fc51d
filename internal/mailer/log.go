package mailer

import (
	"context"
	"log/slog"
	"time"
)

// LogTransport only logs mail. It is meant for local runs without a mail server.
type LogTransport struct {
	logger *slog.Logger
}

// NewLogTransport creates a LogTransport.
func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransport{logger: logger.With("component", "log_transport")}
}

// Name implements Transport.
func (t *LogTransport) Name() string { return "log" }

// Send implements Transport. The message is rendered so address and
// encoding errors surface the same way they would with a real server.
func (t *LogTransport) Send(ctx context.Context, msg Message) error {
	raw, err := msg.Bytes(time.Now())
	if err != nil {
		return err
	}
	t.logger.InfoContext(ctx, "Would send mail",
		"from", msg.From, "to", msg.To, "subject", msg.Subject, "size", len(raw), "body", msg.Body)
	return nil
}
