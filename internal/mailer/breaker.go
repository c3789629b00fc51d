package mailer

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerTransport fails fast while the wrapped transport keeps failing.
// An open breaker returns gobreaker.ErrOpenState without calling the mail
// server; the caller treats it like any other send failure.
type BreakerTransport struct {
	next    Transport
	breaker *gobreaker.CircuitBreaker
}

// NewBreakerTransport wraps next. The breaker opens after maxFailures
// consecutive failures and half-opens after openTimeout.
func NewBreakerTransport(next Transport, maxFailures uint32, openTimeout time.Duration, logger *slog.Logger) *BreakerTransport {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "mail_breaker")

	settings := gobreaker.Settings{
		Name:        "mail-" + next.Name(),
		MaxRequests: 1,
		Timeout:     openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Mail circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &BreakerTransport{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Name implements Transport.
func (t *BreakerTransport) Name() string { return t.next.Name() }

// Send implements Transport.
func (t *BreakerTransport) Send(ctx context.Context, msg Message) error {
	_, err := t.breaker.Execute(func() (interface{}, error) {
		return nil, t.next.Send(ctx, msg)
	})
	return err
}

// State returns the current breaker state.
func (t *BreakerTransport) State() gobreaker.State {
	return t.breaker.State()
}
