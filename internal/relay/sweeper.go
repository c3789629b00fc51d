package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/edgard/chatrelay/internal/database"
	"github.com/edgard/chatrelay/internal/hours"
	"github.com/edgard/chatrelay/internal/metrics"
)

// SweepResult summarizes one sweep.
type SweepResult struct {
	// Countries whose window was open.
	Countries []string
	Flushed   int
	Failed    int
}

// Sweeper flushes deferred messages of countries whose window is open.
type Sweeper struct {
	store    database.Store
	resolver *hours.Resolver
	notifier Notifier
	logger   *slog.Logger
}

// NewSweeper creates a Sweeper.
func NewSweeper(store database.Store, resolver *hours.Resolver, notifier Notifier, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Sweeper{
		store:    store,
		resolver: resolver,
		notifier: notifier,
		logger:   logger.With("component", "sweeper"),
	}
}

// Sweep mails and flips to sent every deferred message of each country
// whose window contains now. A failed send leaves its message deferred and
// the sweep continues. Store errors are collected per country and returned
// joined after all countries were visited.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	var (
		result SweepResult
		errs   []error
	)
	now = s.resolver.Normalize(now)

	for _, country := range s.resolver.Countries() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		window, err := s.resolver.Resolve(country, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !window.Contains(now) {
			continue
		}
		result.Countries = append(result.Countries, country)

		messages, err := s.store.GetDeferredMessages(ctx, country)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to load deferred messages", "country", country, "error", err)
			errs = append(errs, err)
			continue
		}

		for _, m := range messages {
			if s.flush(ctx, m) {
				result.Flushed++
			} else {
				result.Failed++
			}
		}
	}

	s.updateBacklog(ctx)

	if result.Flushed > 0 || result.Failed > 0 {
		s.logger.InfoContext(ctx, "Sweep finished",
			"countries", result.Countries, "flushed", result.Flushed, "failed", result.Failed)
	}
	return result, errors.Join(errs...)
}

func (s *Sweeper) flush(ctx context.Context, m *database.Message) bool {
	if err := s.notifier.Notify(ctx, m); err != nil {
		s.logger.WarnContext(ctx, "Failed to send deferred message, keeping it deferred",
			"update_id", m.UpdateID, "country", m.Country, "error", err)
		metrics.SweepFlushed.WithLabelValues(m.Country, metrics.ResultError).Inc()
		return false
	}

	flipped, err := s.store.MarkSent(ctx, m.UpdateID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Deferred message was mailed but could not be marked sent",
			"update_id", m.UpdateID, "error", err)
		metrics.SweepFlushed.WithLabelValues(m.Country, metrics.ResultError).Inc()
		return false
	}
	if !flipped {
		s.logger.WarnContext(ctx, "Deferred message changed state during sweep", "update_id", m.UpdateID)
	}

	metrics.SweepFlushed.WithLabelValues(m.Country, metrics.ResultOK).Inc()
	return true
}

func (s *Sweeper) updateBacklog(ctx context.Context) {
	counts, err := s.store.CountDeferredByCountry(ctx)
	if err != nil {
		s.logger.DebugContext(ctx, "Could not refresh deferred backlog gauge", "error", err)
		return
	}
	for _, country := range s.resolver.Countries() {
		metrics.DeferredBacklog.WithLabelValues(country).Set(float64(counts[country]))
	}
}
