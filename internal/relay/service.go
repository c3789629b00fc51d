package relay

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/edgard/chatrelay/internal/config"
	"github.com/edgard/chatrelay/internal/database"
	apperrors "github.com/edgard/chatrelay/internal/errors"
	"github.com/edgard/chatrelay/internal/metrics"
)

// Result is the outcome of HandleEvent.
type Result struct {
	// Skipped is set for ignored users and redelivered updates; Decision
	// is empty then.
	Skipped  bool
	Decision Decision
	Sweep    SweepResult
}

// Deferred reports whether the caller should send an out-of-hours reply.
func (r Result) Deferred() bool {
	return !r.Skipped && r.Decision.Disposition == database.DispositionDeferred
}

// Service runs the per-event pipeline: decide, persist, notify, sweep.
// Events are processed one at a time.
type Service struct {
	mu      sync.Mutex
	engine  *Engine
	sweeper *Sweeper
	cfg     *config.RelayConfig
	now     func() time.Time
	logger  *slog.Logger
}

// NewService creates a Service.
func NewService(engine *Engine, sweeper *Sweeper, cfg *config.RelayConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{
		engine:  engine,
		sweeper: sweeper,
		cfg:     cfg,
		now:     time.Now,
		logger:  logger.With("component", "relay_service"),
	}
}

// HandleEvent processes one inbound message. It returns an error only when
// the event was dropped (validation, configuration, or store failure); mail
// failures are logged and reported on the result.
func (s *Service) HandleEvent(ctx context.Context, ev Event) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cfg.IsIgnoredUsername(ev.Username) {
		s.logger.DebugContext(ctx, "Ignoring message from excluded user", "username", ev.Username, "update_id", ev.UpdateID)
		return Result{Skipped: true}, nil
	}

	decision, err := s.engine.Decide(ctx, ev)
	if errors.Is(err, database.ErrDuplicateUpdate) {
		return Result{Skipped: true}, nil
	}
	if err != nil {
		metrics.EventErrors.WithLabelValues(apperrors.Code(err)).Inc()
		s.logger.ErrorContext(ctx, "Dropping event", "update_id", ev.UpdateID, "code", apperrors.Code(err), "error", err)
		return Result{}, err
	}

	result := Result{Decision: decision}

	sweep, err := s.sweeper.Sweep(ctx, s.now())
	if err != nil {
		s.logger.WarnContext(ctx, "Sweep finished with errors", "error", err)
	}
	result.Sweep = sweep

	return result, nil
}
