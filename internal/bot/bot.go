// Package bot wires the relay runtime together and manages its lifecycle.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Listener receives chat updates until ctx is cancelled. *bot.Bot of
// go-telegram/bot satisfies it.
type Listener interface {
	Start(ctx context.Context)
}

// Component is a background service that runs until ctx is cancelled.
type Component interface {
	Run(ctx context.Context) error
}

// Bot runs the Telegram listener, the maintenance scheduler, and the
// optional monitoring server, and stops them all when one fails.
type Bot struct {
	logger    *slog.Logger
	listener  Listener
	scheduler *Scheduler
	monitor   Component
}

// NewBot creates the orchestrator. monitor may be nil.
func NewBot(logger *slog.Logger, listener Listener, scheduler *Scheduler, monitor Component) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		logger:    logger.With("component", "bot_orchestrator"),
		listener:  listener,
		scheduler: scheduler,
		monitor:   monitor,
	}
}

// Run starts all components and blocks until ctx is cancelled or one of
// them fails.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("Starting bot orchestrator")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		b.logger.Info("Starting Telegram bot listener")
		b.listener.Start(gCtx)
		b.logger.Info("Telegram bot listener stopped")

		if gCtx.Err() == nil {
			return fmt.Errorf("telegram listener stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		if err := b.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		b.logger.Info("Shutdown signal received, stopping scheduler")

		if err := b.scheduler.Stop(); err != nil {
			b.logger.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	if b.monitor != nil {
		g.Go(func() error {
			if err := b.monitor.Run(gCtx); err != nil {
				return fmt.Errorf("monitoring server failed: %w", err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		b.logger.Error("Bot orchestrator stopped due to error", "error", err)
		return err
	}

	b.logger.Info("Bot orchestrator stopped gracefully")
	return nil
}
