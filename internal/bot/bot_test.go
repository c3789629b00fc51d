package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatrelay/internal/bot/tasks"
	"github.com/edgard/chatrelay/internal/config"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type blockingListener struct{ started atomic.Bool }

func (l *blockingListener) Start(ctx context.Context) {
	l.started.Store(true)
	<-ctx.Done()
}

type returningListener struct{}

func (returningListener) Start(context.Context) {}

type failingComponent struct{ err error }

func (c failingComponent) Run(context.Context) error { return c.err }

func newTestScheduler(t *testing.T, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) *Scheduler {
	t.Helper()
	s, err := NewScheduler(discard, cfg, taskMap)
	require.NoError(t, err)
	return s
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	listener := &blockingListener{}
	b := NewBot(discard, listener, newTestScheduler(t, &config.SchedulerConfig{}, nil), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	assert.Eventually(t, listener.started.Load, time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRunFailsWhenListenerStops(t *testing.T) {
	t.Parallel()

	b := NewBot(discard, returningListener{}, newTestScheduler(t, nil, nil), nil)
	err := b.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpectedly")
}

func TestRunFailsWhenMonitorFails(t *testing.T) {
	t.Parallel()

	listenErr := errors.New("address already in use")
	b := NewBot(discard, &blockingListener{}, newTestScheduler(t, nil, nil), failingComponent{err: listenErr})
	err := b.Run(context.Background())
	assert.ErrorIs(t, err, listenErr)
}

func TestSchedulerSkipsUnknownAndDisabledTasks(t *testing.T) {
	t.Parallel()

	noop := func(context.Context) error { return nil }
	cfg := &config.SchedulerConfig{Tasks: map[string]config.TaskConfig{
		config.TaskSQLMaintenance: {Enabled: true, Schedule: "0 0 4 * * 0"},
		"disabled":                {Enabled: false, Schedule: "0 0 4 * * 0"},
		"unknown":                 {Enabled: true, Schedule: "0 0 4 * * 0"},
		"bad_schedule":            {Enabled: true, Schedule: "not a cron"},
	}}
	s := newTestScheduler(t, cfg, map[string]tasks.ScheduledTaskFunc{
		config.TaskSQLMaintenance: noop,
		"disabled":                noop,
		"bad_schedule":            noop,
	})

	require.NoError(t, s.Start())
	t.Cleanup(func() { _ = s.Stop() })

	assert.Equal(t, []string{config.TaskSQLMaintenance}, s.Jobs())
	assert.Error(t, s.Start())
}
