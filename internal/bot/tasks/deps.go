// Package tasks implements the scheduled maintenance tasks of the relay.
package tasks

import (
	"log/slog"

	"github.com/edgard/chatrelay/internal/config"
	"github.com/edgard/chatrelay/internal/database"
)

// TaskDeps contains the dependencies of scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
