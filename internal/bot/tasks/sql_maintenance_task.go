package tasks

import (
	"context"
	"fmt"
	"time"
)

// newSQLMaintenanceTask creates the task that compacts the message store.
// The deferred backlog is logged first so a stuck country shows up in the
// weekly run even when nobody is writing to the chats.
func newSQLMaintenanceTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "sql_maintenance")

	return func(ctx context.Context) error {
		backlog, err := deps.Store.CountDeferredByCountry(ctx)
		if err != nil {
			log.WarnContext(ctx, "Could not count deferred messages before compaction", "error", err)
		} else {
			total := 0
			for _, n := range backlog {
				total += n
			}
			log.InfoContext(ctx, "Compacting message store", "deferred_total", total, "deferred_by_country", backlog)
		}

		start := time.Now()
		if err := deps.Store.RunSQLMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "Message store compaction failed", "error", err, "duration", time.Since(start))
			return fmt.Errorf("message store compaction failed: %w", err)
		}

		log.InfoContext(ctx, "Message store compacted", "duration", time.Since(start))
		return nil
	}
}
