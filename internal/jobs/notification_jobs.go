package jobs

import (
	"context"
	"fmt"

	"bookshare-backend/internal/logger"
)

// PurgeStaleNotifications deletes in-app notifications past the retention window.
func (jr *JobRunner) PurgeStaleNotifications() {
	jr.runWithRecovery("PurgeStaleNotifications", func() {
		deleted, err := jr.purgeStaleNotifications(context.Background())
		if err != nil {
			logger.Error("Failed to purge notifications", "error", err)
			return
		}
		logger.Info("Purged stale notifications", "count", deleted)
	})
}

func (jr *JobRunner) purgeStaleNotifications(ctx context.Context) (int64, error) {
	cutoff := jr.clock.Now().Add(-jr.config.NotificationRetention())
	deleted, err := jr.store.Notifications().DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete notifications before %s: %w", cutoff.Format("2006-01-02"), err)
	}
	return deleted, nil
}
