package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookshare-backend/internal/clock"
	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/logger"
)

// SendOverdueNotices fires one OVERDUE notice per ACTIVE transaction past its due date.
// The status stays ACTIVE; only the overdue marker is set.
func (jr *JobRunner) SendOverdueNotices() {
	jr.runWithRecovery("SendOverdueNotices", func() {
		sent, err := jr.sendOverdueNotices(context.Background())
		if err != nil {
			logger.Error("Failed to send overdue notices", "error", err)
			return
		}
		logger.Info("Sent overdue notices", "count", sent)
	})
}

func (jr *JobRunner) sendOverdueNotices(ctx context.Context) (int, error) {
	now := jr.clock.Now()
	txns, err := jr.store.Transactions().ListOverdue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list overdue: %w", err)
	}

	sent := 0
	for i := range txns {
		tx := &txns[i]
		marked, err := jr.mark(ctx, tx, func(t *domain.Transaction) bool {
			if t.OverdueNotifiedAt != nil || !t.IsOverdue(now) {
				return false
			}
			t.OverdueNotifiedAt = &now
			t.UpdatedAt = now
			return true
		})
		if err != nil {
			logger.Error("Failed to mark transaction overdue", "transaction_id", tx.ID, "error", err)
			continue
		}
		if !marked {
			continue
		}
		jr.notifier.Notify(ctx, domain.TransitionEvent{Type: domain.NotificationTypeOverdue, Transaction: *tx})
		sent++
	}
	return sent, nil
}

// SendDueSoonReminders reminds borrowers whose book is due on the configured day ahead (UTC).
func (jr *JobRunner) SendDueSoonReminders() {
	jr.runWithRecovery("SendDueSoonReminders", func() {
		sent, err := jr.sendDueSoonReminders(context.Background())
		if err != nil {
			logger.Error("Failed to send due-soon reminders", "error", err)
			return
		}
		logger.Info("Sent due-soon reminders", "count", sent)
	})
}

func (jr *JobRunner) sendDueSoonReminders(ctx context.Context) (int, error) {
	now := jr.clock.Now()
	from, to := dueSoonWindow(now, jr.config.Notifications.DueSoonDays)
	txns, err := jr.store.Transactions().ListDueBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("list due between: %w", err)
	}

	sent := 0
	for i := range txns {
		tx := &txns[i]
		marked, err := jr.mark(ctx, tx, func(t *domain.Transaction) bool {
			if t.DueSoonNotifiedAt != nil || t.Status != domain.TransactionStatusActive {
				return false
			}
			t.DueSoonNotifiedAt = &now
			t.UpdatedAt = now
			return true
		})
		if err != nil {
			logger.Error("Failed to mark transaction due soon", "transaction_id", tx.ID, "error", err)
			continue
		}
		if !marked {
			continue
		}
		jr.notifier.Notify(ctx, domain.TransitionEvent{Type: domain.NotificationTypeDueSoon, Transaction: *tx})
		sent++
	}
	return sent, nil
}

// dueSoonWindow is the whole UTC day that lies days ahead of now.
func dueSoonWindow(now time.Time, days int) (time.Time, time.Time) {
	from := clock.StartOfDay(now).AddDate(0, 0, days)
	return from, from.AddDate(0, 0, 1)
}

// mark applies set and writes it conditionally on ACTIVE. On a stale write it re-reads and
// re-applies. It reports false when set declines, meaning another run already handled the record.
func (jr *JobRunner) mark(ctx context.Context, tx *domain.Transaction, set func(*domain.Transaction) bool) (bool, error) {
	repo := jr.store.Transactions()
	for attempt := 1; ; attempt++ {
		if !set(tx) {
			return false, nil
		}
		err := repo.Update(ctx, tx, domain.TransactionStatusActive)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, domain.ErrConflictStale) || attempt == markerWriteAttempts {
			return false, err
		}
		fresh, err := repo.GetByID(ctx, tx.ID)
		if err != nil {
			return false, err
		}
		*tx = *fresh
	}
}
