package jobs

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bookshare-backend/internal/clock"
	"bookshare-backend/internal/config"
	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/logger"
	"bookshare-backend/internal/repository"
	"bookshare-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.TransitionEvent
}

func (n *recordingNotifier) Notify(ctx context.Context, ev domain.TransitionEvent) {
	n.mu.Lock()
	n.events = append(n.events, ev)
	n.mu.Unlock()
}

func (n *recordingNotifier) ids(typ domain.NotificationType) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, ev := range n.events {
		if ev.Type == typ {
			out = append(out, ev.Transaction.ID)
		}
	}
	return out
}

// failingTransactions rejects updates for one transaction.
type failingTransactions struct {
	repository.TransactionRepository
	failID string
}

func (f failingTransactions) Update(ctx context.Context, tx *domain.Transaction, expected domain.TransactionStatus) error {
	if tx.ID == f.failID {
		return errors.New("connection reset")
	}
	return f.TransactionRepository.Update(ctx, tx, expected)
}

type failingStore struct {
	*memory.Store
	failID string
}

func (s failingStore) Transactions() repository.TransactionRepository {
	return failingTransactions{TransactionRepository: s.Store.Transactions(), failID: s.failID}
}

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{Notifications: config.NotificationsConfig{DueSoonDays: 2, RetentionDays: 30}}
}

func seedActive(t *testing.T, store *memory.Store, id string, due time.Time) {
	t.Helper()
	err := store.Transactions().Create(context.Background(), &domain.Transaction{
		ID:          id,
		BookID:      "book-" + id,
		OwnerID:     "u1",
		BorrowerID:  "u2",
		Status:      domain.TransactionStatusActive,
		DueDate:     &due,
		RequestedAt: due.AddDate(0, 0, -14),
	})
	require.NoError(t, err)
}

func TestSendOverdueNotices_FiresOnce(t *testing.T) {
	store := memory.NewStore()
	seedActive(t, store, "late", now.Add(-time.Hour))
	seedActive(t, store, "exact", now)
	seedActive(t, store, "later-today", time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC))
	seedActive(t, store, "tomorrow", time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC))
	n := &recordingNotifier{}
	jr := NewJobRunner(store, n, clock.NewFake(now), testConfig())

	sent, err := jr.sendOverdueNotices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.ElementsMatch(t, []string{"late", "exact", "later-today"}, n.ids(domain.NotificationTypeOverdue))

	tx, err := store.Transactions().GetByID(context.Background(), "late")
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusActive, tx.Status)
	require.NotNil(t, tx.OverdueNotifiedAt)

	sent, err = jr.sendOverdueNotices(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, n.ids(domain.NotificationTypeOverdue), 3)
}

func TestSendOverdueNotices_FailureIsolated(t *testing.T) {
	mem := memory.NewStore()
	seedActive(t, mem, "broken", now.Add(-48*time.Hour))
	seedActive(t, mem, "ok", now.Add(-24*time.Hour))
	n := &recordingNotifier{}
	jr := NewJobRunner(failingStore{Store: mem, failID: "broken"}, n, clock.NewFake(now), testConfig())

	sent, err := jr.sendOverdueNotices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{"ok"}, n.ids(domain.NotificationTypeOverdue))
}

func TestSendDueSoonReminders_Window(t *testing.T) {
	store := memory.NewStore()
	seedActive(t, store, "start", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC))
	seedActive(t, store, "late-in-day", time.Date(2025, 3, 12, 23, 59, 0, 0, time.UTC))
	seedActive(t, store, "tomorrow", time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC))
	seedActive(t, store, "next-day", time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC))
	n := &recordingNotifier{}
	jr := NewJobRunner(store, n, clock.NewFake(now), testConfig())

	sent, err := jr.sendDueSoonReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.ElementsMatch(t, []string{"start", "late-in-day"}, n.ids(domain.NotificationTypeDueSoon))

	sent, err = jr.sendDueSoonReminders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestDueSoonWindow(t *testing.T) {
	from, to := dueSoonWindow(time.Date(2025, 3, 31, 22, 0, 0, 0, time.UTC), 2)
	assert.Equal(t, time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC), to)
}

func TestMark_RetriesStaleWrite(t *testing.T) {
	store := memory.NewStore()
	seedActive(t, store, "t1", now.Add(-time.Hour))
	jr := NewJobRunner(store, &recordingNotifier{}, clock.NewFake(now), testConfig())

	stale, err := store.Transactions().GetByID(context.Background(), "t1")
	require.NoError(t, err)

	// A concurrent writer bumps the version first.
	fresh, err := store.Transactions().GetByID(context.Background(), "t1")
	require.NoError(t, err)
	fresh.Payment.BorrowerConfirmed = true
	require.NoError(t, store.Transactions().Update(context.Background(), fresh, domain.TransactionStatusActive))

	marked, err := jr.mark(context.Background(), stale, func(tx *domain.Transaction) bool {
		if tx.OverdueNotifiedAt != nil {
			return false
		}
		tx.OverdueNotifiedAt = &now
		return true
	})
	require.NoError(t, err)
	assert.True(t, marked)

	got, err := store.Transactions().GetByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.NotNil(t, got.OverdueNotifiedAt)
	assert.True(t, got.Payment.BorrowerConfirmed)
}

func TestPurgeStaleNotifications(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	for id, age := range map[string]time.Duration{"old": 31 * 24 * time.Hour, "recent": 24 * time.Hour} {
		_, err := store.Notifications().Create(ctx, &domain.Notification{
			ID: id, UserID: "u1", DedupeKey: id, Type: domain.NotificationTypeApproved, CreatedAt: now.Add(-age),
		})
		require.NoError(t, err)
	}
	jr := NewJobRunner(store, &recordingNotifier{}, clock.NewFake(now), testConfig())

	deleted, err := jr.purgeStaleNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	notes, total, err := store.Notifications().List(ctx, "u1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), total)
	assert.Equal(t, "recent", notes[0].ID)
}

func TestPublicJobsRecoverFromPanics(t *testing.T) {
	jr := NewJobRunner(nil, &recordingNotifier{}, clock.NewFake(now), testConfig())
	assert.NotPanics(t, jr.RunAllDailyJobs)
	assert.NotPanics(t, jr.RunAllWeeklyJobs)
}

func TestRunWithRecovery_ScopesLogsToJob(t *testing.T) {
	var buf bytes.Buffer
	logger.InitializeWithWriter("info", "text", &buf)
	t.Cleanup(func() { logger.Initialize("info", "text") })

	jr := NewJobRunner(nil, &recordingNotifier{}, clock.NewFake(now), testConfig())
	jr.PurgeStaleNotifications()

	out := buf.String()
	assert.Contains(t, out, "job=PurgeStaleNotifications")
	assert.Contains(t, out, "Job panicked")
}
