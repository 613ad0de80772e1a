package firestore

import (
	"context"
	"os"
	"testing"
	"time"

	"bookshare-backend/internal/domain"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionDoc_KeepsNullableFields(t *testing.T) {
	now := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	code := "0042"
	tx := &domain.Transaction{
		ID: "t1", OwnerID: "u1", BorrowerID: "u2",
		Status: domain.TransactionStatusApproved, DurationDays: 7,
		HandoverOTP: &code, HandoverOTPExpiry: &now,
		Payment: domain.PaymentStatus{OwnerConfirmed: true},
		Version: 2,
	}

	doc := toTransactionDoc(tx)
	assert.Equal(t, []string{"u1", "u2"}, doc.Parties)
	assert.Nil(t, doc.ReturnOTP)

	back := doc.toDomain()
	assert.Equal(t, "0042", *back.HandoverOTP)
	assert.Nil(t, back.DueDate)
	assert.True(t, back.Payment.OwnerConfirmed)
	assert.Equal(t, int64(2), back.Version)
}

// The emulator tests run only when FIRESTORE_EMULATOR_HOST is set.
func newEmulatorStore(t *testing.T) *Store {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	client, err := firestore.NewClient(context.Background(), "bookshare-test")
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewStore(client)
}

func TestEmulator_TransactionLifecycle(t *testing.T) {
	store := newEmulatorStore(t)
	ctx := context.Background()
	repo := store.Transactions()
	now := time.Now().UTC().Truncate(time.Microsecond)

	book := uuid.NewString()
	tx := &domain.Transaction{
		ID: uuid.NewString(), BookID: book, OwnerID: "owner", BorrowerID: "borrower",
		Status: domain.TransactionStatusPending, DurationDays: 7, RequestedAt: now,
	}
	require.NoError(t, repo.Create(ctx, tx))

	dup := *tx
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Create(ctx, &dup), domain.ErrDuplicateRequest)

	stale, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)

	fresh, err := repo.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	require.NoError(t, fresh.Approve(now, "1234", now.Add(time.Minute)))
	require.NoError(t, repo.Update(ctx, fresh, domain.TransactionStatusPending))

	require.NoError(t, stale.Reject(now, "late"))
	assert.ErrorIs(t, repo.Update(ctx, stale, domain.TransactionStatusPending), domain.ErrConflictStale)
}

func TestEmulator_NotificationDedupe(t *testing.T) {
	store := newEmulatorStore(t)
	ctx := context.Background()
	repo := store.Notifications()

	key := domain.DedupeKey(uuid.NewString(), domain.NotificationTypeOverdue, "u1")
	note := &domain.Notification{
		ID: domain.NotificationIDFor(key), UserID: "u1", DedupeKey: key,
		Type: domain.NotificationTypeOverdue, CreatedAt: time.Now().UTC(),
	}

	created, err := repo.Create(ctx, note)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.Create(ctx, note)
	require.NoError(t, err)
	assert.False(t, created)
}
