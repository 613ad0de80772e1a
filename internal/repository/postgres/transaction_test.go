package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transactionColumnNames = []string{
	"id", "book_id", "owner_id", "borrower_id", "group_id",
	"book_title", "book_cover_url", "owner_name", "owner_avatar_url", "borrower_name", "borrower_avatar_url",
	"status", "duration", "duration_days", "due_date", "lending_fee_cents",
	"message", "rejection_reason", "cancellation_reason", "cancelled_by",
	"handover_otp", "handover_otp_expiry", "return_otp", "return_otp_expiry",
	"borrower_payment_confirmed", "owner_payment_confirmed",
	"requested_at", "approved_at", "handover_at", "returned_at", "rejected_at", "cancelled_at",
	"owner_rating", "borrower_rating", "owner_comment", "borrower_comment", "book_condition_rating",
	"due_soon_notified_at", "overdue_notified_at", "version", "updated_at",
}

func activeRow(id string, due time.Time) []driver.Value {
	handover := due.AddDate(0, 0, -14)
	return []driver.Value{
		id, "b1", "u1", "u2", "g1",
		"Dune", "", "Owner", "", "Borrower", "",
		"ACTIVE", "TWO_WEEKS", int64(14), due, int64(0),
		"", "", "", "",
		nil, nil, "4321", due,
		false, false,
		handover, handover, handover, nil, nil, nil,
		nil, nil, nil, nil, nil,
		nil, nil, int64(3), handover,
	}
}

func newMockRepo(t *testing.T) (repository.TransactionRepository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewTransactionRepository(db), mock
}

func TestTransactionRepository_Create(t *testing.T) {
	ctx := context.Background()
	tx := &domain.Transaction{
		ID: "t1", BookID: "b1", OwnerID: "u1", BorrowerID: "u2", GroupID: "g1",
		Status: domain.TransactionStatusPending, Duration: domain.BorrowDurationTwoWeeks, DurationDays: 14,
		RequestedAt: time.Now().UTC(),
	}

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO transactions").WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, tx))
		assert.Equal(t, int64(1), tx.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("OpenRequestExists", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO transactions").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "transactions_open_request_idx"})

		err := repo.Create(ctx, tx)
		assert.ErrorIs(t, err, domain.ErrDuplicateRequest)
	})

	t.Run("OtherError", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("INSERT INTO transactions").WillReturnError(errors.New("connection reset"))

		err := repo.Create(ctx, tx)
		assert.Error(t, err)
		assert.False(t, errors.Is(err, domain.ErrDuplicateRequest))
	})
}

func TestTransactionRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	due := time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE id = \\$1").
			WithArgs("t1").
			WillReturnRows(sqlmock.NewRows(transactionColumnNames).AddRow(activeRow("t1", due)...))

		tx, err := repo.GetByID(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionStatusActive, tx.Status)
		assert.Equal(t, 14, tx.DurationDays)
		require.NotNil(t, tx.DueDate)
		assert.Equal(t, due, *tx.DueDate)
		assert.Nil(t, tx.HandoverOTP)
		require.NotNil(t, tx.ReturnOTP)
		assert.Equal(t, "4321", *tx.ReturnOTP)
		assert.Nil(t, tx.OwnerRating)
		assert.Equal(t, int64(3), tx.Version)
	})

	t.Run("NotFound", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE id = \\$1").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows(transactionColumnNames))

		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestTransactionRepository_Update(t *testing.T) {
	ctx := context.Background()
	tx := &domain.Transaction{ID: "t1", Status: domain.TransactionStatusApproved, Version: 4}

	t.Run("Success", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("UPDATE transactions SET").
			WithArgs(append(anyArgs(24), "t1", domain.TransactionStatusPending, int64(4))...).
			WillReturnResult(sqlmock.NewResult(0, 1))

		update := tx.Clone()
		require.NoError(t, repo.Update(ctx, update, domain.TransactionStatusPending))
		assert.Equal(t, int64(5), update.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Stale", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec("UPDATE transactions SET").WillReturnResult(sqlmock.NewResult(0, 0))

		update := tx.Clone()
		err := repo.Update(ctx, update, domain.TransactionStatusPending)
		assert.ErrorIs(t, err, domain.ErrConflictStale)
		assert.Equal(t, int64(4), update.Version)
	})
}

func TestTransactionRepository_ListByUser(t *testing.T) {
	ctx := context.Background()
	due := time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)

	t.Run("OwnerWithStatus", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM transactions WHERE owner_id = \\$1 AND status = \\$2").
			WithArgs("u1", domain.TransactionStatusActive).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE owner_id = \\$1 AND status = \\$2 ORDER BY requested_at DESC LIMIT \\$3 OFFSET \\$4").
			WithArgs("u1", domain.TransactionStatusActive, int32(20), int32(0)).
			WillReturnRows(sqlmock.NewRows(transactionColumnNames).AddRow(activeRow("t1", due)...))

		txs, total, err := repo.ListByUser(ctx, repository.TransactionFilter{
			UserID: "u1", Role: domain.PartyRoleOwner, Status: domain.TransactionStatusActive, Limit: 20,
		})
		require.NoError(t, err)
		assert.Equal(t, int32(1), total)
		require.Len(t, txs, 1)
		assert.Equal(t, "t1", txs[0].ID)
	})

	t.Run("EitherSide", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery("SELECT count\\(\\*\\) FROM transactions WHERE \\(owner_id = \\$1 OR borrower_id = \\$1\\)").
			WithArgs("u2").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE \\(owner_id = \\$1 OR borrower_id = \\$1\\) ORDER BY").
			WithArgs("u2", int32(10), int32(10)).
			WillReturnRows(sqlmock.NewRows(transactionColumnNames))

		txs, total, err := repo.ListByUser(ctx, repository.TransactionFilter{UserID: "u2", Limit: 10, Offset: 10})
		require.NoError(t, err)
		assert.Equal(t, int32(0), total)
		assert.Empty(t, txs)
	})
}

func TestTransactionRepository_Sweeps(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 4, 16, 10, 0, 0, 0, time.UTC)

	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM transactions\\s+WHERE status = \\$1 AND due_date < \\$2 AND overdue_notified_at IS NULL").
		WithArgs(domain.TransactionStatusActive, time.Date(2025, 4, 17, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(sqlmock.NewRows(transactionColumnNames).AddRow(activeRow("t1", now.AddDate(0, 0, -1))...))
	mock.ExpectQuery("SELECT (.+) FROM transactions\\s+WHERE status = \\$1 AND due_date >= \\$2 AND due_date < \\$3 AND due_soon_notified_at IS NULL").
		WithArgs(domain.TransactionStatusActive, now, now.Add(24*time.Hour)).
		WillReturnRows(sqlmock.NewRows(transactionColumnNames))

	overdue, err := repo.ListOverdue(ctx, now)
	require.NoError(t, err)
	assert.Len(t, overdue, 1)

	dueSoon, err := repo.ListDueBetween(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, dueSoon)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}
