package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/logger"
	"bookshare-backend/internal/repository"
)

const transactionColumns = `id, book_id, owner_id, borrower_id, group_id,
	book_title, book_cover_url, owner_name, owner_avatar_url, borrower_name, borrower_avatar_url,
	status, duration, duration_days, due_date, lending_fee_cents,
	message, rejection_reason, cancellation_reason, cancelled_by,
	handover_otp, handover_otp_expiry, return_otp, return_otp_expiry,
	borrower_payment_confirmed, owner_payment_confirmed,
	requested_at, approved_at, handover_at, returned_at, rejected_at, cancelled_at,
	owner_rating, borrower_rating, owner_comment, borrower_comment, book_condition_rating,
	due_soon_notified_at, overdue_notified_at, version, updated_at`

type transactionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	tx := &domain.Transaction{}
	err := row.Scan(
		&tx.ID, &tx.BookID, &tx.OwnerID, &tx.BorrowerID, &tx.GroupID,
		&tx.BookTitle, &tx.BookCoverURL, &tx.OwnerName, &tx.OwnerAvatarURL, &tx.BorrowerName, &tx.BorrowerAvatarURL,
		&tx.Status, &tx.Duration, &tx.DurationDays, &tx.DueDate, &tx.LendingFeeCents,
		&tx.Message, &tx.RejectionReason, &tx.CancellationReason, &tx.CancelledBy,
		&tx.HandoverOTP, &tx.HandoverOTPExpiry, &tx.ReturnOTP, &tx.ReturnOTPExpiry,
		&tx.Payment.BorrowerConfirmed, &tx.Payment.OwnerConfirmed,
		&tx.RequestedAt, &tx.ApprovedAt, &tx.HandoverAt, &tx.ReturnedAt, &tx.RejectedAt, &tx.CancelledAt,
		&tx.OwnerRating, &tx.BorrowerRating, &tx.OwnerComment, &tx.BorrowerComment, &tx.BookConditionRating,
		&tx.DueSoonNotifiedAt, &tx.OverdueNotifiedAt, &tx.Version, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	logger.EnterMethod("transactionRepository.Create", "bookID", tx.BookID, "borrowerID", tx.BorrowerID)

	tx.Version = 1
	tx.UpdatedAt = r.now()
	query := `INSERT INTO transactions (` + transactionColumns + `) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
		$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34, $35, $36, $37, $38, $39, $40, $41)`
	logger.DatabaseCall("INSERT", "transactions", "transactionID", tx.ID)

	res, err := r.db.ExecContext(ctx, query,
		tx.ID, tx.BookID, tx.OwnerID, tx.BorrowerID, tx.GroupID,
		tx.BookTitle, tx.BookCoverURL, tx.OwnerName, tx.OwnerAvatarURL, tx.BorrowerName, tx.BorrowerAvatarURL,
		tx.Status, tx.Duration, tx.DurationDays, tx.DueDate, tx.LendingFeeCents,
		tx.Message, tx.RejectionReason, tx.CancellationReason, tx.CancelledBy,
		tx.HandoverOTP, tx.HandoverOTPExpiry, tx.ReturnOTP, tx.ReturnOTPExpiry,
		tx.Payment.BorrowerConfirmed, tx.Payment.OwnerConfirmed,
		tx.RequestedAt, tx.ApprovedAt, tx.HandoverAt, tx.ReturnedAt, tx.RejectedAt, tx.CancelledAt,
		tx.OwnerRating, tx.BorrowerRating, tx.OwnerComment, tx.BorrowerComment, tx.BookConditionRating,
		tx.DueSoonNotifiedAt, tx.OverdueNotifiedAt, tx.Version, tx.UpdatedAt,
	)
	if err != nil {
		logger.DatabaseResult("INSERT", 0, err, "transactionID", tx.ID)
		if isUniqueViolation(err) {
			logger.ExitMethodWithError("transactionRepository.Create", domain.ErrDuplicateRequest, "bookID", tx.BookID)
			return fmt.Errorf("book %s: %w", tx.BookID, domain.ErrDuplicateRequest)
		}
		logger.ExitMethodWithError("transactionRepository.Create", err)
		return fmt.Errorf("failed to insert transaction: %w", err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("INSERT", n, nil, "transactionID", tx.ID)
	logger.ExitMethod("transactionRepository.Create", "transactionID", tx.ID)
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	logger.DatabaseCall("SELECT", "transactions", "transactionID", id)
	tx, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "transactionID", id)
		return nil, fmt.Errorf("failed to load transaction %s: %w", id, err)
	}
	return tx, nil
}

func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction, expected domain.TransactionStatus) error {
	logger.EnterMethod("transactionRepository.Update", "transactionID", tx.ID, "expected", expected, "status", tx.Status, "version", tx.Version)

	now := r.now()
	query := `UPDATE transactions SET
		status = $1, due_date = $2, rejection_reason = $3, cancellation_reason = $4, cancelled_by = $5,
		handover_otp = $6, handover_otp_expiry = $7, return_otp = $8, return_otp_expiry = $9,
		borrower_payment_confirmed = $10, owner_payment_confirmed = $11,
		approved_at = $12, handover_at = $13, returned_at = $14, rejected_at = $15, cancelled_at = $16,
		owner_rating = $17, borrower_rating = $18, owner_comment = $19, borrower_comment = $20, book_condition_rating = $21,
		due_soon_notified_at = $22, overdue_notified_at = $23,
		version = version + 1, updated_at = $24
		WHERE id = $25 AND status = $26 AND version = $27`
	logger.DatabaseCall("UPDATE", "transactions", "transactionID", tx.ID)

	res, err := r.db.ExecContext(ctx, query,
		tx.Status, tx.DueDate, tx.RejectionReason, tx.CancellationReason, tx.CancelledBy,
		tx.HandoverOTP, tx.HandoverOTPExpiry, tx.ReturnOTP, tx.ReturnOTPExpiry,
		tx.Payment.BorrowerConfirmed, tx.Payment.OwnerConfirmed,
		tx.ApprovedAt, tx.HandoverAt, tx.ReturnedAt, tx.RejectedAt, tx.CancelledAt,
		tx.OwnerRating, tx.BorrowerRating, tx.OwnerComment, tx.BorrowerComment, tx.BookConditionRating,
		tx.DueSoonNotifiedAt, tx.OverdueNotifiedAt,
		now,
		tx.ID, expected, tx.Version,
	)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "transactionID", tx.ID)
		logger.ExitMethodWithError("transactionRepository.Update", err)
		return fmt.Errorf("failed to update transaction %s: %w", tx.ID, err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, err, "transactionID", tx.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", tx.ID, err)
	}
	if n == 0 {
		logger.ExitMethodWithError("transactionRepository.Update", domain.ErrConflictStale, "transactionID", tx.ID)
		return fmt.Errorf("transaction %s: %w", tx.ID, domain.ErrConflictStale)
	}

	tx.Version++
	tx.UpdatedAt = now
	logger.ExitMethod("transactionRepository.Update", "transactionID", tx.ID, "version", tx.Version)
	return nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, f repository.TransactionFilter) ([]domain.Transaction, int32, error) {
	var where string
	switch f.Role {
	case domain.PartyRoleOwner:
		where = `owner_id = $1`
	case domain.PartyRoleBorrower:
		where = `borrower_id = $1`
	default:
		where = `(owner_id = $1 OR borrower_id = $1)`
	}
	args := []interface{}{f.UserID}
	argIdx := 2
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, f.Status)
		argIdx++
	}

	var count int32
	countQuery := `SELECT count(*) FROM transactions WHERE ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where +
		fmt.Sprintf(" ORDER BY requested_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, f.Limit, f.Offset)

	txs, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return txs, count, nil
}

func (r *transactionRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE status = $1 AND due_date < $2 AND overdue_notified_at IS NULL
		ORDER BY due_date`
	return r.query(ctx, query, domain.TransactionStatusActive, domain.OverdueCutoff(now))
}

func (r *transactionRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
		WHERE status = $1 AND due_date >= $2 AND due_date < $3 AND due_soon_notified_at IS NULL
		ORDER BY due_date`
	return r.query(ctx, query, domain.TransactionStatusActive, from, to)
}

func (r *transactionRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.Transaction, error) {
	logger.DatabaseCall("SELECT", "transactions")
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err)
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txs = append(txs, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transactions: %w", err)
	}
	logger.DatabaseResult("SELECT", int64(len(txs)), nil)
	return txs, nil
}
