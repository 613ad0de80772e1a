package firestore

import (
	"context"
	"fmt"
	"time"

	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/logger"
	"bookshare-backend/internal/repository"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
)

type transactionDoc struct {
	ID         string `firestore:"id"`
	BookID     string `firestore:"book_id"`
	OwnerID    string `firestore:"owner_id"`
	BorrowerID string `firestore:"borrower_id"`
	GroupID    string `firestore:"group_id"`
	// Parties lets one array-contains query serve the "either side" history.
	Parties []string `firestore:"parties"`

	BookTitle         string `firestore:"book_title"`
	BookCoverURL      string `firestore:"book_cover_url"`
	OwnerName         string `firestore:"owner_name"`
	OwnerAvatarURL    string `firestore:"owner_avatar_url"`
	BorrowerName      string `firestore:"borrower_name"`
	BorrowerAvatarURL string `firestore:"borrower_avatar_url"`

	Status             string     `firestore:"status"`
	Duration           string     `firestore:"duration"`
	DurationDays       int        `firestore:"duration_days"`
	DueDate            *time.Time `firestore:"due_date"`
	LendingFeeCents    int64      `firestore:"lending_fee_cents"`
	Message            string     `firestore:"message"`
	RejectionReason    string     `firestore:"rejection_reason"`
	CancellationReason string     `firestore:"cancellation_reason"`
	CancelledBy        string     `firestore:"cancelled_by"`

	HandoverOTP       *string    `firestore:"handover_otp"`
	HandoverOTPExpiry *time.Time `firestore:"handover_otp_expiry"`
	ReturnOTP         *string    `firestore:"return_otp"`
	ReturnOTPExpiry   *time.Time `firestore:"return_otp_expiry"`

	BorrowerPaymentConfirmed bool `firestore:"borrower_payment_confirmed"`
	OwnerPaymentConfirmed    bool `firestore:"owner_payment_confirmed"`

	RequestedAt time.Time  `firestore:"requested_at"`
	ApprovedAt  *time.Time `firestore:"approved_at"`
	HandoverAt  *time.Time `firestore:"handover_at"`
	ReturnedAt  *time.Time `firestore:"returned_at"`
	RejectedAt  *time.Time `firestore:"rejected_at"`
	CancelledAt *time.Time `firestore:"cancelled_at"`

	OwnerRating         *int    `firestore:"owner_rating"`
	BorrowerRating      *int    `firestore:"borrower_rating"`
	OwnerComment        *string `firestore:"owner_comment"`
	BorrowerComment     *string `firestore:"borrower_comment"`
	BookConditionRating *int    `firestore:"book_condition_rating"`

	DueSoonNotifiedAt *time.Time `firestore:"due_soon_notified_at"`
	OverdueNotifiedAt *time.Time `firestore:"overdue_notified_at"`

	Version   int64     `firestore:"version"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func toTransactionDoc(tx *domain.Transaction) *transactionDoc {
	return &transactionDoc{
		ID: tx.ID, BookID: tx.BookID, OwnerID: tx.OwnerID, BorrowerID: tx.BorrowerID, GroupID: tx.GroupID,
		Parties:   []string{tx.OwnerID, tx.BorrowerID},
		BookTitle: tx.BookTitle, BookCoverURL: tx.BookCoverURL,
		OwnerName: tx.OwnerName, OwnerAvatarURL: tx.OwnerAvatarURL,
		BorrowerName: tx.BorrowerName, BorrowerAvatarURL: tx.BorrowerAvatarURL,
		Status: string(tx.Status), Duration: string(tx.Duration), DurationDays: tx.DurationDays,
		DueDate: tx.DueDate, LendingFeeCents: tx.LendingFeeCents,
		Message: tx.Message, RejectionReason: tx.RejectionReason,
		CancellationReason: tx.CancellationReason, CancelledBy: tx.CancelledBy,
		HandoverOTP: tx.HandoverOTP, HandoverOTPExpiry: tx.HandoverOTPExpiry,
		ReturnOTP: tx.ReturnOTP, ReturnOTPExpiry: tx.ReturnOTPExpiry,
		BorrowerPaymentConfirmed: tx.Payment.BorrowerConfirmed, OwnerPaymentConfirmed: tx.Payment.OwnerConfirmed,
		RequestedAt: tx.RequestedAt, ApprovedAt: tx.ApprovedAt, HandoverAt: tx.HandoverAt,
		ReturnedAt: tx.ReturnedAt, RejectedAt: tx.RejectedAt, CancelledAt: tx.CancelledAt,
		OwnerRating: tx.OwnerRating, BorrowerRating: tx.BorrowerRating,
		OwnerComment: tx.OwnerComment, BorrowerComment: tx.BorrowerComment,
		BookConditionRating: tx.BookConditionRating,
		DueSoonNotifiedAt:   tx.DueSoonNotifiedAt, OverdueNotifiedAt: tx.OverdueNotifiedAt,
		Version: tx.Version, UpdatedAt: tx.UpdatedAt,
	}
}

func (d *transactionDoc) toDomain() *domain.Transaction {
	return &domain.Transaction{
		ID: d.ID, BookID: d.BookID, OwnerID: d.OwnerID, BorrowerID: d.BorrowerID, GroupID: d.GroupID,
		BookTitle: d.BookTitle, BookCoverURL: d.BookCoverURL,
		OwnerName: d.OwnerName, OwnerAvatarURL: d.OwnerAvatarURL,
		BorrowerName: d.BorrowerName, BorrowerAvatarURL: d.BorrowerAvatarURL,
		Status: domain.TransactionStatus(d.Status), Duration: domain.BorrowDuration(d.Duration),
		DurationDays: d.DurationDays, DueDate: utc(d.DueDate), LendingFeeCents: d.LendingFeeCents,
		Message: d.Message, RejectionReason: d.RejectionReason,
		CancellationReason: d.CancellationReason, CancelledBy: d.CancelledBy,
		HandoverOTP: d.HandoverOTP, HandoverOTPExpiry: utc(d.HandoverOTPExpiry),
		ReturnOTP: d.ReturnOTP, ReturnOTPExpiry: utc(d.ReturnOTPExpiry),
		Payment: domain.PaymentStatus{
			BorrowerConfirmed: d.BorrowerPaymentConfirmed,
			OwnerConfirmed:    d.OwnerPaymentConfirmed,
		},
		RequestedAt: d.RequestedAt.UTC(), ApprovedAt: utc(d.ApprovedAt), HandoverAt: utc(d.HandoverAt),
		ReturnedAt: utc(d.ReturnedAt), RejectedAt: utc(d.RejectedAt), CancelledAt: utc(d.CancelledAt),
		OwnerRating: d.OwnerRating, BorrowerRating: d.BorrowerRating,
		OwnerComment: d.OwnerComment, BorrowerComment: d.BorrowerComment,
		BookConditionRating: d.BookConditionRating,
		DueSoonNotifiedAt:   utc(d.DueSoonNotifiedAt), OverdueNotifiedAt: utc(d.OverdueNotifiedAt),
		Version: d.Version, UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func openStatuses() []string {
	out := make([]string, len(domain.OpenStatuses))
	for i, s := range domain.OpenStatuses {
		out[i] = string(s)
	}
	return out
}

type transactionRepository Store

func (r *transactionRepository) col() *firestore.CollectionRef {
	return r.client.Collection(transactionsCollection)
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	logger.EnterMethod("firestore.transactionRepository.Create", "bookID", tx.BookID, "borrowerID", tx.BorrowerID)

	tx.Version = 1
	tx.UpdatedAt = r.now()
	open := r.col().
		Where("book_id", "==", tx.BookID).
		Where("borrower_id", "==", tx.BorrowerID).
		Where("status", "in", openStatuses()).
		Limit(1)

	logger.DatabaseCall("RunTransaction", transactionsCollection, "transactionID", tx.ID)
	err := r.client.RunTransaction(ctx, func(ctx context.Context, ft *firestore.Transaction) error {
		existing, err := ft.Documents(open).GetAll()
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return fmt.Errorf("book %s: %w", tx.BookID, domain.ErrDuplicateRequest)
		}
		return ft.Create(r.col().Doc(tx.ID), toTransactionDoc(tx))
	})
	logger.DatabaseResult("RunTransaction", 1, err, "transactionID", tx.ID)
	if err != nil {
		logger.ExitMethodWithError("firestore.transactionRepository.Create", err)
		return err
	}
	logger.ExitMethod("firestore.transactionRepository.Create", "transactionID", tx.ID)
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	snap, err := r.col().Doc(id).Get(ctx)
	if isCode(err, codes.NotFound) {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction %s: %w", id, err)
	}
	var doc transactionDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode transaction %s: %w", id, err)
	}
	return doc.toDomain(), nil
}

func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction, expected domain.TransactionStatus) error {
	logger.EnterMethod("firestore.transactionRepository.Update", "transactionID", tx.ID, "expected", expected, "version", tx.Version)

	ref := r.col().Doc(tx.ID)
	next := tx.Clone()
	next.Version = tx.Version + 1
	next.UpdatedAt = r.now()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, ft *firestore.Transaction) error {
		snap, err := ft.Get(ref)
		if isCode(err, codes.NotFound) {
			return fmt.Errorf("transaction %s: %w", tx.ID, domain.ErrNotFound)
		}
		if err != nil {
			return err
		}
		var current transactionDoc
		if err := snap.DataTo(&current); err != nil {
			return err
		}
		if current.Status != string(expected) || current.Version != tx.Version {
			return fmt.Errorf("transaction %s: %w", tx.ID, domain.ErrConflictStale)
		}
		return ft.Set(ref, toTransactionDoc(next))
	})
	if err != nil {
		logger.ExitMethodWithError("firestore.transactionRepository.Update", err, "transactionID", tx.ID)
		return err
	}
	tx.Version = next.Version
	tx.UpdatedAt = next.UpdatedAt
	logger.ExitMethod("firestore.transactionRepository.Update", "transactionID", tx.ID, "version", tx.Version)
	return nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, f repository.TransactionFilter) ([]domain.Transaction, int32, error) {
	var q firestore.Query
	switch f.Role {
	case domain.PartyRoleOwner:
		q = r.col().Where("owner_id", "==", f.UserID)
	case domain.PartyRoleBorrower:
		q = r.col().Where("borrower_id", "==", f.UserID)
	default:
		q = r.col().Where("parties", "array-contains", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("status", "==", string(f.Status))
	}

	res, err := q.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}
	var total int32
	if v, ok := res["total"].(*firestorepb.Value); ok {
		total = int32(v.GetIntegerValue())
	}

	q = q.OrderBy("requested_at", firestore.Desc).Offset(int(f.Offset))
	if f.Limit > 0 {
		q = q.Limit(int(f.Limit))
	}
	txs, err := r.collect(q.Documents(ctx))
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (r *transactionRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.Transaction, error) {
	q := r.col().
		Where("status", "==", string(domain.TransactionStatusActive)).
		Where("due_date", "<", domain.OverdueCutoff(now)).
		Where("overdue_notified_at", "==", nil).
		OrderBy("due_date", firestore.Asc)
	return r.collect(q.Documents(ctx))
}

func (r *transactionRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	q := r.col().
		Where("status", "==", string(domain.TransactionStatusActive)).
		Where("due_date", ">=", from).
		Where("due_date", "<", to).
		Where("due_soon_notified_at", "==", nil).
		OrderBy("due_date", firestore.Asc)
	return r.collect(q.Documents(ctx))
}

func (r *transactionRepository) collect(iter *firestore.DocumentIterator) ([]domain.Transaction, error) {
	defer iter.Stop()
	var txs []domain.Transaction
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to query transactions: %w", err)
		}
		var doc transactionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode transaction %s: %w", snap.Ref.ID, err)
		}
		txs = append(txs, *doc.toDomain())
	}
	return txs, nil
}
