package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bookshare-backend/internal/clock"
	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/logger"
	"bookshare-backend/internal/otp"
	"bookshare-backend/internal/repository"

	"github.com/google/uuid"
)

type transactionService struct {
	txRepo   repository.TransactionRepository
	bookRepo repository.BookRepository
	userRepo repository.UserRepository
	notifier Notifier
	otpGen   *otp.Generator
	clock    clock.Clock
}

func NewTransactionService(
	txRepo repository.TransactionRepository,
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	otpGen *otp.Generator,
	clk clock.Clock,
) TransactionService {
	return &transactionService{
		txRepo:   txRepo,
		bookRepo: bookRepo,
		userRepo: userRepo,
		notifier: notifier,
		otpGen:   otpGen,
		clock:    clk,
	}
}

func (s *transactionService) CreateRequest(ctx context.Context, borrowerID string, in CreateRequestInput) (*domain.Transaction, error) {
	logger.EnterMethod("transactionService.CreateRequest", "borrowerID", borrowerID, "bookID", in.BookID, "duration", in.Duration)

	if strings.TrimSpace(in.BookID) == "" {
		return nil, fmt.Errorf("%w: book id is required", domain.ErrInvalidArgument)
	}
	if len(in.Message) > maxMessageLen {
		return nil, fmt.Errorf("%w: message exceeds %d characters", domain.ErrInvalidArgument, maxMessageLen)
	}
	days, err := domain.ResolveDurationDays(in.Duration, in.DurationDays)
	if err != nil {
		return nil, err
	}

	book, err := s.bookRepo.GetByID(ctx, in.BookID)
	if err != nil {
		logger.ExitMethodWithError("transactionService.CreateRequest", err, "reason", "book lookup failed")
		return nil, err
	}
	if book.OwnerID == borrowerID {
		return nil, domain.ErrSelfBorrow
	}
	borrower, err := s.userRepo.GetByID(ctx, borrowerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load borrower: %w", err)
	}
	owner, err := s.userRepo.GetByID(ctx, book.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load owner: %w", err)
	}

	tx := &domain.Transaction{
		ID:                uuid.NewString(),
		BookID:            book.ID,
		OwnerID:           book.OwnerID,
		BorrowerID:        borrowerID,
		GroupID:           book.GroupID,
		BookTitle:         book.Title,
		BookCoverURL:      book.CoverURL,
		OwnerName:         owner.Name,
		OwnerAvatarURL:    owner.AvatarURL,
		BorrowerName:      borrower.Name,
		BorrowerAvatarURL: borrower.AvatarURL,
		Status:            domain.TransactionStatusPending,
		Duration:          in.Duration,
		DurationDays:      days,
		LendingFeeCents:   book.LendingFeeCents,
		Message:           strings.TrimSpace(in.Message),
		RequestedAt:       s.clock.Now(),
	}
	if err := s.txRepo.Create(ctx, tx); err != nil {
		logger.ExitMethodWithError("transactionService.CreateRequest", err, "bookID", in.BookID)
		return nil, err
	}

	logger.WithTransaction(tx.ID).Info("Borrow request created", "bookID", tx.BookID, "ownerID", tx.OwnerID, "borrowerID", borrowerID)
	s.publish(ctx, domain.NotificationTypeRequestCreated, tx, borrowerID)
	logger.ExitMethod("transactionService.CreateRequest", "transactionID", tx.ID)
	return tx, nil
}

func (s *transactionService) Approve(ctx context.Context, actorID, id string) (*domain.Transaction, error) {
	tx, err := s.loadAs(ctx, actorID, id, domain.PartyRoleOwner)
	if err != nil {
		return nil, err
	}
	code, expiry, err := s.otpGen.Generate()
	if err != nil {
		return nil, err
	}
	next := tx.Clone()
	if err := next.Approve(s.clock.Now(), code, expiry); err != nil {
		return nil, err
	}
	if err := s.txRepo.Update(ctx, next, tx.Status); err != nil {
		return nil, err
	}
	logger.WithTransaction(id).Info("Borrow request approved", "ownerID", actorID)
	s.publish(ctx, domain.NotificationTypeApproved, next, actorID)
	return next, nil
}

func (s *transactionService) Reject(ctx context.Context, actorID, id, reason string) (*domain.Transaction, error) {
	tx, err := s.loadAs(ctx, actorID, id, domain.PartyRoleOwner)
	if err != nil {
		return nil, err
	}
	next := tx.Clone()
	if err := next.Reject(s.clock.Now(), strings.TrimSpace(reason)); err != nil {
		return nil, err
	}
	if err := s.txRepo.Update(ctx, next, tx.Status); err != nil {
		return nil, err
	}
	logger.WithTransaction(id).Info("Borrow request rejected", "ownerID", actorID)
	s.publish(ctx, domain.NotificationTypeRejected, next, actorID)
	return next, nil
}

func (s *transactionService) Cancel(ctx context.Context, actorID, id, reason string) (*domain.Transaction, error) {
	tx, err := s.loadAs(ctx, actorID, id, "")
	if err != nil {
		return nil, err
	}
	next := tx.Clone()
	if err := next.Cancel(s.clock.Now(), actorID, strings.TrimSpace(reason)); err != nil {
		return nil, err
	}
	if err := s.txRepo.Update(ctx, next, tx.Status); err != nil {
		return nil, err
	}
	logger.WithTransaction(id).Info("Borrow cancelled", "by", actorID)
	s.publish(ctx, domain.NotificationTypeCancelled, next, actorID)
	return next, nil
}

// ConfirmHandover is entered by the owner with the code the borrower reads out.
func (s *transactionService) ConfirmHandover(ctx context.Context, actorID, id, code string) (*domain.Transaction, error) {
	tx, err := s.loadAs(ctx, actorID, id, domain.PartyRoleOwner)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.TransactionStatusApproved {
		return nil, fmt.Errorf("%w: handover requires %s, transaction is %s", domain.ErrInvalidTransition, domain.TransactionStatusApproved, tx.Status)
	}
	now := s.clock.Now()
	if res := otp.ValidateStored(code, tx.HandoverOTP, tx.HandoverOTPExpiry, now); res != otp.Valid {
		logger.WithTransaction(id).Warn("Handover code rejected", "result", res.String())
		return nil, res.Err()
	}

	returnCode, returnExpiry, err := s.otpGen.Generate()
	if err != nil {
		return nil, err
	}
	next := tx.Clone()
	if err := next.Handover(now, returnCode, returnExpiry); err != nil {
		return nil, err
	}
	if err := s.txRepo.Update(ctx, next, tx.Status); err != nil {
		return nil, err
	}
	logger.WithTransaction(id).Info("Book handed over", "dueDate", next.DueDate)
	return next, nil
}

// ConfirmReturn is entered by the borrower with the code the owner reads out.
func (s *transactionService) ConfirmReturn(ctx context.Context, actorID, id, code string) (*domain.Transaction, error) {
	tx, err := s.loadAs(ctx, actorID, id, domain.PartyRoleBorrower)
	if err != nil {
		return nil, err
	}
	if tx.Status != domain.TransactionStatusActive {
		return nil, fmt.Errorf("%w: return requires %s, transaction is %s", domain.ErrInvalidTransition, domain.TransactionStatusActive, tx.Status)
	}
	now := s.clock.Now()
	if res := otp.ValidateStored(code, tx.ReturnOTP, tx.ReturnOTPExpiry, now); res != otp.Valid {
		logger.WithTransaction(id).Warn("Return code rejected", "result", res.String())
		return nil, res.Err()
	}

	next := tx.Clone()
	if err := next.Return(now); err != nil {
		return nil, err
	}
	if err := s.txRepo.Update(ctx, next, tx.Status); err != nil {
		return nil, err
	}
	logger.WithTransaction(id).Info("Book returned", "overdue", tx.IsOverdue(now))
	s.publish(ctx, domain.NotificationTypeReturned, next, actorID)
	return next, nil
}

// RegenerateOTP replaces the live code for the current phase. The previous code stops validating.
func (s *transactionService) RegenerateOTP(ctx context.Context, actorID, id string) (*domain.Transaction, error) {
	return s.retryWrite(ctx, actorID, id, func(tx *domain.Transaction, _ domain.PartyRole) error {
		code, expiry, err := s.otpGen.Generate()
		if err != nil {
			return err
		}
		switch tx.Status {
		case domain.TransactionStatusApproved:
			tx.SetHandoverOTP(code, expiry)
		case domain.TransactionStatusActive:
			tx.SetReturnOTP(code, expiry)
		default:
			return fmt.Errorf("%w: no code to regenerate while %s", domain.ErrInvalidTransition, tx.Status)
		}
		return nil
	})
}

func (s *transactionService) Rate(ctx context.Context, actorID, id string, in RateInput) (*domain.Transaction, error) {
	if in.Comment != nil && len(*in.Comment) > maxMessageLen {
		return nil, fmt.Errorf("%w: comment exceeds %d characters", domain.ErrInvalidArgument, maxMessageLen)
	}
	return s.retryWrite(ctx, actorID, id, func(tx *domain.Transaction, role domain.PartyRole) error {
		return tx.Rate(role, in.Rating, in.Comment, in.BookConditionRating)
	})
}

// MarkPaymentConfirmed records one party's attestation. No money moves.
func (s *transactionService) MarkPaymentConfirmed(ctx context.Context, actorID, id string, role domain.PartyRole) (*domain.Transaction, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidArgument, role)
	}
	return s.retryWrite(ctx, actorID, id, func(tx *domain.Transaction, actorRole domain.PartyRole) error {
		if actorRole != role {
			return fmt.Errorf("%w: cannot confirm payment as %s", domain.ErrForbidden, role)
		}
		return tx.ConfirmPayment(role)
	})
}

func (s *transactionService) Get(ctx context.Context, actorID, id string) (*domain.Transaction, error) {
	return s.loadAs(ctx, actorID, id, "")
}

func (s *transactionService) ListMine(ctx context.Context, actorID string, f ListFilter) ([]domain.Transaction, int32, error) {
	if f.Role != "" && !f.Role.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidArgument, f.Role)
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, f.Status)
	}
	limit, offset, err := pageBounds(f.Page, f.Limit)
	if err != nil {
		return nil, 0, err
	}
	return s.txRepo.ListByUser(ctx, repository.TransactionFilter{
		UserID: actorID,
		Role:   f.Role,
		Status: f.Status,
		Limit:  limit,
		Offset: offset,
	})
}

// loadAs reads the transaction and checks the actor's party before any status rule.
// An empty want accepts either party.
func (s *transactionService) loadAs(ctx context.Context, actorID, id string, want domain.PartyRole) (*domain.Transaction, error) {
	tx, err := s.txRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	role, ok := tx.RoleOf(actorID)
	if !ok {
		return nil, fmt.Errorf("%w: not a party to transaction %s", domain.ErrForbidden, id)
	}
	if want != "" && role != want {
		return nil, fmt.Errorf("%w: only the %s may do this", domain.ErrForbidden, strings.ToLower(string(want)))
	}
	return tx, nil
}

// retryWrite applies a status-preserving change, re-reading on a lost race so two parties
// writing their own fields at once both land.
func (s *transactionService) retryWrite(ctx context.Context, actorID, id string, apply func(*domain.Transaction, domain.PartyRole) error) (*domain.Transaction, error) {
	var lastErr error
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		tx, err := s.loadAs(ctx, actorID, id, "")
		if err != nil {
			return nil, err
		}
		role, _ := tx.RoleOf(actorID)
		next := tx.Clone()
		if err := apply(next, role); err != nil {
			return nil, err
		}
		lastErr = s.txRepo.Update(ctx, next, tx.Status)
		if lastErr == nil {
			return next, nil
		}
		if !errors.Is(lastErr, domain.ErrConflictStale) {
			return nil, lastErr
		}
		logger.WithTransaction(id).Debug("Write lost a race, retrying", "attempt", attempt)
	}
	return nil, lastErr
}

// publish hands the committed state to the notifier on a context that outlives the request.
func (s *transactionService) publish(ctx context.Context, typ domain.NotificationType, tx *domain.Transaction, actorID string) {
	s.notifier.Notify(context.WithoutCancel(ctx), domain.TransitionEvent{
		Type:        typ,
		Transaction: *tx.Clone(),
		ActorID:     actorID,
	})
}
