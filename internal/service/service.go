package service

import (
	"context"
	"fmt"
	"math"

	"bookshare-backend/internal/domain"
)

// maxWriteAttempts bounds the re-read loop for writes that do not change status.
const maxWriteAttempts = 3

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxMessageLen   = 500
)

type CreateRequestInput struct {
	BookID       string
	Duration     domain.BorrowDuration
	DurationDays int
	Message      string
}

type RateInput struct {
	Rating              int
	Comment             *string
	BookConditionRating *int
}

// ListFilter is a page of the caller's history. Role "" returns both sides.
type ListFilter struct {
	Role   domain.PartyRole
	Status domain.TransactionStatus
	Page   int32
	Limit  int32
}

type TransactionService interface {
	CreateRequest(ctx context.Context, borrowerID string, in CreateRequestInput) (*domain.Transaction, error)
	Approve(ctx context.Context, actorID, id string) (*domain.Transaction, error)
	Reject(ctx context.Context, actorID, id, reason string) (*domain.Transaction, error)
	Cancel(ctx context.Context, actorID, id, reason string) (*domain.Transaction, error)
	ConfirmHandover(ctx context.Context, actorID, id, code string) (*domain.Transaction, error)
	ConfirmReturn(ctx context.Context, actorID, id, code string) (*domain.Transaction, error)
	RegenerateOTP(ctx context.Context, actorID, id string) (*domain.Transaction, error)
	Rate(ctx context.Context, actorID, id string, in RateInput) (*domain.Transaction, error)
	MarkPaymentConfirmed(ctx context.Context, actorID, id string, role domain.PartyRole) (*domain.Transaction, error)
	Get(ctx context.Context, actorID, id string) (*domain.Transaction, error)
	ListMine(ctx context.Context, actorID string, filter ListFilter) ([]domain.Transaction, int32, error)
}

type NotificationService interface {
	List(ctx context.Context, userID string, page, limit int32) ([]domain.Notification, int32, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) error
	CountUnread(ctx context.Context, userID string) (int32, error)
}

// Notifier receives committed transitions. It never fails the caller.
type Notifier interface {
	Notify(ctx context.Context, ev domain.TransitionEvent)
}

// pageBounds turns a 1-based page into limit and offset. Pages past the int32 offset range are rejected.
func pageBounds(page, limit int32) (int32, int32, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := (int64(page) - 1) * int64(limit)
	if offset > math.MaxInt32 {
		return 0, 0, fmt.Errorf("%w: page %d is out of range", domain.ErrInvalidArgument, page)
	}
	return limit, int32(offset), nil
}
