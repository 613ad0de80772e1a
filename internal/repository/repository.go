package repository

import (
	"context"
	"time"

	"bookshare-backend/internal/domain"
)

// TransactionFilter scopes a party's transaction history. An empty Role matches both sides.
type TransactionFilter struct {
	UserID string
	Role   domain.PartyRole
	Status domain.TransactionStatus
	Limit  int32
	Offset int32
}

type TransactionRepository interface {
	// Create fails with domain.ErrDuplicateRequest when the borrower already has an open
	// transaction for the same book. The check and the insert are atomic.
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// Update persists tx only if the stored record still has the expected status and
	// tx.Version; otherwise it returns domain.ErrConflictStale. On success tx.Version is bumped.
	Update(ctx context.Context, tx *domain.Transaction, expected domain.TransactionStatus) error
	ListByUser(ctx context.Context, filter TransactionFilter) ([]domain.Transaction, int32, error)
	// ListOverdue returns ACTIVE transactions due on or before now's UTC day that have not had an overdue notice.
	ListOverdue(ctx context.Context, now time.Time) ([]domain.Transaction, error)
	// ListDueBetween returns ACTIVE transactions with from <= due < to that have not had a due-soon reminder.
	ListDueBetween(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)
}

type NotificationRepository interface {
	// Create reports false without error when a record with the same dedupe key already exists.
	Create(ctx context.Context, note *domain.Notification) (bool, error)
	List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error)
	CountUnread(ctx context.Context, userID string) (int32, error)
	MarkAsRead(ctx context.Context, id, userID string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type BookRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Book, error)
}

// Store groups the repositories a backend provides.
type Store interface {
	Transactions() TransactionRepository
	Notifications() NotificationRepository
	Users() UserRepository
	Books() BookRepository
	Close() error
}
