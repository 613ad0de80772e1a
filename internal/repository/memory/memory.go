// Package memory is an in-process Store used by tests and the memory dev mode.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/repository"
)

type Store struct {
	mu            sync.RWMutex
	transactions  map[string]*domain.Transaction
	notifications map[string]*domain.Notification
	users         map[string]domain.User
	books         map[string]domain.Book
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		transactions:  make(map[string]*domain.Transaction),
		notifications: make(map[string]*domain.Notification),
		users:         make(map[string]domain.User),
		books:         make(map[string]domain.Book),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Transactions() repository.TransactionRepository { return (*transactionRepository)(s) }
func (s *Store) Notifications() repository.NotificationRepository {
	return (*notificationRepository)(s)
}
func (s *Store) Users() repository.UserRepository { return (*userRepository)(s) }
func (s *Store) Books() repository.BookRepository { return (*bookRepository)(s) }
func (s *Store) Close() error                     { return nil }

// PutUser seeds a profile.
func (s *Store) PutUser(u domain.User) {
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
}

// PutBook seeds a catalog entry.
func (s *Store) PutBook(b domain.Book) {
	s.mu.Lock()
	s.books[b.ID] = b
	s.mu.Unlock()
}

type transactionRepository Store

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.transactions[tx.ID]; ok {
		return fmt.Errorf("transaction %s already exists", tx.ID)
	}
	for _, existing := range r.transactions {
		if existing.BookID == tx.BookID && existing.BorrowerID == tx.BorrowerID && existing.Status.IsOpen() {
			return fmt.Errorf("book %s: %w", tx.BookID, domain.ErrDuplicateRequest)
		}
	}
	tx.Version = 1
	tx.UpdatedAt = r.now()
	r.transactions[tx.ID] = tx.Clone()
	return nil
}

func (r *transactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tx, ok := r.transactions[id]
	if !ok {
		return nil, fmt.Errorf("transaction %s: %w", id, domain.ErrNotFound)
	}
	return tx.Clone(), nil
}

func (r *transactionRepository) Update(ctx context.Context, tx *domain.Transaction, expected domain.TransactionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.transactions[tx.ID]
	if !ok {
		return fmt.Errorf("transaction %s: %w", tx.ID, domain.ErrNotFound)
	}
	if stored.Status != expected || stored.Version != tx.Version {
		return fmt.Errorf("transaction %s: %w", tx.ID, domain.ErrConflictStale)
	}
	tx.Version++
	tx.UpdatedAt = r.now()
	r.transactions[tx.ID] = tx.Clone()
	return nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, f repository.TransactionFilter) ([]domain.Transaction, int32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.Transaction
	for _, tx := range r.transactions {
		switch f.Role {
		case domain.PartyRoleOwner:
			if tx.OwnerID != f.UserID {
				continue
			}
		case domain.PartyRoleBorrower:
			if tx.BorrowerID != f.UserID {
				continue
			}
		default:
			if tx.OwnerID != f.UserID && tx.BorrowerID != f.UserID {
				continue
			}
		}
		if f.Status != "" && tx.Status != f.Status {
			continue
		}
		matched = append(matched, *tx.Clone())
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].RequestedAt.Equal(matched[j].RequestedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].RequestedAt.After(matched[j].RequestedAt)
	})

	total := int32(len(matched))
	return page(matched, f.Limit, f.Offset), total, nil
}

func (r *transactionRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.Transaction, error) {
	return r.collect(func(tx *domain.Transaction) bool {
		return tx.IsOverdue(now) && tx.OverdueNotifiedAt == nil
	}), nil
}

func (r *transactionRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	return r.collect(func(tx *domain.Transaction) bool {
		return tx.Status == domain.TransactionStatusActive && tx.DueDate != nil && tx.DueSoonNotifiedAt == nil &&
			!tx.DueDate.Before(from) && tx.DueDate.Before(to)
	}), nil
}

func (r *transactionRepository) collect(match func(*domain.Transaction) bool) []domain.Transaction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Transaction
	for _, tx := range r.transactions {
		if match(tx) {
			out = append(out, *tx.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(*out[j].DueDate) })
	return out
}

type notificationRepository Store

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notifications[n.DedupeKey]; ok {
		return false, nil
	}
	c := *n
	r.notifications[n.DedupeKey] = &c
	return true, nil
}

func (r *notificationRepository) List(ctx context.Context, userID string, limit, offset int32) ([]domain.Notification, int32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var notes []domain.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			notes = append(notes, *n)
		}
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].CreatedAt.After(notes[j].CreatedAt) })
	return page(notes, limit, offset), int32(len(notes)), nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int32
	for _, n := range r.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
}

func (r *notificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for key, note := range r.notifications {
		if note.CreatedAt.Before(cutoff) {
			delete(r.notifications, key)
			n++
		}
	}
	return n, nil
}

type userRepository Store

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

type bookRepository Store

func (r *bookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	if !ok {
		return nil, fmt.Errorf("book %s: %w", id, domain.ErrNotFound)
	}
	return &b, nil
}

func page[T any](items []T, limit, offset int32) []T {
	if offset < 0 || offset >= int32(len(items)) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < int32(len(items)) {
		items = items[:limit]
	}
	return items
}
