package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"bookshare-backend/internal/repository"

	"github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// uniqueViolation is the SQLSTATE Postgres reports when a unique index rejects a row.
const uniqueViolation = "23505"

type Store struct {
	db            *sql.DB
	transactions  repository.TransactionRepository
	notifications repository.NotificationRepository
	users         repository.UserRepository
	books         repository.BookRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:            db,
		transactions:  NewTransactionRepository(db),
		notifications: NewNotificationRepository(db),
		users:         NewUserRepository(db),
		books:         NewBookRepository(db),
	}
}

func (s *Store) Transactions() repository.TransactionRepository   { return s.transactions }
func (s *Store) Notifications() repository.NotificationRepository { return s.notifications }
func (s *Store) Users() repository.UserRepository                 { return s.users }
func (s *Store) Books() repository.BookRepository                 { return s.books }
func (s *Store) Close() error                                     { return s.db.Close() }

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// Migrate applies schema.sql. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
