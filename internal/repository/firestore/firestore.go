// Package firestore stores transactions and notifications in Cloud Firestore.
package firestore

import (
	"time"

	"bookshare-backend/internal/repository"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	transactionsCollection  = "transactions"
	notificationsCollection = "notifications"
	usersCollection         = "users"
	booksCollection         = "books"
)

type Store struct {
	client *firestore.Client
	now    func() time.Time
}

func NewStore(client *firestore.Client) *Store {
	return &Store{client: client, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Store) Transactions() repository.TransactionRepository { return (*transactionRepository)(s) }
func (s *Store) Notifications() repository.NotificationRepository {
	return (*notificationRepository)(s)
}
func (s *Store) Users() repository.UserRepository { return (*userRepository)(s) }
func (s *Store) Books() repository.BookRepository { return (*bookRepository)(s) }
func (s *Store) Close() error                     { return s.client.Close() }

func isCode(err error, c codes.Code) bool {
	return err != nil && status.Code(err) == c
}
