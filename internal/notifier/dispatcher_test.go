package notifier

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"bookshare-backend/internal/clock"
	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPushSender struct {
	mock.Mock
}

func (m *MockPushSender) Send(ctx context.Context, msg PushMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to domain.User, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func setup(t *testing.T) (*memory.Store, *MockPushSender, *MockMailer, *Dispatcher) {
	t.Helper()
	store := memory.NewStore()
	store.PutUser(domain.User{ID: "u1", Name: "Olga", Email: "olga@example.com", PushToken: "tok-1"})
	store.PutUser(domain.User{ID: "u2", Name: "Bram", Email: "bram@example.com", PushToken: "tok-2"})
	push := new(MockPushSender)
	mailer := new(MockMailer)
	clk := clock.NewFake(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	return store, push, mailer, NewDispatcher(store.Notifications(), store.Users(), push, mailer, clk)
}

func sampleTx() domain.Transaction {
	due := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	return domain.Transaction{
		ID: "t1", BookID: "b1", OwnerID: "u1", BorrowerID: "u2", GroupID: "g1",
		BookTitle: "Dune", OwnerName: "Olga", BorrowerName: "Bram", DurationDays: 14, DueDate: &due,
	}
}

func notesFor(t *testing.T, store *memory.Store, userID string) []domain.Notification {
	t.Helper()
	notes, _, err := store.Notifications().List(context.Background(), userID, 100, 0)
	require.NoError(t, err)
	return notes
}

func TestDispatcher_DeduplicatesRepeatedEvents(t *testing.T) {
	store, push, mailer, d := setup(t)
	push.On("Send", mock.Anything, mock.MatchedBy(func(m PushMessage) bool { return m.Token == "tok-2" })).Return(nil).Once()
	mailer.On("Send", mock.Anything, mock.Anything, "Book overdue", mock.Anything).Return(nil).Once()

	ev := domain.TransitionEvent{Type: domain.NotificationTypeOverdue, Transaction: sampleTx()}
	d.Notify(context.Background(), ev)
	d.Notify(context.Background(), ev)

	notes := notesFor(t, store, "u2")
	require.Len(t, notes, 1)
	assert.Equal(t, domain.NotificationTypeOverdue, notes[0].Type)
	assert.Equal(t, "t1", notes[0].RelatedID)
	assert.Equal(t, "g1", notes[0].GroupID)
	assert.Contains(t, notes[0].Message, "Dune")
	push.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestDispatcher_ConcurrentIdenticalEvents(t *testing.T) {
	store, push, _, d := setup(t)
	push.On("Send", mock.Anything, mock.Anything).Return(nil)

	ev := domain.TransitionEvent{Type: domain.NotificationTypeRejected, Transaction: sampleTx(), ActorID: "u1"}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Notify(context.Background(), ev)
		}()
	}
	wg.Wait()

	assert.Len(t, notesFor(t, store, "u2"), 1)
	push.AssertNumberOfCalls(t, "Send", 1)
}

func TestDispatcher_ReturnedNotifiesBothParties(t *testing.T) {
	store, push, mailer, d := setup(t)
	push.On("Send", mock.Anything, mock.Anything).Return(nil)

	d.Notify(context.Background(), domain.TransitionEvent{Type: domain.NotificationTypeReturned, Transaction: sampleTx(), ActorID: "u2"})

	owner := notesFor(t, store, "u1")
	borrower := notesFor(t, store, "u2")
	require.Len(t, owner, 1)
	require.Len(t, borrower, 1)
	assert.NotEqual(t, owner[0].ID, borrower[0].ID)
	assert.True(t, strings.HasPrefix(owner[0].Message, "Bram returned"))
	push.AssertNumberOfCalls(t, "Send", 2)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDispatcher_DeliveryFailuresAreSwallowed(t *testing.T) {
	store, push, mailer, d := setup(t)
	push.On("Send", mock.Anything, mock.Anything).Return(errors.New("fcm unavailable"))
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("sendgrid 503"))

	assert.NotPanics(t, func() {
		d.Notify(context.Background(), domain.TransitionEvent{Type: domain.NotificationTypeApproved, Transaction: sampleTx(), ActorID: "u1"})
	})
	assert.Len(t, notesFor(t, store, "u2"), 1, "the in-app record survives a push failure")
}

func TestDispatcher_CancelledGoesToCounterparty(t *testing.T) {
	store, push, _, d := setup(t)
	push.On("Send", mock.Anything, mock.Anything).Return(nil)

	tx := sampleTx()
	tx.CancelledBy = "u2"
	d.Notify(context.Background(), domain.TransitionEvent{Type: domain.NotificationTypeCancelled, Transaction: tx, ActorID: "u2"})

	assert.Len(t, notesFor(t, store, "u1"), 1)
	assert.Empty(t, notesFor(t, store, "u2"))
	assert.Contains(t, notesFor(t, store, "u1")[0].Message, "Bram cancelled")
}

func TestDispatcher_NoTokenNoMailer(t *testing.T) {
	store := memory.NewStore()
	store.PutUser(domain.User{ID: "u1", Name: "Olga"})
	push := new(MockPushSender)
	d := NewDispatcher(store.Notifications(), store.Users(), push, nil, clock.NewFake(time.Now()))

	d.Notify(context.Background(), domain.TransitionEvent{Type: domain.NotificationTypeRequestCreated, Transaction: sampleTx(), ActorID: "u2"})

	assert.Len(t, notesFor(t, store, "u1"), 1)
	push.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}
