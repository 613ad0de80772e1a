// Package notifier turns committed transaction events into in-app records, push messages and email.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"bookshare-backend/internal/clock"
	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/logger"
	"bookshare-backend/internal/repository"

	"golang.org/x/sync/singleflight"
)

type PushMessage struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

type PushSender interface {
	Send(ctx context.Context, msg PushMessage) error
}

type Mailer interface {
	Send(ctx context.Context, to domain.User, subject, body string) error
}

// emailTypes are the events that also warrant an email.
var emailTypes = map[domain.NotificationType]bool{
	domain.NotificationTypeRequestCreated: true,
	domain.NotificationTypeApproved:       true,
	domain.NotificationTypeOverdue:        true,
}

type Dispatcher struct {
	notes repository.NotificationRepository
	users repository.UserRepository
	push  PushSender
	mail  Mailer
	clock clock.Clock
	group singleflight.Group
}

// NewDispatcher wires the delivery channels. mail may be nil to disable email.
func NewDispatcher(notes repository.NotificationRepository, users repository.UserRepository, push PushSender, mail Mailer, clk clock.Clock) *Dispatcher {
	return &Dispatcher{notes: notes, users: users, push: push, mail: mail, clock: clk}
}

// Notify delivers ev to each recipient at most once. Failures are logged, never returned.
func (d *Dispatcher) Notify(ctx context.Context, ev domain.TransitionEvent) {
	for _, userID := range ev.Recipients() {
		d.deliver(ctx, ev, userID)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ev domain.TransitionEvent, userID string) {
	key := domain.DedupeKey(ev.Transaction.ID, ev.Type, userID)
	log := logger.WithTransaction(ev.Transaction.ID).With("type", ev.Type, "userID", userID)

	// Concurrent callers for the same key share one attempt.
	_, _, _ = d.group.Do(key, func() (any, error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Notification delivery panicked", "panic", r)
			}
		}()

		title, body := render(ev, userID)
		note := &domain.Notification{
			ID:        domain.NotificationIDFor(key),
			UserID:    userID,
			GroupID:   ev.Transaction.GroupID,
			Type:      ev.Type,
			Title:     title,
			Message:   body,
			RelatedID: ev.Transaction.ID,
			DedupeKey: key,
			CreatedAt: d.clock.Now(),
		}
		created, err := d.notes.Create(ctx, note)
		if err != nil {
			log.Error("Failed to record notification", "error", fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err))
			return nil, nil
		}
		if !created {
			log.Debug("Notification already delivered", "dedupeKey", key)
			return nil, nil
		}

		user, err := d.users.GetByID(ctx, userID)
		if err != nil {
			log.Warn("Recipient lookup failed, in-app record only", "error", err)
			return nil, nil
		}
		d.sendPush(ctx, log, user, note)
		d.sendEmail(ctx, log, user, note)
		return nil, nil
	})
}

func (d *Dispatcher) sendPush(ctx context.Context, log *slog.Logger, user *domain.User, note *domain.Notification) {
	if d.push == nil || user.PushToken == "" {
		return
	}
	err := d.push.Send(ctx, PushMessage{
		Token: user.PushToken,
		Title: note.Title,
		Body:  note.Message,
		Data: map[string]string{
			"type":           string(note.Type),
			"transactionId":  note.RelatedID,
			"notificationId": note.ID,
		},
	})
	if err != nil {
		log.Warn("Push delivery failed", "error", fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err))
	}
}

func (d *Dispatcher) sendEmail(ctx context.Context, log *slog.Logger, user *domain.User, note *domain.Notification) {
	if d.mail == nil || !emailTypes[note.Type] || user.Email == "" {
		return
	}
	if err := d.mail.Send(ctx, *user, note.Title, note.Message); err != nil {
		log.Warn("Email delivery failed", "error", fmt.Errorf("%w: %v", domain.ErrDeliveryFailure, err))
	}
}
