package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeRequestCreated NotificationType = "REQUEST_CREATED"
	NotificationTypeApproved       NotificationType = "APPROVED"
	NotificationTypeRejected       NotificationType = "REJECTED"
	NotificationTypeDueSoon        NotificationType = "DUE_SOON"
	NotificationTypeOverdue        NotificationType = "OVERDUE"
	NotificationTypeReturned       NotificationType = "RETURNED"
	NotificationTypeCancelled      NotificationType = "CANCELLED"
	NotificationTypeNewBookInGroup NotificationType = "NEW_BOOK_IN_GROUP"
)

// NotificationRetention is how long in-app records are kept before the purge job removes them.
const NotificationRetention = 30 * 24 * time.Hour

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	GroupID   string           `json:"group_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	RelatedID string           `json:"related_id,omitempty"`
	DedupeKey string           `json:"-"`
	CreatedAt time.Time        `json:"created_at"`
}

var notificationNamespace = uuid.MustParse("6f1c3a52-7d0b-4c55-9f39-2a8d14e0b7c1")

// DedupeKey identifies one notification per (related record, event, recipient).
func DedupeKey(relatedID string, typ NotificationType, userID string) string {
	return fmt.Sprintf("%s:%s:%s", relatedID, typ, userID)
}

// NotificationIDFor derives a stable ID from the dedupe key so every store dedupes on the same value.
func NotificationIDFor(dedupeKey string) string {
	return uuid.NewSHA1(notificationNamespace, []byte(dedupeKey)).String()
}
