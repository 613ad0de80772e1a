// Package view renders domain records into the client-facing shape shared by the gRPC and HTTP surfaces.
package view

import (
	"time"

	"bookshare-backend/internal/domain"
)

// Transaction renders tx as seen by viewerID; codes the viewer must not read are dropped.
func Transaction(tx *domain.Transaction, viewerID string) map[string]any {
	v := tx.ViewFor(viewerID)
	return map[string]any{
		"id":                 v.ID,
		"bookId":             v.BookID,
		"ownerId":            v.OwnerID,
		"borrowerId":         v.BorrowerID,
		"groupId":            v.GroupID,
		"bookTitle":          v.BookTitle,
		"bookCoverUrl":       v.BookCoverURL,
		"ownerName":          v.OwnerName,
		"ownerAvatarUrl":     v.OwnerAvatarURL,
		"borrowerName":       v.BorrowerName,
		"borrowerAvatarUrl":  v.BorrowerAvatarURL,
		"status":             string(v.Status),
		"duration":           string(v.Duration),
		"durationDays":       int64(v.DurationDays),
		"dueDate":            optTime(v.DueDate),
		"lendingFeeCents":    v.LendingFeeCents,
		"message":            v.Message,
		"rejectionReason":    v.RejectionReason,
		"cancellationReason": v.CancellationReason,
		"cancelledBy":        v.CancelledBy,
		"handoverOtp":        optString(v.HandoverOTP),
		"handoverOtpExpiry":  optTime(v.HandoverOTPExpiry),
		"returnOtp":          optString(v.ReturnOTP),
		"returnOtpExpiry":    optTime(v.ReturnOTPExpiry),
		"payment": map[string]any{
			"borrowerConfirmed": v.Payment.BorrowerConfirmed,
			"ownerConfirmed":    v.Payment.OwnerConfirmed,
			"complete":          v.Payment.Complete(),
		},
		"requestedAt":         formatTime(v.RequestedAt),
		"approvedAt":          optTime(v.ApprovedAt),
		"handoverAt":          optTime(v.HandoverAt),
		"returnedAt":          optTime(v.ReturnedAt),
		"rejectedAt":          optTime(v.RejectedAt),
		"cancelledAt":         optTime(v.CancelledAt),
		"ownerRating":         optInt(v.OwnerRating),
		"borrowerRating":      optInt(v.BorrowerRating),
		"ownerComment":        optString(v.OwnerComment),
		"borrowerComment":     optString(v.BorrowerComment),
		"bookConditionRating": optInt(v.BookConditionRating),
		"version":             v.Version,
		"updatedAt":           formatTime(v.UpdatedAt),
	}
}

func Transactions(txns []domain.Transaction, viewerID string) []any {
	out := make([]any, len(txns))
	for i := range txns {
		out[i] = Transaction(&txns[i], viewerID)
	}
	return out
}

func Notification(n *domain.Notification) map[string]any {
	return map[string]any{
		"id":        n.ID,
		"userId":    n.UserID,
		"groupId":   n.GroupID,
		"type":      string(n.Type),
		"title":     n.Title,
		"message":   n.Message,
		"isRead":    n.IsRead,
		"relatedId": n.RelatedID,
		"createdAt": formatTime(n.CreatedAt),
	}
}

func Notifications(notes []domain.Notification) []any {
	out := make([]any, len(notes))
	for i := range notes {
		out[i] = Notification(&notes[i])
	}
	return out
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func optTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func optString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func optInt(n *int) any {
	if n == nil {
		return nil
	}
	return int64(*n)
}
