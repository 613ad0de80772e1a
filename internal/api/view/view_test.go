package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshare-backend/internal/domain"
)

func TestTransaction_RedactsOTPPerViewer(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	tx := &domain.Transaction{
		ID: "t1", OwnerID: "u1", BorrowerID: "u2",
		Status: domain.TransactionStatusPending, RequestedAt: now,
	}
	require.NoError(t, tx.Approve(now, "4321", now.Add(10*time.Minute)))

	borrower := Transaction(tx, "u2")
	owner := Transaction(tx, "u1")

	assert.Equal(t, "4321", borrower["handoverOtp"])
	assert.Nil(t, owner["handoverOtp"])
	assert.Equal(t, "APPROVED", owner["status"])
	assert.Equal(t, "2025-03-01T10:00:00Z", owner["approvedAt"])
	assert.Nil(t, owner["dueDate"])
	assert.Equal(t, false, owner["payment"].(map[string]any)["complete"])
}

func TestNotifications(t *testing.T) {
	out := Notifications([]domain.Notification{{ID: "n1", Type: domain.NotificationTypeOverdue, CreatedAt: time.Unix(0, 0)}})
	require.Len(t, out, 1)
	n := out[0].(map[string]any)
	assert.Equal(t, "OVERDUE", n["type"])
	assert.Equal(t, "1970-01-01T00:00:00Z", n["createdAt"])
}
