package notifier

import (
	"context"
	"fmt"

	"bookshare-backend/internal/logger"

	"firebase.google.com/go/v4/messaging"
)

// FCMSender delivers push messages through Firebase Cloud Messaging.
type FCMSender struct {
	client *messaging.Client
}

func NewFCMSender(client *messaging.Client) *FCMSender {
	return &FCMSender{client: client}
}

func (s *FCMSender) Send(ctx context.Context, msg PushMessage) error {
	logger.ExternalServiceCall("fcm", "Send", "title", msg.Title)
	id, err := s.client.Send(ctx, &messaging.Message{
		Token: msg.Token,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	})
	logger.ExternalServiceResult("fcm", "Send", err, "messageID", id)
	if messaging.IsUnregistered(err) {
		return fmt.Errorf("push token no longer registered: %w", err)
	}
	if err != nil {
		return fmt.Errorf("fcm send failed: %w", err)
	}
	return nil
}

// LogSender records push messages in the log instead of sending them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, msg PushMessage) error {
	logger.InfoContext(ctx, "Push (disabled)", "title", msg.Title, "body", msg.Body, "data", msg.Data)
	return nil
}
