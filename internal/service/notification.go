package service

import (
	"context"
	"fmt"

	"bookshare-backend/internal/domain"
	"bookshare-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo}
}

func (s *notificationService) List(ctx context.Context, userID string, page, limit int32) ([]domain.Notification, int32, error) {
	limit, offset, err := pageBounds(page, limit)
	if err != nil {
		return nil, 0, err
	}
	return s.noteRepo.List(ctx, userID, limit, offset)
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	if notificationID == "" {
		return fmt.Errorf("%w: notification id is required", domain.ErrInvalidArgument)
	}
	return s.noteRepo.MarkAsRead(ctx, notificationID, userID)
}

func (s *notificationService) CountUnread(ctx context.Context, userID string) (int32, error) {
	return s.noteRepo.CountUnread(ctx, userID)
}
