package grpc

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"bookshare-backend/internal/api/errmap"
	"bookshare-backend/internal/service"
)

type NotificationHandler struct {
	noteSvc service.NotificationService
}

func NewNotificationHandler(noteSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{noteSvc: noteSvc}
}

func (h *NotificationHandler) ListNotifications(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	notes, total, err := h.noteSvc.List(ctx, userID, getInt32(req, "page"), getInt32(req, "limit"))
	if err != nil {
		return nil, errmap.Status(err)
	}
	unread, err := h.noteSvc.CountUnread(ctx, userID)
	if err != nil {
		return nil, errmap.Status(err)
	}
	return MapNotificationsToStruct(notes, total, unread)
}

func (h *NotificationHandler) MarkNotificationRead(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, err := GetUserIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.noteSvc.MarkAsRead(ctx, userID, getString(req, "id")); err != nil {
		return nil, errmap.Status(err)
	}
	return structpb.NewStruct(map[string]any{"success": true})
}
