package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"bookshare-backend/internal/api/view"
	"bookshare-backend/internal/service"
)

type NotificationHandler struct {
	noteSvc service.NotificationService
}

func NewNotificationHandler(noteSvc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{noteSvc: noteSvc}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	userID := UserIDFromContext(r.Context())
	notes, total, err := h.noteSvc.List(r.Context(), userID, queryInt32(q.Get("page")), queryInt32(q.Get("limit")))
	if err != nil {
		writeError(w, err)
		return
	}
	unread, err := h.noteSvc.CountUnread(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"notifications": view.Notifications(notes),
		"totalCount":    total,
		"unreadCount":   unread,
	})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if err := h.noteSvc.MarkAsRead(r.Context(), UserIDFromContext(r.Context()), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"success": true})
}
