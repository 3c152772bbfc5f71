package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Durgesh-2001/Booze-Delivery/internal/apperror"
	"github.com/Durgesh-2001/Booze-Delivery/internal/database"
	"github.com/Durgesh-2001/Booze-Delivery/internal/middleware"
)

// NotificationHandler serves the caller's notifications
type NotificationHandler struct {
	notifications database.NotificationStore
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifications database.NotificationStore) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// RegisterRoutes registers notification routes
func (h *NotificationHandler) RegisterRoutes(r *mux.Router, errh *middleware.ErrorHandler) {
	r.Handle("", errh.Handle(h.List)).Methods(http.MethodGet)
	r.Handle("/", errh.Handle(h.List)).Methods(http.MethodGet)
	r.Handle("/unread-count", errh.Handle(h.UnreadCount)).Methods(http.MethodGet)
	r.Handle("/read-all", errh.Handle(h.MarkAllRead)).Methods(http.MethodPatch)
	r.Handle("/{id}/read", errh.Handle(h.MarkRead)).Methods(http.MethodPatch)
	r.Handle("/{id}", errh.Handle(h.Delete)).Methods(http.MethodDelete)
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	list, err := h.notifications.ListByUser(r.Context(), id.UserID, unreadOnly)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, list)
	return nil
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	count, err := h.notifications.CountUnread(r.Context(), id.UserID)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": count})
	return nil
}

// MarkRead handles PATCH /api/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}
	notificationID, err := pathID(r, "id")
	if err != nil {
		return err
	}

	if err := h.notifications.MarkRead(r.Context(), id.UserID, notificationID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperror.NotFound("Notification not found")
		}
		return err
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": notificationID.String()})
	return nil
}

// MarkAllRead handles PATCH /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}

	updated, err := h.notifications.MarkAllRead(r.Context(), id.UserID)
	if err != nil {
		return err
	}
	respondJSON(w, http.StatusOK, map[string]int{"updated": updated})
	return nil
}

// Delete handles DELETE /api/notifications/{id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) error {
	id, err := identity(r)
	if err != nil {
		return err
	}
	notificationID, err := pathID(r, "id")
	if err != nil {
		return err
	}

	if err := h.notifications.Delete(r.Context(), id.UserID, notificationID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return apperror.NotFound("Notification not found")
		}
		return err
	}
	respondJSON(w, http.StatusOK, map[string]string{"id": notificationID.String()})
	return nil
}
