package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/hearth/internal/model"
	"github.com/dukerupert/hearth/internal/notification"
)

type NotificationHandler struct {
	service  *notification.Service
	vapidKey string
	logger   *slog.Logger
}

// NewNotificationHandler returns a handler; vapidKey is the public key
// browsers subscribe with, empty when push is disabled.
func NewNotificationHandler(svc *notification.Service, vapidKey string, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{service: svc, vapidKey: vapidKey, logger: logger}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	notifs, err := h.service.List(r.Context(), ac.HouseholdID)
	if err != nil {
		h.logger.Error("list notifications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if notifs == nil {
		notifs = []model.Notification{}
	}
	writeJSON(w, http.StatusOK, notifs)
}

func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	n, err := h.service.UnreadCount(r.Context(), ac.HouseholdID)
	if err != nil {
		h.logger.Error("count unread notifications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to count notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req idRequest
	if err := decodeJSON(w, r, &req); err != nil || req.ID <= 0 {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	deleted, err := h.service.Delete(r.Context(), ac.HouseholdID, req.ID)
	if err != nil {
		h.logger.Error("delete notification", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete notification")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *NotificationHandler) Clear(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	n, err := h.service.Clear(r.Context(), ac.HouseholdID)
	if err != nil {
		h.logger.Error("clear notifications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"cleared": n})
}

// MarkRead flags one notification as read, or all of them when the body
// names no id.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req idRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}
	if req.ID < 0 {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	n, err := h.service.MarkRead(r.Context(), ac.HouseholdID, req.ID)
	if err != nil {
		h.logger.Error("mark notifications read", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update notifications")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}

// subscriptionRequest is the PushSubscription JSON a browser produces.
type subscriptionRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req subscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Endpoint = strings.TrimSpace(req.Endpoint)
	if req.Endpoint == "" || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		writeError(w, http.StatusBadRequest, "endpoint and keys are required")
		return
	}

	sub, err := h.service.Subscribe(r.Context(), ac.HouseholdID, ac.UserID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth)
	if err != nil {
		h.logger.Error("push subscribe", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}
	var req subscriptionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Endpoint = strings.TrimSpace(req.Endpoint)
	if req.Endpoint == "" {
		writeError(w, http.StatusBadRequest, "endpoint is required")
		return
	}

	if _, err := h.service.Unsubscribe(r.Context(), ac.UserID, req.Endpoint); err != nil {
		h.logger.Error("push unsubscribe", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to remove subscription")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	if h.vapidKey == "" {
		writeError(w, http.StatusNotFound, "push notifications not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"publicKey": h.vapidKey})
}
