package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fitstreak/backend/internal/logging"
	"github.com/fitstreak/backend/internal/models"
	"github.com/fitstreak/backend/internal/repositories"
)

// streamWindow bounds how long /notifications/stream holds a request open.
// Kept under the server write timeout so an empty poll still returns cleanly.
const streamWindow = 25 * time.Second

// NotificationHandler exposes the in-app notification feed.
type NotificationHandler struct {
	Feed         NotificationFeed
	Streamer     NotificationStreamer
	PollInterval time.Duration
}

// List handles GET /api/v1/notifications requests. Pass unread=true to
// restrict to unread entries.
func (h NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	unreadOnly := r.URL.Query().Get("unread") == "true"
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			respondError(ctx, w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	items, err := h.Feed.List(ctx, userID, unreadOnly, limit)
	if err != nil {
		logging.FromContext(ctx).Error("list notifications failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load notifications")
		return
	}

	respondJSON(ctx, w, http.StatusOK, notificationListResponse{Notifications: toNotificationDTOs(items)})
}

// MarkRead handles POST /api/v1/notifications/read requests. An empty id
// marks the whole feed read.
func (h NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	var req markReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	id := strings.TrimSpace(req.NotificationID)
	var err error
	if id == "" {
		err = h.Feed.MarkAllRead(ctx, userID)
	} else {
		err = h.Feed.MarkRead(ctx, userID, id)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "notification not found")
			return
		}
		logging.FromContext(ctx).Error("mark notification read failed", "error", err, "userId", userID, "notificationId", id)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update notifications")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// Stream handles GET /api/v1/notifications/stream requests by long-polling:
// it responds as soon as the caller's unread batch changes, or with an empty
// batch once the window elapses. Each request owns its own subscription.
func (h NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	if h.Streamer == nil {
		respondError(ctx, w, http.StatusServiceUnavailable, "live notifications are not available")
		return
	}

	pollCtx, cancel := context.WithTimeout(ctx, streamWindow)
	defer cancel()

	sub := h.Streamer.Subscribe(pollCtx, userID, h.PollInterval)
	defer sub.Close()

	var batch []models.Notification
	select {
	case delivered, open := <-sub.Updates():
		if open {
			batch = delivered
		}
	case <-pollCtx.Done():
	}

	respondJSON(ctx, w, http.StatusOK, notificationListResponse{Notifications: toNotificationDTOs(batch)})
}

type markReadRequest struct {
	NotificationID string `json:"notificationId"`
}

type notificationDTO struct {
	ID           string `json:"id"`
	Message      string `json:"message"`
	Kind         string `json:"kind"`
	FromUserID   string `json:"fromUserId,omitempty"`
	FromUsername string `json:"fromUsername,omitempty"`
	Read         bool   `json:"read"`
	CreatedAt    string `json:"createdAt"`
}

type notificationListResponse struct {
	Notifications []notificationDTO `json:"notifications"`
}

func toNotificationDTOs(items []models.Notification) []notificationDTO {
	dtos := make([]notificationDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, notificationDTO{
			ID:           item.ID,
			Message:      item.Message,
			Kind:         string(item.Kind),
			FromUserID:   item.FromUserID,
			FromUsername: item.FromUsername,
			Read:         item.Read,
			CreatedAt:    item.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return dtos
}
