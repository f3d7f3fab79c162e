package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fitstreak/backend/internal/friends"
	"github.com/fitstreak/backend/internal/logging"
	"github.com/fitstreak/backend/internal/repositories"
)

const conflictRetryDelay = 50 * time.Millisecond

// FriendHandler provides friend search, request, and listing endpoints.
type FriendHandler struct {
	Friends FriendGraph
}

// List handles GET /api/v1/friends requests.
func (h FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	results, err := h.Friends.ListFriends(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list friends failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load friends")
		return
	}

	respondJSON(ctx, w, http.StatusOK, friendListResponse{Friends: toFriendDTOs(results)})
}

// Requests handles GET /api/v1/friends/requests, listing incoming requests.
func (h FriendHandler) Requests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	results, err := h.Friends.ListIncoming(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list friend requests failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load friend requests")
		return
	}

	respondJSON(ctx, w, http.StatusOK, friendListResponse{Friends: toFriendDTOs(results)})
}

// Search handles GET /api/v1/friends/search?q=prefix requests.
func (h FriendHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	prefix := strings.TrimSpace(r.URL.Query().Get("q"))
	if prefix == "" {
		respondJSON(ctx, w, http.StatusOK, friendListResponse{Friends: []friendDTO{}})
		return
	}

	results, err := h.Friends.Search(ctx, userID, prefix, 10)
	if err != nil {
		logging.FromContext(ctx).Error("friend search failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to search users")
		return
	}

	respondJSON(ctx, w, http.StatusOK, friendListResponse{Friends: toFriendDTOs(results)})
}

// Request handles POST /api/v1/friends/request requests.
func (h FriendHandler) Request(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	var req friendRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		respondError(ctx, w, http.StatusBadRequest, "target user id is required")
		return
	}

	// A failed send is never blindly retried: a retry after an
	// unacknowledged success would try to recreate an existing pair.
	if err := h.Friends.SendRequest(ctx, userID, req.UserID); err != nil {
		h.respondFriendError(ctx, w, err, userID)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": "request sent"})
}

// Respond handles POST /api/v1/friends/respond requests, accepting or
// rejecting an incoming request.
func (h FriendHandler) Respond(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	var req friendRespondPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.UserID) == "" {
		respondError(ctx, w, http.StatusBadRequest, "target user id is required")
		return
	}

	var op func(context.Context, string, string) error
	switch req.Action {
	case "accept":
		op = h.Friends.AcceptRequest
	case "reject":
		op = h.Friends.RejectRequest
	default:
		respondError(ctx, w, http.StatusBadRequest, "action must be accept or reject")
		return
	}

	err := op(ctx, userID, req.UserID)
	if errors.Is(err, repositories.ErrConflict) {
		// The atomic pair update lost to a concurrent writer; one retry
		// after re-reading state is safe for accept/reject.
		logging.FromContext(ctx).Warn("friend respond conflict, retrying once", "userId", userID, "otherId", req.UserID)
		time.Sleep(conflictRetryDelay)
		err = op(ctx, userID, req.UserID)
	}
	if err != nil {
		h.respondFriendError(ctx, w, err, userID)
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"status": req.Action + "ed"})
}

func (h FriendHandler) respondFriendError(ctx context.Context, w http.ResponseWriter, err error, userID string) {
	switch {
	case errors.Is(err, friends.ErrSelfRequest):
		respondError(ctx, w, http.StatusBadRequest, "you cannot add yourself")
	case errors.Is(err, friends.ErrAlreadyFriends):
		respondError(ctx, w, http.StatusConflict, "you are already friends")
	case errors.Is(err, friends.ErrAlreadyPending):
		respondError(ctx, w, http.StatusConflict, "friend request already pending")
	case errors.Is(err, friends.ErrInvalidTransition):
		respondError(ctx, w, http.StatusConflict, "no matching friend request")
	case errors.Is(err, repositories.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "user not found")
	case errors.Is(err, repositories.ErrConflict):
		respondError(ctx, w, http.StatusConflict, "please try again")
	default:
		logging.FromContext(ctx).Error("friend operation failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "friend operation failed")
	}
}

type friendRequestPayload struct {
	UserID string `json:"userId"`
}

type friendRespondPayload struct {
	UserID string `json:"userId"`
	Action string `json:"action"`
}

type friendDTO struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Status    string `json:"status"`
}

type friendListResponse struct {
	Friends []friendDTO `json:"friends"`
}

func toFriendDTOs(results []friends.Result) []friendDTO {
	dtos := make([]friendDTO, 0, len(results))
	for _, result := range results {
		dtos = append(dtos, friendDTO{
			UserID:    result.User.ID,
			Username:  result.User.Username,
			AvatarURL: result.User.AvatarURL,
			Status:    string(result.Status),
		})
	}
	return dtos
}
