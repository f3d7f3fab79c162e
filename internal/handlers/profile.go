package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fitstreak/backend/internal/logging"
	"github.com/fitstreak/backend/internal/repositories"
)

// Profile uploads cap avatar images at 5 MiB before decoding.
const maxAvatarBytes = 5 << 20

// ProfileHandler serves the authenticated user's own profile.
type ProfileHandler struct {
	Users   UserStore
	Ledger  StreakLedger
	Avatars AvatarStorage
	NowFunc func() time.Time
}

// Me handles GET /api/v1/me requests, combining the account record with the
// caller's streak summary.
func (h ProfileHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	user, err := h.Users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "account not found")
			return
		}
		logging.FromContext(ctx).Error("load profile failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load profile")
		return
	}

	record, err := h.Ledger.Get(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("load streak for profile failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load profile")
		return
	}

	weekly, err := h.Ledger.WeeklyCompletionCount(ctx, userID, h.now())
	if err != nil {
		logging.FromContext(ctx).Error("weekly count for profile failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load profile")
		return
	}

	streak := toStreakDTO(record)
	streak.WeeklySessions = weekly

	respondJSON(ctx, w, http.StatusOK, profileResponse{
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		AvatarURL: user.AvatarURL,
		JoinedAt:  user.CreatedAt.UTC().Format(time.RFC3339),
		Streak:    streak,
	})
}

// UploadAvatar handles POST /api/v1/me/avatar multipart requests.
func (h ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	if h.Avatars == nil {
		respondError(ctx, w, http.StatusServiceUnavailable, "avatar storage is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	if err := r.ParseMultipartForm(maxAvatarBytes); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "image upload too large or malformed")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(ctx, w, http.StatusBadRequest, "avatar file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		respondError(ctx, w, http.StatusBadRequest, "avatar must be an image")
		return
	}

	url, err := h.Avatars.SaveAvatar(ctx, userID, contentType, file)
	if err != nil {
		logging.FromContext(ctx).Error("avatar upload failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to store avatar")
		return
	}

	if err := h.Users.UpdateAvatarURL(ctx, userID, url); err != nil {
		logging.FromContext(ctx).Error("avatar url update failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to update profile")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]string{"avatarUrl": url})
}

type profileResponse struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	JoinedAt  string    `json:"joinedAt"`
	Streak    streakDTO `json:"streak"`
}

func (h ProfileHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
