package handlers

import (
	"net/http"

	"github.com/fitstreak/backend/internal/logging"
)

// LeaderboardHandler serves the friends leaderboard.
type LeaderboardHandler struct {
	Leaderboard LeaderboardService
}

// Handle implements GET /api/v1/leaderboard.
func (h LeaderboardHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	entries, err := h.Leaderboard.Standings(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("leaderboard assembly failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load leaderboard")
		return
	}

	respondJSON(ctx, w, http.StatusOK, map[string]any{"entries": entries})
}
