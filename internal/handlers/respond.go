package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fitstreak/backend/internal/auth"
	"github.com/fitstreak/backend/internal/logging"
)

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
		return
	}

	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "response", payload)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "response", payload)
	}
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	respondJSON(ctx, w, status, map[string]string{"error": message})
}

// requireActor resolves the authenticated user id placed on the context by
// the auth middleware. Writes a 401 response when absent.
func requireActor(ctx context.Context, w http.ResponseWriter) (string, bool) {
	userID, err := auth.UserIDFromContext(ctx)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return userID, true
}
