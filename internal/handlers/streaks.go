package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/fitstreak/backend/internal/logging"
	"github.com/fitstreak/backend/internal/models"
	"github.com/fitstreak/backend/internal/repositories"
)

// StreakHandler exposes the check-in ledger.
type StreakHandler struct {
	Ledger  StreakLedger
	NowFunc func() time.Time
}

// CheckIn handles POST /api/v1/checkin requests, advancing the caller's
// streak for today.
func (h StreakHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	day := h.now()
	record, changed, err := h.Ledger.RecordCompletion(ctx, userID, day)
	if errors.Is(err, repositories.ErrConflict) {
		logging.FromContext(ctx).Warn("check-in conflict, retrying once", "userId", userID)
		time.Sleep(conflictRetryDelay)
		record, changed, err = h.Ledger.RecordCompletion(ctx, userID, day)
	}
	if err != nil {
		logging.FromContext(ctx).Error("check-in failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to record check-in")
		return
	}

	respondJSON(ctx, w, http.StatusOK, checkInResponse{
		Streak:  toStreakDTO(record),
		Applied: changed,
	})
}

// Get handles GET /api/v1/streak requests.
func (h StreakHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	record, err := h.Ledger.Get(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("load streak failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load streak")
		return
	}

	weekly, err := h.Ledger.WeeklyCompletionCount(ctx, userID, h.now())
	if err != nil {
		logging.FromContext(ctx).Error("weekly completion count failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load streak")
		return
	}

	dto := toStreakDTO(record)
	dto.WeeklySessions = weekly
	respondJSON(ctx, w, http.StatusOK, dto)
}

type streakDTO struct {
	Streak            int    `json:"streak"`
	CompletedSessions int    `json:"completedSessions"`
	LastCheckIn       string `json:"lastCheckIn,omitempty"`
	WeeklySessions    int    `json:"weeklySessions"`
}

type checkInResponse struct {
	Streak  streakDTO `json:"streak"`
	Applied bool      `json:"applied"`
}

func toStreakDTO(record models.StreakRecord) streakDTO {
	dto := streakDTO{
		Streak:            record.Streak,
		CompletedSessions: record.CompletedSessions,
	}
	if record.LastCheckIn != nil {
		dto.LastCheckIn = record.LastCheckIn.UTC().Format("2006-01-02")
	}
	return dto
}

func (h StreakHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
