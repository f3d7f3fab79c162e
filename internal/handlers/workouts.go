package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fitstreak/backend/internal/logging"
	"github.com/fitstreak/backend/internal/models"
	"github.com/fitstreak/backend/internal/repositories"
	"github.com/fitstreak/backend/internal/workouts"
)

// WorkoutHandler exposes workout logging and the calendar projection.
type WorkoutHandler struct {
	Workouts WorkoutService
	NowFunc  func() time.Time
}

// Handle routes GET (list) and POST (create) on /api/v1/workouts.
func (h WorkoutHandler) Handle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h WorkoutHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	items, err := h.Workouts.ListForOwner(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Error("list workouts failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load workouts")
		return
	}

	respondJSON(ctx, w, http.StatusOK, workoutListResponse{Workouts: toWorkoutDTOs(items, h.now())})
}

func (h WorkoutHandler) create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	var req createWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	workout, err := h.Workouts.Create(ctx, userID, workouts.CreateInput{
		Name:          req.Name,
		MuscleGroup:   req.MuscleGroup,
		ScheduledDays: req.ScheduledDays,
		DurationLabel: req.Duration,
	})
	if err != nil {
		if errors.Is(err, workouts.ErrInvalidWorkout) {
			respondError(ctx, w, http.StatusBadRequest, err.Error())
			return
		}
		logging.FromContext(ctx).Error("create workout failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to save workout")
		return
	}

	respondJSON(ctx, w, http.StatusCreated, toWorkoutDTO(workout, h.now()))
}

// Calendar handles GET /api/v1/workouts/calendar?date=2024-01-01, returning
// the workouts scheduled on that date.
func (h WorkoutHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	date := h.now()
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondError(ctx, w, http.StatusBadRequest, "date must be formatted YYYY-MM-DD")
			return
		}
		date = parsed
	}

	items, err := h.Workouts.VisibleOn(ctx, userID, date)
	if err != nil {
		logging.FromContext(ctx).Error("calendar projection failed", "error", err, "userId", userID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to load calendar")
		return
	}

	respondJSON(ctx, w, http.StatusOK, calendarResponse{
		Date:     date.Format("2006-01-02"),
		Workouts: toWorkoutDTOs(items, date),
	})
}

// Complete handles POST /api/v1/workouts/complete requests.
func (h WorkoutHandler) Complete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	userID, ok := requireActor(ctx, w)
	if !ok {
		return
	}

	var req completeWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.WorkoutID) == "" {
		respondError(ctx, w, http.StatusBadRequest, "workout id is required")
		return
	}

	day := h.now()
	workout, applied, err := h.Workouts.MarkCompleted(ctx, userID, req.WorkoutID, day)
	if errors.Is(err, repositories.ErrConflict) {
		// Completion and the streak advance are separate writes; a lost
		// race on the streak row is safe to retry once.
		logging.FromContext(ctx).Warn("workout completion conflict, retrying once", "userId", userID, "workoutId", req.WorkoutID)
		time.Sleep(conflictRetryDelay)
		workout, applied, err = h.Workouts.MarkCompleted(ctx, userID, req.WorkoutID, day)
	}
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "workout not found")
			return
		}
		logging.FromContext(ctx).Error("complete workout failed", "error", err, "userId", userID, "workoutId", req.WorkoutID)
		respondError(ctx, w, http.StatusInternalServerError, "unable to complete workout")
		return
	}

	respondJSON(ctx, w, http.StatusOK, completeWorkoutResponse{
		Workout: toWorkoutDTO(workout, day),
		Applied: applied,
	})
}

type createWorkoutRequest struct {
	Name          string   `json:"name"`
	MuscleGroup   string   `json:"muscleGroup"`
	ScheduledDays []string `json:"scheduledDays"`
	Duration      string   `json:"duration"`
}

type completeWorkoutRequest struct {
	WorkoutID string `json:"workoutId"`
}

type workoutDTO struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	MuscleGroup     string   `json:"muscleGroup"`
	ScheduledDays   []string `json:"scheduledDays"`
	Duration        string   `json:"duration,omitempty"`
	CreatedAt       string   `json:"createdAt"`
	LastCompletedAt string   `json:"lastCompletedAt,omitempty"`
	CompletedToday  bool     `json:"completedToday"`
}

type workoutListResponse struct {
	Workouts []workoutDTO `json:"workouts"`
}

type calendarResponse struct {
	Date     string       `json:"date"`
	Workouts []workoutDTO `json:"workouts"`
}

type completeWorkoutResponse struct {
	Workout workoutDTO `json:"workout"`
	Applied bool       `json:"applied"`
}

func toWorkoutDTO(workout models.Workout, reference time.Time) workoutDTO {
	dto := workoutDTO{
		ID:             workout.ID,
		Name:           workout.Name,
		MuscleGroup:    workout.MuscleGroup,
		ScheduledDays:  workout.ScheduledDays,
		Duration:       workout.DurationLabel,
		CreatedAt:      workout.CreatedAt.UTC().Format(time.RFC3339),
		CompletedToday: workouts.CompletedOn(workout, reference),
	}
	if workout.LastCompletedAt != nil {
		dto.LastCompletedAt = workout.LastCompletedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func toWorkoutDTOs(items []models.Workout, reference time.Time) []workoutDTO {
	dtos := make([]workoutDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, toWorkoutDTO(item, reference))
	}
	return dtos
}

func (h WorkoutHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
