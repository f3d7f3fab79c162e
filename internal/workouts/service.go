package workouts

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fitstreak/backend/internal/logging"
	"github.com/fitstreak/backend/internal/models"
	"github.com/fitstreak/backend/internal/streaks"
)

var (
	// ErrInvalidWorkout indicates the submitted workout failed validation.
	ErrInvalidWorkout = errors.New("invalid workout")
)

// WeekdayNames are the scheduled-day values accepted from clients, matching
// time.Weekday ordering.
var WeekdayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// MuscleGroups mirrors the picker options offered by the mobile clients.
var MuscleGroups = []string{"Chest", "Back", "Legs", "Arms", "Shoulders", "Core", "Full Body"}

// Store persists workout records. MarkCompleted must enforce the
// once-per-calendar-day rule atomically and report whether it applied.
type Store interface {
	Create(ctx context.Context, workout models.Workout) error
	FindByID(ctx context.Context, ownerID, workoutID string) (models.Workout, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Workout, error)
	MarkCompleted(ctx context.Context, ownerID, workoutID string, day time.Time) (bool, error)
}

// StreakRecorder receives the day's first workout completion.
type StreakRecorder interface {
	RecordCompletion(ctx context.Context, userID string, day time.Time) (models.StreakRecord, bool, error)
}

// Service owns workout logging, the scheduling projection used by the
// calendar, and completion handling.
type Service struct {
	store   Store
	ledger  StreakRecorder
	nowFunc func() time.Time
}

// NewService constructs the workout service.
func NewService(store Store, ledger StreakRecorder) *Service {
	return &Service{store: store, ledger: ledger}
}

// CreateInput carries the fields clients submit when logging a workout.
type CreateInput struct {
	Name          string
	MuscleGroup   string
	ScheduledDays []string
	DurationLabel string
}

// Create validates and persists a new workout owned by the acting user.
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (models.Workout, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return models.Workout{}, fmt.Errorf("%w: name is required", ErrInvalidWorkout)
	}
	if !slices.Contains(MuscleGroups, input.MuscleGroup) {
		return models.Workout{}, fmt.Errorf("%w: unknown muscle group %q", ErrInvalidWorkout, input.MuscleGroup)
	}
	if len(input.ScheduledDays) == 0 {
		return models.Workout{}, fmt.Errorf("%w: at least one scheduled day is required", ErrInvalidWorkout)
	}
	for _, day := range input.ScheduledDays {
		if !slices.Contains(WeekdayNames, day) {
			return models.Workout{}, fmt.Errorf("%w: unknown weekday %q", ErrInvalidWorkout, day)
		}
	}

	workout := models.Workout{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Name:          input.Name,
		MuscleGroup:   input.MuscleGroup,
		ScheduledDays: dedupe(input.ScheduledDays),
		DurationLabel: strings.TrimSpace(input.DurationLabel),
		CreatedAt:     s.now(),
	}

	if err := s.store.Create(ctx, workout); err != nil {
		return models.Workout{}, fmt.Errorf("create workout: %w", err)
	}

	return workout, nil
}

// ListForOwner returns every workout the user has logged.
func (s *Service) ListForOwner(ctx context.Context, ownerID string) ([]models.Workout, error) {
	workouts, err := s.store.ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	return workouts, nil
}

// VisibleOn projects the owner's workouts onto a calendar date: the date's
// weekday must be scheduled and the date must not precede the workout's
// creation day, so a workout never appears on days before it existed.
func (s *Service) VisibleOn(ctx context.Context, ownerID string, date time.Time) ([]models.Workout, error) {
	workouts, err := s.store.ListForOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	day := streaks.CivilDay(date)
	weekday := WeekdayNames[int(day.Weekday())]

	var visible []models.Workout
	for _, workout := range workouts {
		if !slices.Contains(workout.ScheduledDays, weekday) {
			continue
		}
		if day.Before(streaks.CivilDay(workout.CreatedAt)) {
			continue
		}
		visible = append(visible, workout)
	}

	return visible, nil
}

// MarkCompleted records a workout completion for the given day. The first
// completion of the day reaches the streak ledger; re-marking the same
// workout on the same day is a no-op and never touches the streak.
func (s *Service) MarkCompleted(ctx context.Context, ownerID, workoutID string, day time.Time) (models.Workout, bool, error) {
	ctx, span := logging.StartSpan(ctx, "workouts.mark_completed")
	defer span.End()

	civil := streaks.CivilDay(day)

	if _, err := s.store.FindByID(ctx, ownerID, workoutID); err != nil {
		return models.Workout{}, false, fmt.Errorf("load workout: %w", err)
	}

	applied, err := s.store.MarkCompleted(ctx, ownerID, workoutID, civil)
	if err != nil {
		return models.Workout{}, false, fmt.Errorf("mark workout completed: %w", err)
	}

	if applied && s.ledger != nil {
		if _, _, err := s.ledger.RecordCompletion(ctx, ownerID, civil); err != nil {
			return models.Workout{}, false, fmt.Errorf("advance streak: %w", err)
		}
	}

	workout, err := s.store.FindByID(ctx, ownerID, workoutID)
	if err != nil {
		return models.Workout{}, false, fmt.Errorf("reload workout: %w", err)
	}

	return workout, applied, nil
}

// CompletedOn reports whether the workout's latest completion falls on the
// provided calendar day.
func CompletedOn(workout models.Workout, date time.Time) bool {
	return workout.LastCompletedAt != nil && streaks.SameCivilDay(*workout.LastCompletedAt, date)
}

func dedupe(days []string) []string {
	seen := make(map[string]struct{}, len(days))
	out := make([]string, 0, len(days))
	for _, day := range days {
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	return out
}

func (s *Service) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}
