package streaks

import (
	"context"
	"fmt"
	"time"

	"github.com/fitstreak/backend/internal/models"
)

// Store persists streak records. Apply must execute the mutation as a single
// atomic read-modify-write so concurrent check-ins cannot lose updates; the
// Postgres implementation holds a row lock across the callback.
type Store interface {
	Apply(ctx context.Context, userID string, mutate func(models.StreakRecord) (models.StreakRecord, bool)) (models.StreakRecord, bool, error)
	Get(ctx context.Context, userID string) (models.StreakRecord, error)
}

// CompletionCounter reports how many workouts were last completed inside a
// date range. Backed by the workout repository.
type CompletionCounter interface {
	CountCompletedInRange(ctx context.Context, ownerID string, from, to time.Time) (int, error)
}

// Ledger owns the daily check-in streak counter per user and the weekly
// aggregates derived from workout completions.
type Ledger struct {
	store       Store
	completions CompletionCounter
}

// NewLedger constructs a streak ledger over the provided stores.
func NewLedger(store Store, completions CompletionCounter) *Ledger {
	return &Ledger{store: store, completions: completions}
}

// RecordCompletion advances the user's streak for the given day. Checking in
// twice on the same calendar day is a no-op; a gap of two or more days resets
// the streak to 1. The returned bool reports whether anything changed.
func (l *Ledger) RecordCompletion(ctx context.Context, userID string, day time.Time) (models.StreakRecord, bool, error) {
	civil := CivilDay(day)

	record, changed, err := l.store.Apply(ctx, userID, func(current models.StreakRecord) (models.StreakRecord, bool) {
		return advance(current, civil)
	})
	if err != nil {
		return models.StreakRecord{}, false, fmt.Errorf("record completion: %w", err)
	}

	return record, changed, nil
}

// Get returns the user's streak record; a user who never checked in gets the
// zero record rather than an error.
func (l *Ledger) Get(ctx context.Context, userID string) (models.StreakRecord, error) {
	record, err := l.store.Get(ctx, userID)
	if err != nil {
		return models.StreakRecord{}, fmt.Errorf("load streak record: %w", err)
	}
	return record, nil
}

// WeeklyCompletionCount counts the user's workouts whose latest completion
// falls within the ISO week (Monday start) containing day.
func (l *Ledger) WeeklyCompletionCount(ctx context.Context, userID string, day time.Time) (int, error) {
	start, end := ISOWeekBounds(day)
	count, err := l.completions.CountCompletedInRange(ctx, userID, start, end)
	if err != nil {
		return 0, fmt.Errorf("count weekly completions: %w", err)
	}
	return count, nil
}

// advance applies the check-in transition to a streak record. It is the
// whole state machine: same day is idempotent, the next day increments,
// anything else resets to 1.
func advance(current models.StreakRecord, day time.Time) (models.StreakRecord, bool) {
	if current.LastCheckIn != nil && SameCivilDay(*current.LastCheckIn, day) {
		return current, false
	}

	next := current
	if current.LastCheckIn != nil && SameCivilDay(current.LastCheckIn.AddDate(0, 0, 1), day) {
		next.Streak = current.Streak + 1
	} else {
		next.Streak = 1
	}

	checkIn := day
	next.LastCheckIn = &checkIn
	next.CompletedSessions = current.CompletedSessions + 1
	return next, true
}

// CivilDay truncates a timestamp to its UTC calendar day.
func CivilDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameCivilDay reports whether two timestamps fall on the same UTC calendar day.
func SameCivilDay(a, b time.Time) bool {
	return CivilDay(a).Equal(CivilDay(b))
}

// ISOWeekBounds returns the half-open [start, end) range of the ISO week
// (Monday start) containing day.
func ISOWeekBounds(day time.Time) (time.Time, time.Time) {
	civil := CivilDay(day)
	offset := (int(civil.Weekday()) + 6) % 7
	start := civil.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 7)
}
