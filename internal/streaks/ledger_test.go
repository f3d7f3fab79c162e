package streaks

import (
	"context"
	"testing"
	"time"

	"github.com/fitstreak/backend/internal/models"
)

type inMemoryStreakStore struct {
	records map[string]models.StreakRecord
}

func newInMemoryStreakStore() *inMemoryStreakStore {
	return &inMemoryStreakStore{records: make(map[string]models.StreakRecord)}
}

func (s *inMemoryStreakStore) Apply(_ context.Context, userID string, mutate func(models.StreakRecord) (models.StreakRecord, bool)) (models.StreakRecord, bool, error) {
	current, ok := s.records[userID]
	if !ok {
		current = models.StreakRecord{UserID: userID}
	}
	next, changed := mutate(current)
	if changed {
		s.records[userID] = next
	}
	return next, changed, nil
}

func (s *inMemoryStreakStore) Get(_ context.Context, userID string) (models.StreakRecord, error) {
	record, ok := s.records[userID]
	if !ok {
		return models.StreakRecord{UserID: userID}, nil
	}
	return record, nil
}

type fixedCounter struct {
	count int
	from  time.Time
	to    time.Time
}

func (c *fixedCounter) CountCompletedInRange(_ context.Context, _ string, from, to time.Time) (int, error) {
	c.from = from
	c.to = to
	return c.count, nil
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestRecordCompletionFirstCheckIn(t *testing.T) {
	ledger := NewLedger(newInMemoryStreakStore(), &fixedCounter{})
	ctx := context.Background()

	record, changed, err := ledger.RecordCompletion(ctx, "user-1", day(2024, time.January, 1))
	if err != nil {
		t.Fatalf("record completion: %v", err)
	}
	if !changed {
		t.Fatal("expected first check-in to change the record")
	}
	if record.Streak != 1 || record.CompletedSessions != 1 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.LastCheckIn == nil || !record.LastCheckIn.Equal(day(2024, time.January, 1)) {
		t.Fatalf("unexpected last check-in: %v", record.LastCheckIn)
	}
}

func TestRecordCompletionSameDayIsIdempotent(t *testing.T) {
	ledger := NewLedger(newInMemoryStreakStore(), &fixedCounter{})
	ctx := context.Background()

	if _, _, err := ledger.RecordCompletion(ctx, "user-1", day(2024, time.January, 1)); err != nil {
		t.Fatalf("first check-in: %v", err)
	}

	// Later the same day, at a different hour.
	record, changed, err := ledger.RecordCompletion(ctx, "user-1", time.Date(2024, time.January, 1, 22, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("second check-in: %v", err)
	}
	if changed {
		t.Fatal("expected same-day check-in to be a no-op")
	}
	if record.Streak != 1 || record.CompletedSessions != 1 {
		t.Fatalf("same-day check-in mutated the record: %+v", record)
	}
}

func TestRecordCompletionConsecutiveDaysIncrement(t *testing.T) {
	ledger := NewLedger(newInMemoryStreakStore(), &fixedCounter{})
	ctx := context.Background()

	days := []time.Time{
		day(2024, time.January, 1),
		day(2024, time.January, 2),
		day(2024, time.January, 3),
	}

	var record models.StreakRecord
	var err error
	for _, d := range days {
		record, _, err = ledger.RecordCompletion(ctx, "user-1", d)
		if err != nil {
			t.Fatalf("check-in on %v: %v", d, err)
		}
	}

	if record.Streak != 3 {
		t.Fatalf("expected streak 3 after three consecutive days, got %d", record.Streak)
	}
	if record.CompletedSessions != 3 {
		t.Fatalf("expected 3 sessions, got %d", record.CompletedSessions)
	}
}

func TestRecordCompletionGapResetsToOne(t *testing.T) {
	ledger := NewLedger(newInMemoryStreakStore(), &fixedCounter{})
	ctx := context.Background()

	if _, _, err := ledger.RecordCompletion(ctx, "user-1", day(2024, time.January, 1)); err != nil {
		t.Fatalf("first check-in: %v", err)
	}
	if _, _, err := ledger.RecordCompletion(ctx, "user-1", day(2024, time.January, 2)); err != nil {
		t.Fatalf("second check-in: %v", err)
	}

	// Three days later: the streak breaks and restarts at 1.
	record, changed, err := ledger.RecordCompletion(ctx, "user-1", day(2024, time.January, 5))
	if err != nil {
		t.Fatalf("check-in after gap: %v", err)
	}
	if !changed {
		t.Fatal("expected reset check-in to change the record")
	}
	if record.Streak != 1 {
		t.Fatalf("expected streak reset to 1, got %d", record.Streak)
	}
	if record.CompletedSessions != 3 {
		t.Fatalf("lifetime session count should survive resets, got %d", record.CompletedSessions)
	}
}

func TestRecordCompletionMonthBoundary(t *testing.T) {
	ledger := NewLedger(newInMemoryStreakStore(), &fixedCounter{})
	ctx := context.Background()

	if _, _, err := ledger.RecordCompletion(ctx, "user-1", day(2024, time.January, 31)); err != nil {
		t.Fatalf("check-in: %v", err)
	}
	record, _, err := ledger.RecordCompletion(ctx, "user-1", day(2024, time.February, 1))
	if err != nil {
		t.Fatalf("check-in: %v", err)
	}
	if record.Streak != 2 {
		t.Fatalf("expected increment across month boundary, got %d", record.Streak)
	}
}

func TestWeeklyCompletionCountUsesISOWeek(t *testing.T) {
	counter := &fixedCounter{count: 4}
	ledger := NewLedger(newInMemoryStreakStore(), counter)

	// Wednesday 2024-01-17; the ISO week spans Mon 15th through Sun 21st.
	count, err := ledger.WeeklyCompletionCount(context.Background(), "user-1", day(2024, time.January, 17))
	if err != nil {
		t.Fatalf("weekly count: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4, got %d", count)
	}
	if !counter.from.Equal(day(2024, time.January, 15)) {
		t.Fatalf("expected week start Monday the 15th, got %v", counter.from)
	}
	if !counter.to.Equal(day(2024, time.January, 22)) {
		t.Fatalf("expected exclusive week end the 22nd, got %v", counter.to)
	}
}

func TestISOWeekBoundsOnSunday(t *testing.T) {
	// Sunday belongs to the week that started the previous Monday.
	start, end := ISOWeekBounds(day(2024, time.January, 21))
	if !start.Equal(day(2024, time.January, 15)) || !end.Equal(day(2024, time.January, 22)) {
		t.Fatalf("unexpected bounds: %v - %v", start, end)
	}
}

func TestCivilDayNormalizesToUTC(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	late := time.Date(2024, time.January, 1, 23, 30, 0, 0, est)
	if got := CivilDay(late); !got.Equal(day(2024, time.January, 2)) {
		t.Fatalf("expected UTC civil day Jan 2, got %v", got)
	}
}
