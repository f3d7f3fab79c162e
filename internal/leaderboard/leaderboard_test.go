package leaderboard

import (
	"context"
	"testing"
	"time"

	"github.com/fitstreak/backend/internal/friends"
	"github.com/fitstreak/backend/internal/models"
	"github.com/fitstreak/backend/internal/repositories"
)

type fakeFriendLister struct {
	results []friends.Result
}

func (f fakeFriendLister) ListFriends(context.Context, string) ([]friends.Result, error) {
	return f.results, nil
}

type fakeStreakSource struct {
	streaks map[string]int
	weekly  map[string]int
}

func (f fakeStreakSource) Get(_ context.Context, userID string) (models.StreakRecord, error) {
	return models.StreakRecord{UserID: userID, Streak: f.streaks[userID]}, nil
}

func (f fakeStreakSource) WeeklyCompletionCount(_ context.Context, userID string, _ time.Time) (int, error) {
	return f.weekly[userID], nil
}

type fakeUserFinder struct {
	users map[string]models.User
}

func (f fakeUserFinder) FindByID(_ context.Context, id string) (models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func TestStandingsRanksByStreakThenUsername(t *testing.T) {
	self := models.User{ID: "self", Username: "casey"}
	ana := models.User{ID: "ana", Username: "ana"}
	zoe := models.User{ID: "zoe", Username: "zoe"}
	abe := models.User{ID: "abe", Username: "abe"}

	svc := NewService(
		fakeFriendLister{results: []friends.Result{
			{User: ana, Status: models.FriendStatusFriends},
			{User: zoe, Status: models.FriendStatusFriends},
			{User: abe, Status: models.FriendStatusFriends},
		}},
		fakeStreakSource{
			streaks: map[string]int{"self": 5, "ana": 9, "zoe": 5, "abe": 9},
			weekly:  map[string]int{"self": 2, "ana": 4},
		},
		fakeUserFinder{users: map[string]models.User{"self": self}},
		nil, // no cache
		time.Second,
	)

	entries, err := svc.Standings(context.Background(), "self")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}

	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}

	// Streak desc, username asc for ties.
	expected := []string{"abe", "ana", "casey", "zoe"}
	for i, username := range expected {
		if entries[i].Username != username {
			t.Fatalf("position %d: expected %s, got %s", i, username, entries[i].Username)
		}
		if entries[i].Rank != i+1 {
			t.Fatalf("position %d: expected rank %d, got %d", i, i+1, entries[i].Rank)
		}
	}

	if entries[1].WeeklySessions != 4 {
		t.Fatalf("expected ana weekly sessions 4, got %d", entries[1].WeeklySessions)
	}
}

func TestStandingsSoloUser(t *testing.T) {
	self := models.User{ID: "self", Username: "casey"}
	svc := NewService(
		fakeFriendLister{},
		fakeStreakSource{streaks: map[string]int{"self": 2}, weekly: map[string]int{}},
		fakeUserFinder{users: map[string]models.User{"self": self}},
		nil,
		time.Second,
	)

	entries, err := svc.Standings(context.Background(), "self")
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(entries) != 1 || entries[0].Rank != 1 || entries[0].UserID != "self" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestStandingsUnknownUser(t *testing.T) {
	svc := NewService(
		fakeFriendLister{},
		fakeStreakSource{},
		fakeUserFinder{users: map[string]models.User{}},
		nil,
		time.Second,
	)

	if _, err := svc.Standings(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}
