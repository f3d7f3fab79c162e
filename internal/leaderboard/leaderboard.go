package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/fitstreak/backend/internal/friends"
	"github.com/fitstreak/backend/internal/logging"
	"github.com/fitstreak/backend/internal/models"
)

const fanOutLimit = 8

// Entry is one ranked row of the friends leaderboard.
type Entry struct {
	Rank           int    `json:"rank"`
	UserID         string `json:"userId"`
	Username       string `json:"username"`
	AvatarURL      string `json:"avatarUrl,omitempty"`
	Streak         int    `json:"streak"`
	WeeklySessions int    `json:"weeklySessions"`
}

// FriendLister yields the accepted friends of a user.
type FriendLister interface {
	ListFriends(ctx context.Context, ownerID string) ([]friends.Result, error)
}

// StreakSource reads per-user streak state and weekly session counts.
type StreakSource interface {
	Get(ctx context.Context, userID string) (models.StreakRecord, error)
	WeeklyCompletionCount(ctx context.Context, userID string, day time.Time) (int, error)
}

// UserFinder resolves the acting user's own record for their leaderboard row.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (models.User, error)
}

// Service assembles the streak leaderboard for a user and their friends.
// Ranking is streak-based; weekly session counts are informational.
type Service struct {
	friends FriendLister
	streaks StreakSource
	users   UserFinder

	cache    *redis.Client
	cacheTTL time.Duration
	nowFunc  func() time.Time
}

// NewService constructs the leaderboard service. The Redis client is
// optional; a nil client disables the snapshot cache.
func NewService(friendLister FriendLister, streakSource StreakSource, users UserFinder, cache *redis.Client, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Service{
		friends:  friendLister,
		streaks:  streakSource,
		users:    users,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Standings returns the ranked leaderboard for the user and their friends.
// A short-lived cached snapshot may be served; streak reads for the live
// path fan out concurrently since the rows are independent.
func (s *Service) Standings(ctx context.Context, userID string) ([]Entry, error) {
	if entries, ok := s.cached(ctx, userID); ok {
		return entries, nil
	}

	ctx, span := logging.StartSpan(ctx, "leaderboard.standings")
	defer span.End()

	self, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve leaderboard owner: %w", err)
	}

	accepted, err := s.friends.ListFriends(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}

	participants := make([]models.User, 0, len(accepted)+1)
	participants = append(participants, self)
	for _, friend := range accepted {
		participants = append(participants, friend.User)
	}

	now := s.now()
	entries := make([]Entry, len(participants))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(fanOutLimit)

	var mu sync.Mutex
	for i, participant := range participants {
		i, participant := i, participant
		group.Go(func() error {
			record, err := s.streaks.Get(groupCtx, participant.ID)
			if err != nil {
				return fmt.Errorf("load streak for %s: %w", participant.ID, err)
			}

			weekly, err := s.streaks.WeeklyCompletionCount(groupCtx, participant.ID, now)
			if err != nil {
				return fmt.Errorf("count weekly sessions for %s: %w", participant.ID, err)
			}

			mu.Lock()
			entries[i] = Entry{
				UserID:         participant.ID,
				Username:       participant.Username,
				AvatarURL:      participant.AvatarURL,
				Streak:         record.Streak,
				WeeklySessions: weekly,
			}
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Streak != entries[j].Streak {
			return entries[i].Streak > entries[j].Streak
		}
		return entries[i].Username < entries[j].Username
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}

	s.store(ctx, userID, entries)
	return entries, nil
}

func (s *Service) cached(ctx context.Context, userID string) ([]Entry, bool) {
	if s.cache == nil {
		return nil, false
	}

	payload, err := s.cache.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logging.FromContext(ctx).Warn("leaderboard cache read failed", "userId", userID, "error", err)
		}
		return nil, false
	}

	var entries []Entry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (s *Service) store(ctx context.Context, userID string, entries []Entry) {
	if s.cache == nil {
		return
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, cacheKey(userID), payload, s.cacheTTL).Err(); err != nil {
		logging.FromContext(ctx).Warn("leaderboard cache write failed", "userId", userID, "error", err)
	}
}

func cacheKey(userID string) string {
	return "leaderboard:" + userID
}

func (s *Service) now() time.Time {
	if s.nowFunc != nil {
		return s.nowFunc()
	}
	return time.Now().UTC()
}
