package handlers

import (
	"context"
	"io"
	"time"

	"github.com/fitstreak/backend/internal/friends"
	"github.com/fitstreak/backend/internal/leaderboard"
	"github.com/fitstreak/backend/internal/models"
	"github.com/fitstreak/backend/internal/notifications"
	"github.com/fitstreak/backend/internal/workouts"
)

// UserStore captures the persistence operations required by the auth and
// profile handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	UpdateAvatarURL(ctx context.Context, userID, avatarURL string) error
}

// SessionManager issues, verifies, and refreshes authentication tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Verify(ctx context.Context, accessToken string) (string, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, token string)
}

// FriendGraph captures the friend relationship operations used by the
// friend handlers.
type FriendGraph interface {
	SendRequest(ctx context.Context, fromID, toID string) error
	AcceptRequest(ctx context.Context, accepterID, requesterID string) error
	RejectRequest(ctx context.Context, userID, otherID string) error
	Search(ctx context.Context, actorID, prefix string, limit int) ([]friends.Result, error)
	ListFriends(ctx context.Context, ownerID string) ([]friends.Result, error)
	ListIncoming(ctx context.Context, ownerID string) ([]friends.Result, error)
}

// WorkoutService captures workout logging and the calendar projection.
type WorkoutService interface {
	Create(ctx context.Context, ownerID string, input workouts.CreateInput) (models.Workout, error)
	ListForOwner(ctx context.Context, ownerID string) ([]models.Workout, error)
	VisibleOn(ctx context.Context, ownerID string, date time.Time) ([]models.Workout, error)
	MarkCompleted(ctx context.Context, ownerID, workoutID string, day time.Time) (models.Workout, bool, error)
}

// StreakLedger captures check-in accounting.
type StreakLedger interface {
	RecordCompletion(ctx context.Context, userID string, day time.Time) (models.StreakRecord, bool, error)
	Get(ctx context.Context, userID string) (models.StreakRecord, error)
	WeeklyCompletionCount(ctx context.Context, userID string, day time.Time) (int, error)
}

// NotificationFeed captures the notification listing and read-state operations.
type NotificationFeed interface {
	List(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
}

// NotificationStreamer opens live subscriptions to a user's unread
// notifications.
type NotificationStreamer interface {
	Subscribe(ctx context.Context, userID string, interval time.Duration) *notifications.Subscriber
}

// LeaderboardService assembles ranked standings for a user.
type LeaderboardService interface {
	Standings(ctx context.Context, userID string) ([]leaderboard.Entry, error)
}

// AvatarStorage persists uploaded profile images.
type AvatarStorage interface {
	SaveAvatar(ctx context.Context, userID, contentType string, r io.Reader) (string, error)
}
