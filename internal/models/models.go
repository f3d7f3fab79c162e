package models

import "time"

// User represents an account within the FitStreak platform.
type User struct {
	ID        string
	Email     string
	Username  string
	Password  string
	AvatarURL string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FriendStatus describes one direction of the relationship between two users.
type FriendStatus string

const (
	// FriendStatusNone is implied by the absence of an edge record; it is
	// never persisted.
	FriendStatusNone FriendStatus = "none"
	// FriendStatusPending marks an outgoing request awaiting a response.
	FriendStatusPending FriendStatus = "pending"
	// FriendStatusRequested marks an incoming request awaiting a response.
	FriendStatusRequested FriendStatus = "requested"
	// FriendStatusFriends marks an accepted relationship.
	FriendStatusFriends FriendStatus = "friends"
)

// FriendEdge stores one direction of a friend relationship. Every
// relationship that has progressed past "none" is represented by two edges,
// one per owner, kept consistent as a pair: pending pairs with requested,
// friends pairs with friends.
type FriendEdge struct {
	OwnerID   string
	OtherID   string
	Status    FriendStatus
	UpdatedAt time.Time
}

// StreakRecord tracks a user's daily check-in streak and lifetime session
// count. LastCheckIn is nil until the first completion is recorded.
type StreakRecord struct {
	UserID            string
	Streak            int
	LastCheckIn       *time.Time
	CompletedSessions int
}

// Workout is a recurring workout logged by its owner. ScheduledDays holds
// weekday names as the mobile clients store them ("Monday" ... "Sunday").
// LastCompletedAt advances at most once per calendar day.
type Workout struct {
	ID              string
	OwnerID         string
	Name            string
	MuscleGroup     string
	ScheduledDays   []string
	DurationLabel   string
	CreatedAt       time.Time
	LastCompletedAt *time.Time
}

// NotificationKind classifies in-app notifications.
type NotificationKind string

const (
	NotificationFriendRequest NotificationKind = "friend_request"
	NotificationFriendAccept  NotificationKind = "friend_accept"
	NotificationRemind        NotificationKind = "remind"
	NotificationConfront      NotificationKind = "confront"
	NotificationGeneral       NotificationKind = "general"
)

// Notification is an in-app message delivered to a single user.
type Notification struct {
	ID           string
	UserID       string
	Message      string
	FromUserID   string
	FromUsername string
	Kind         NotificationKind
	Read         bool
	CreatedAt    time.Time
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
