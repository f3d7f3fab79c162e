package handlers

import (
	"net/http"
	"time"

	"github.com/fitstreak/backend/internal/middleware"
)

// RegisterRoutes wires HTTP handlers into the provided ServeMux. Everything
// under /api/v1 except the auth endpoints requires a bearer token.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authn := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Limiter: deps.AuthLimiter, NowFunc: deps.NowFunc}
	friends := FriendHandler{Friends: deps.Friends}
	workouts := WorkoutHandler{Workouts: deps.Workouts, NowFunc: deps.NowFunc}
	streaks := StreakHandler{Ledger: deps.Streaks, NowFunc: deps.NowFunc}
	notifications := NotificationHandler{Feed: deps.Notifications, Streamer: deps.NotificationStream, PollInterval: deps.NotificationPollInterval}
	profile := ProfileHandler{Users: deps.Users, Ledger: deps.Streaks, Avatars: deps.Avatars, NowFunc: deps.NowFunc}
	board := LeaderboardHandler{Leaderboard: deps.Leaderboard}

	requireAuth := middleware.RequireAuth(deps.Sessions)

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/login", authn.Login)
	mux.HandleFunc("/api/v1/auth/signup", authn.SignUp)
	mux.HandleFunc("/api/v1/auth/refresh", authn.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", authn.Logout)

	mux.Handle("/api/v1/me", requireAuth(http.HandlerFunc(profile.Me)))
	mux.Handle("/api/v1/me/avatar", requireAuth(http.HandlerFunc(profile.UploadAvatar)))
	mux.Handle("/api/v1/friends", requireAuth(http.HandlerFunc(friends.List)))
	mux.Handle("/api/v1/friends/requests", requireAuth(http.HandlerFunc(friends.Requests)))
	mux.Handle("/api/v1/friends/search", requireAuth(http.HandlerFunc(friends.Search)))
	mux.Handle("/api/v1/friends/request", requireAuth(http.HandlerFunc(friends.Request)))
	mux.Handle("/api/v1/friends/respond", requireAuth(http.HandlerFunc(friends.Respond)))
	mux.Handle("/api/v1/leaderboard", requireAuth(http.HandlerFunc(board.Handle)))
	mux.Handle("/api/v1/workouts", requireAuth(http.HandlerFunc(workouts.Handle)))
	mux.Handle("/api/v1/workouts/calendar", requireAuth(http.HandlerFunc(workouts.Calendar)))
	mux.Handle("/api/v1/workouts/complete", requireAuth(http.HandlerFunc(workouts.Complete)))
	mux.Handle("/api/v1/checkin", requireAuth(http.HandlerFunc(streaks.CheckIn)))
	mux.Handle("/api/v1/streak", requireAuth(http.HandlerFunc(streaks.Get)))
	mux.Handle("/api/v1/notifications", requireAuth(http.HandlerFunc(notifications.List)))
	mux.Handle("/api/v1/notifications/read", requireAuth(http.HandlerFunc(notifications.MarkRead)))
	mux.Handle("/api/v1/notifications/stream", requireAuth(http.HandlerFunc(notifications.Stream)))
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Sessions      SessionManager
	Friends       FriendGraph
	Workouts      WorkoutService
	Streaks       StreakLedger
	Notifications NotificationFeed
	Leaderboard   LeaderboardService
	Avatars       AvatarStorage
	AuthLimiter   RateLimiter
	NowFunc       func() time.Time

	NotificationStream       NotificationStreamer
	NotificationPollInterval time.Duration
}
