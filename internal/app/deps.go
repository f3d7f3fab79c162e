package app

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/fitstreak/backend/internal/auth"
	"github.com/fitstreak/backend/internal/cache"
	"github.com/fitstreak/backend/internal/config"
	"github.com/fitstreak/backend/internal/db"
	"github.com/fitstreak/backend/internal/friends"
	"github.com/fitstreak/backend/internal/handlers"
	"github.com/fitstreak/backend/internal/leaderboard"
	"github.com/fitstreak/backend/internal/logging"
	"github.com/fitstreak/backend/internal/middleware"
	"github.com/fitstreak/backend/internal/notifications"
	"github.com/fitstreak/backend/internal/repositories"
	"github.com/fitstreak/backend/internal/storage"
	"github.com/fitstreak/backend/internal/streaks"
	"github.com/fitstreak/backend/internal/workouts"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. Redis and the avatar bucket are optional: the service runs
// without them, dropping only the leaderboard cache and avatar uploads.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	users := repositories.NewPostgresUserRepository(pool)
	edges := repositories.NewPostgresFriendEdgeRepository(pool)
	workoutStore := repositories.NewPostgresWorkoutRepository(pool)
	streakStore := repositories.NewPostgresStreakRepository(pool)
	notificationStore := repositories.NewPostgresNotificationRepository(pool)
	sessionStore := repositories.NewPostgresSessionStore(pool)

	sessions := auth.NewManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, sessionStore)
	feed := notifications.NewService(notificationStore)
	friendGraph := friends.NewService(edges, users, feed)
	ledger := streaks.NewLedger(streakStore, workoutStore)
	workoutService := workouts.NewService(workoutStore, ledger)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		client, err := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logging.FromContext(ctx).Warn("redis unavailable, leaderboard cache disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			redisClient = client
		}
	}

	board := leaderboard.NewService(friendGraph, ledger, users, redisClient, cfg.LeaderboardCacheTTL)

	var avatars handlers.AvatarStorage
	if cfg.ObjectStore.Bucket != "" {
		store, err := storage.NewS3AvatarStorage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		avatars = store
	}

	var limiter handlers.RateLimiter
	if cfg.AuthRateLimit > 0 {
		limiter = middleware.NewIPRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, cfg.AuthRateBurst, 0)
	}

	cleanup := func(context.Context) error {
		if redisClient != nil {
			return redisClient.Close()
		}
		return nil
	}

	return handlers.Dependencies{
		Users:         users,
		Sessions:      sessions,
		Friends:       friendGraph,
		Workouts:      workoutService,
		Streaks:       ledger,
		Notifications: feed,
		Leaderboard:   board,
		Avatars:       avatars,
		AuthLimiter:   limiter,

		NotificationStream:       feed,
		NotificationPollInterval: cfg.NotificationPollInterval,
	}, cleanup, nil
}
