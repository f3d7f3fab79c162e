package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fitstreak/backend/internal/db"
	"github.com/fitstreak/backend/internal/models"
)

// PostgresStreakRepository provides PostgreSQL-backed persistence for streak
// records.
type PostgresStreakRepository struct {
	pool db.Pool
}

// NewPostgresStreakRepository constructs a streak repository backed by PostgreSQL.
func NewPostgresStreakRepository(pool db.Pool) *PostgresStreakRepository {
	return &PostgresStreakRepository{pool: pool}
}

// Apply runs mutate against the user's current record inside a transaction,
// holding a row lock from read to write so concurrent check-ins serialize
// instead of losing updates. The record row is created on first use.
func (r *PostgresStreakRepository) Apply(ctx context.Context, userID string, mutate func(models.StreakRecord) (models.StreakRecord, bool)) (models.StreakRecord, bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.StreakRecord{}, false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return models.StreakRecord{}, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
        INSERT INTO streaks (user_id, streak, completed_sessions)
        VALUES ($1, 0, 0)
        ON CONFLICT (user_id) DO NOTHING
    `, userID); err != nil {
		return models.StreakRecord{}, false, fmt.Errorf("ensure streak row: %w", err)
	}

	row := tx.QueryRow(ctx, `
        SELECT user_id, streak, last_check_in, completed_sessions
        FROM streaks
        WHERE user_id = $1
        FOR UPDATE
    `, userID)

	var current models.StreakRecord
	if err := row.Scan(&current.UserID, &current.Streak, &current.LastCheckIn, &current.CompletedSessions); err != nil {
		return models.StreakRecord{}, false, fmt.Errorf("select streak for update: %w", err)
	}

	next, changed := mutate(current)
	if !changed {
		if err := tx.Commit(ctx); err != nil {
			return models.StreakRecord{}, false, fmt.Errorf("commit transaction: %w", err)
		}
		return current, false, nil
	}

	if _, err := tx.Exec(ctx, `
        UPDATE streaks
        SET streak = $2, last_check_in = $3, completed_sessions = $4
        WHERE user_id = $1
    `, userID, next.Streak, next.LastCheckIn, next.CompletedSessions); err != nil {
		return models.StreakRecord{}, false, fmt.Errorf("update streak: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.StreakRecord{}, false, fmt.Errorf("commit transaction: %w", err)
	}

	return next, true, nil
}

// Get returns the user's streak record. Users who never checked in get the
// zero record rather than ErrNotFound.
func (r *PostgresStreakRepository) Get(ctx context.Context, userID string) (models.StreakRecord, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.StreakRecord{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT user_id, streak, last_check_in, completed_sessions
        FROM streaks
        WHERE user_id = $1
    `, userID)

	var record models.StreakRecord
	if err := row.Scan(&record.UserID, &record.Streak, &record.LastCheckIn, &record.CompletedSessions); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.StreakRecord{UserID: userID}, nil
		}
		return models.StreakRecord{}, fmt.Errorf("select streak: %w", err)
	}

	return record, nil
}
