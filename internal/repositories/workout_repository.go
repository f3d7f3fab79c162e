package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fitstreak/backend/internal/db"
	"github.com/fitstreak/backend/internal/models"
)

// PostgresWorkoutRepository provides PostgreSQL-backed persistence for workouts.
type PostgresWorkoutRepository struct {
	pool db.Pool
}

// NewPostgresWorkoutRepository constructs a workout repository backed by PostgreSQL.
func NewPostgresWorkoutRepository(pool db.Pool) *PostgresWorkoutRepository {
	return &PostgresWorkoutRepository{pool: pool}
}

// Create persists a new workout record.
func (r *PostgresWorkoutRepository) Create(ctx context.Context, workout models.Workout) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO workouts (id, owner_id, name, muscle_group, scheduled_days, duration_label, created_at, last_completed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, workout.ID, workout.OwnerID, workout.Name, workout.MuscleGroup, workout.ScheduledDays, workout.DurationLabel, workout.CreatedAt, workout.LastCompletedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return ErrConflict
			case "23503":
				return ErrNotFound
			}
		}
		return fmt.Errorf("insert workout: %w", err)
	}

	return nil
}

// FindByID loads a workout owned by the given user.
func (r *PostgresWorkoutRepository) FindByID(ctx context.Context, ownerID, workoutID string) (models.Workout, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Workout{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT id, owner_id, name, muscle_group, scheduled_days, duration_label, created_at, last_completed_at
        FROM workouts
        WHERE id = $1 AND owner_id = $2
    `, workoutID, ownerID)

	workout, err := scanWorkout(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Workout{}, ErrNotFound
		}
		return models.Workout{}, fmt.Errorf("select workout: %w", err)
	}

	return workout, nil
}

// ListForOwner returns the user's workouts, oldest first.
func (r *PostgresWorkoutRepository) ListForOwner(ctx context.Context, ownerID string) ([]models.Workout, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, owner_id, name, muscle_group, scheduled_days, duration_label, created_at, last_completed_at
        FROM workouts
        WHERE owner_id = $1
        ORDER BY created_at
    `, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query workouts: %w", err)
	}
	defer rows.Close()

	var workouts []models.Workout
	for rows.Next() {
		workout, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workout: %w", err)
		}
		workouts = append(workouts, workout)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workouts: %w", err)
	}

	return workouts, nil
}

// MarkCompleted advances last_completed_at to day unless the workout was
// already completed that calendar day. The conditional update is the
// once-per-day guard; it reports false when nothing changed.
func (r *PostgresWorkoutRepository) MarkCompleted(ctx context.Context, ownerID, workoutID string, day time.Time) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE workouts
        SET last_completed_at = $3
        WHERE id = $1 AND owner_id = $2
          AND (last_completed_at IS NULL OR date_trunc('day', last_completed_at) < date_trunc('day', $3::timestamptz))
    `, workoutID, ownerID, day)
	if err != nil {
		return false, fmt.Errorf("update workout completion: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// CountCompletedInRange counts the user's workouts whose latest completion
// falls within [from, to).
func (r *PostgresWorkoutRepository) CountCompletedInRange(ctx context.Context, ownerID string, from, to time.Time) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int
	err = conn.QueryRow(ctx, `
        SELECT COUNT(*)
        FROM workouts
        WHERE owner_id = $1
          AND last_completed_at >= $2
          AND last_completed_at < $3
    `, ownerID, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count completed workouts: %w", err)
	}

	return count, nil
}

func scanWorkout(row pgx.Row) (models.Workout, error) {
	var workout models.Workout
	err := row.Scan(&workout.ID, &workout.OwnerID, &workout.Name, &workout.MuscleGroup, &workout.ScheduledDays, &workout.DurationLabel, &workout.CreatedAt, &workout.LastCompletedAt)
	return workout, err
}
