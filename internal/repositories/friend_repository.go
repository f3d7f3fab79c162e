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

// PostgresFriendEdgeRepository provides PostgreSQL-backed persistence for
// directed friend edges. Every operation that touches both directions of a
// pair runs inside one transaction so a torn pair is never visible to
// concurrent readers.
type PostgresFriendEdgeRepository struct {
	pool db.Pool
}

// NewPostgresFriendEdgeRepository constructs a friend edge repository backed by PostgreSQL.
func NewPostgresFriendEdgeRepository(pool db.Pool) *PostgresFriendEdgeRepository {
	return &PostgresFriendEdgeRepository{pool: pool}
}

// Get loads a single directed edge.
func (r *PostgresFriendEdgeRepository) Get(ctx context.Context, ownerID, otherID string) (models.FriendEdge, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.FriendEdge{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT owner_id, other_id, status, updated_at
        FROM friend_edges
        WHERE owner_id = $1 AND other_id = $2
    `, ownerID, otherID)

	var edge models.FriendEdge
	if err := row.Scan(&edge.OwnerID, &edge.OtherID, &edge.Status, &edge.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.FriendEdge{}, ErrNotFound
		}
		return models.FriendEdge{}, fmt.Errorf("select friend edge: %w", err)
	}

	return edge, nil
}

// CreatePair inserts both directions of a new request atomically. A
// concurrent insert of either direction surfaces as ErrConflict.
func (r *PostgresFriendEdgeRepository) CreatePair(ctx context.Context, outgoing, incoming models.FriendEdge) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		for _, edge := range []models.FriendEdge{outgoing, incoming} {
			_, err := tx.Exec(ctx, `
                INSERT INTO friend_edges (owner_id, other_id, status, updated_at)
                VALUES ($1, $2, $3, $4)
            `, edge.OwnerID, edge.OtherID, edge.Status, edge.UpdatedAt)
			if err != nil {
				var pgErr *pgconn.PgError
				if errors.As(err, &pgErr) && pgErr.Code == "23505" {
					return ErrConflict
				}
				return fmt.Errorf("insert friend edge: %w", err)
			}
		}
		return nil
	})
}

// AcceptPair promotes a (requested, pending) pair to friends atomically.
// The conditional updates double as the concurrency guard: if either side
// was changed underneath us the transaction rolls back with ErrConflict.
func (r *PostgresFriendEdgeRepository) AcceptPair(ctx context.Context, accepterID, requesterID string) error {
	now := time.Now().UTC()
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            UPDATE friend_edges
            SET status = $3, updated_at = $4
            WHERE owner_id = $1 AND other_id = $2 AND status = $5
        `, accepterID, requesterID, models.FriendStatusFriends, now, models.FriendStatusRequested)
		if err != nil {
			return fmt.Errorf("update incoming friend edge: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrConflict
		}

		tag, err = tx.Exec(ctx, `
            UPDATE friend_edges
            SET status = $3, updated_at = $4
            WHERE owner_id = $1 AND other_id = $2 AND status = $5
        `, requesterID, accepterID, models.FriendStatusFriends, now, models.FriendStatusPending)
		if err != nil {
			return fmt.Errorf("update outgoing friend edge: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrConflict
		}

		return nil
	})
}

// DeletePair removes both directions of an unanswered request atomically.
// Accepted pairs are never deleted.
func (r *PostgresFriendEdgeRepository) DeletePair(ctx context.Context, userA, userB string) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
            DELETE FROM friend_edges
            WHERE ((owner_id = $1 AND other_id = $2) OR (owner_id = $2 AND other_id = $1))
              AND status IN ($3, $4)
        `, userA, userB, models.FriendStatusPending, models.FriendStatusRequested)
		if err != nil {
			return fmt.Errorf("delete friend edge pair: %w", err)
		}

		switch tag.RowsAffected() {
		case 2:
			return nil
		case 0:
			return ErrNotFound
		default:
			return ErrConflict
		}
	})
}

// ListForOwner returns the owner's edges with the given status, most
// recently updated first.
func (r *PostgresFriendEdgeRepository) ListForOwner(ctx context.Context, ownerID string, status models.FriendStatus) ([]models.FriendEdge, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT owner_id, other_id, status, updated_at
        FROM friend_edges
        WHERE owner_id = $1 AND status = $2
        ORDER BY updated_at DESC
    `, ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("query friend edges: %w", err)
	}
	defer rows.Close()

	var edges []models.FriendEdge
	for rows.Next() {
		var edge models.FriendEdge
		if err := rows.Scan(&edge.OwnerID, &edge.OtherID, &edge.Status, &edge.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan friend edge: %w", err)
		}
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friend edges: %w", err)
	}

	return edges, nil
}

func (r *PostgresFriendEdgeRepository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
