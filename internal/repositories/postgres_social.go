package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lermo/backend/internal/db"
	"github.com/lermo/backend/internal/models"
)

// PostgresFollowRepository provides PostgreSQL-backed persistence for follow edges.
type PostgresFollowRepository struct {
	pool db.Pool
}

// NewPostgresFollowRepository constructs a follow repository backed by PostgreSQL.
func NewPostgresFollowRepository(pool db.Pool) *PostgresFollowRepository {
	return &PostgresFollowRepository{pool: pool}
}

// Create persists a follow edge. A duplicate (follower, followed) pair
// reports ErrConflict via the unique constraint.
func (r *PostgresFollowRepository) Create(ctx context.Context, edge models.Follow) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO follows (id, follower_id, followed_id, created_at)
        VALUES ($1, $2, $3, $4)
    `, edge.ID, edge.FollowerID, edge.FollowedID, edge.CreatedAt)
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
		return fmt.Errorf("insert follow edge: %w", err)
	}

	return nil
}

// Delete hard-deletes the follower→followed edge.
func (r *PostgresFollowRepository) Delete(ctx context.Context, followerID, followedID string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        DELETE FROM follows
        WHERE follower_id = $1 AND followed_id = $2
    `, followerID, followedID)
	if err != nil {
		return fmt.Errorf("delete follow edge: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// Exists reports whether the follower→followed edge is present.
func (r *PostgresFollowRepository) Exists(ctx context.Context, followerID, followedID string) (bool, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var exists bool
	err = conn.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2
        )
    `, followerID, followedID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check follow edge: %w", err)
	}

	return exists, nil
}

// CountFollowers counts the edges pointing at the user.
func (r *PostgresFollowRepository) CountFollowers(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM follows WHERE followed_id = $1`, userID)
}

// CountFollowing counts the edges originating from the user.
func (r *PostgresFollowRepository) CountFollowing(ctx context.Context, userID string) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM follows WHERE follower_id = $1`, userID)
}

func (r *PostgresFollowRepository) count(ctx context.Context, query, userID string) (int, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var n int
	if err := conn.QueryRow(ctx, query, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count follow edges: %w", err)
	}

	return n, nil
}

// PostgresNotificationRepository provides PostgreSQL-backed persistence for notifications.
type PostgresNotificationRepository struct {
	pool db.Pool
}

// NewPostgresNotificationRepository constructs a notification repository backed by PostgreSQL.
func NewPostgresNotificationRepository(pool db.Pool) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{pool: pool}
}

// Create appends a notification record.
func (r *PostgresNotificationRepository) Create(ctx context.Context, notification models.Notification) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO notifications (id, recipient_id, content_id, message, noti_type, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `, notification.ID, notification.RecipientID, notification.ContentID, notification.Message,
		notification.Type, notification.Status, notification.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	return nil
}

// ListForRecipient returns the recipient's notifications, newest first.
func (r *PostgresNotificationRepository) ListForRecipient(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, recipient_id, content_id, message, noti_type, status, created_at
        FROM notifications
        WHERE recipient_id = $1
        ORDER BY created_at DESC
        LIMIT $2 OFFSET $3
    `, recipientID, limit, page*limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}
	defer rows.Close()

	var out []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.ContentID, &n.Message, &n.Type, &n.Status, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}

	return out, nil
}
