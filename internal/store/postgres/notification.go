package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/papanlab/papan/internal/domain"
)

type NotificationRepo struct {
	pool *pgxpool.Pool
}

func NewNotificationRepo(pool *pgxpool.Pool) *NotificationRepo {
	return &NotificationRepo{pool: pool}
}

func (r *NotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, title, message, url, read_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, n.Title, n.Message, n.URL, n.ReadAt, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("notificationRepo.Create: %w", err)
	}

	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, title, message, url, read_at, created_at
		 FROM notifications WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("notificationRepo.ListByUser: %w", err)
	}
	defer rows.Close()

	var notifications []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		if scanErr := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.URL, &n.ReadAt, &n.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("notificationRepo.ListByUser: %w", scanErr)
		}
		notifications = append(notifications, &n)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("notificationRepo.ListByUser: %w", rows.Err())
	}

	return notifications, nil
}

func (r *NotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("notificationRepo.CountUnread: %w", err)
	}

	return count, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read_at = now() WHERE user_id = $1 AND id = ANY($2) AND read_at IS NULL`,
		userID, ids,
	)
	if err != nil {
		return fmt.Errorf("notificationRepo.MarkRead: %w", err)
	}

	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE notifications SET read_at = now() WHERE user_id = $1 AND read_at IS NULL`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("notificationRepo.MarkAllRead: %w", err)
	}

	return nil
}
