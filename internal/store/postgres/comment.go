package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/papanlab/papan/internal/domain"
)

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

func (r *CommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO comments (id, task_id, author_id, body, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.TaskID, c.AuthorID, c.Body, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("commentRepo.Create: %w", err)
	}

	return nil
}

func (r *CommentRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Comment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, task_id, author_id, body, created_at
		 FROM comments WHERE task_id = $1
		 ORDER BY created_at
		 LIMIT 500`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("commentRepo.ListByTask: %w", err)
	}
	defer rows.Close()

	var comments []*domain.Comment
	for rows.Next() {
		var c domain.Comment
		if scanErr := rows.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Body, &c.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("commentRepo.ListByTask: %w", scanErr)
		}
		comments = append(comments, &c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("commentRepo.ListByTask: %w", rows.Err())
	}

	return comments, nil
}

func (r *CommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("commentRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("commentRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}
