package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/papanlab/papan/internal/domain"
)

type LabelRepo struct {
	pool *pgxpool.Pool
}

func NewLabelRepo(pool *pgxpool.Pool) *LabelRepo {
	return &LabelRepo{pool: pool}
}

func (r *LabelRepo) Create(ctx context.Context, l *domain.Label) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO labels (id, workspace_id, name, color) VALUES ($1, $2, $3, $4)`,
		l.ID, l.WorkspaceID, l.Name, l.Color,
	)
	if err != nil {
		return fmt.Errorf("labelRepo.Create: %w", err)
	}

	return nil
}

func (r *LabelRepo) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*domain.Label, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, workspace_id, name, color FROM labels WHERE workspace_id = $1 ORDER BY name LIMIT 200`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("labelRepo.ListByWorkspace: %w", err)
	}
	defer rows.Close()

	return scanLabels(rows, "labelRepo.ListByWorkspace")
}

func (r *LabelRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM labels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("labelRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("labelRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *LabelRepo) SetTaskLabels(ctx context.Context, taskID uuid.UUID, labelIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("labelRepo.SetTaskLabels: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM task_labels WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("labelRepo.SetTaskLabels: clear: %w", err)
	}

	for _, labelID := range labelIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO task_labels (task_id, label_id) VALUES ($1, $2)`,
			taskID, labelID,
		); err != nil {
			return fmt.Errorf("labelRepo.SetTaskLabels: insert: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("labelRepo.SetTaskLabels: commit: %w", err)
	}

	return nil
}

func (r *LabelRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Label, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT l.id, l.workspace_id, l.name, l.color
		 FROM task_labels tl
		 JOIN labels l ON l.id = tl.label_id
		 WHERE tl.task_id = $1
		 ORDER BY l.name
		 LIMIT 200`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("labelRepo.ListByTask: %w", err)
	}
	defer rows.Close()

	return scanLabels(rows, "labelRepo.ListByTask")
}

func scanLabels(rows pgx.Rows, op string) ([]*domain.Label, error) {
	var labels []*domain.Label
	for rows.Next() {
		var l domain.Label
		if err := rows.Scan(&l.ID, &l.WorkspaceID, &l.Name, &l.Color); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		labels = append(labels, &l)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("%s: %w", op, rows.Err())
	}

	return labels, nil
}
