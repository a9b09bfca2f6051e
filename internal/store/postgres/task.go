package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/papanlab/papan/internal/domain"
)

type TaskRepo struct {
	pool *pgxpool.Pool
}

func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

const taskColumns = `id, project_id, board_id, column_id, title, description, progress, due_date, position, created_by, created_at, updated_at`

func (r *TaskRepo) Create(ctx context.Context, t *domain.Task) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (id, project_id, board_id, column_id, title, description, progress, due_date, position, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.ProjectID, t.BoardID, t.ColumnID, t.Title, t.Description,
		t.Progress, t.DueDate, t.Position, t.CreatedBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Create: %w", err)
	}

	return nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	return scanTask(row, "taskRepo.GetByID")
}

func (r *TaskRepo) GetDetail(ctx context.Context, id uuid.UUID) (*domain.TaskDetail, error) {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.GetDetail: %w", err)
	}

	labels, err := NewLabelRepo(r.pool).ListByTask(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.GetDetail: %w", err)
	}

	assignees, err := r.ListAssignees(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.GetDetail: %w", err)
	}

	if labels == nil {
		labels = []*domain.Label{}
	}
	if assignees == nil {
		assignees = []*domain.User{}
	}

	return &domain.TaskDetail{Task: *t, Labels: labels, Assignees: assignees}, nil
}

func (r *TaskRepo) ListByColumn(ctx context.Context, columnID uuid.UUID) ([]*domain.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE column_id = $1 ORDER BY position LIMIT 1000`,
		columnID,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListByColumn: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, scanErr := scanTask(rows, "taskRepo.ListByColumn")
		if scanErr != nil {
			return nil, scanErr
		}
		tasks = append(tasks, t)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("taskRepo.ListByColumn: %w", rows.Err())
	}

	return tasks, nil
}

func (r *TaskRepo) Update(ctx context.Context, t *domain.Task) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET title = $1, description = $2, progress = $3, due_date = $4, updated_at = now()
		 WHERE id = $5`,
		t.Title, t.Description, t.Progress, t.DueDate, t.ID,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Update: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TaskRepo) Move(ctx context.Context, id, toColumnID uuid.UUID, position float64) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks SET column_id = $1, position = $2, updated_at = now() WHERE id = $3`,
		toColumnID, position, id,
	)
	if err != nil {
		return fmt.Errorf("taskRepo.Move: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Move: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("taskRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("taskRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *TaskRepo) MaxPosition(ctx context.Context, columnID uuid.UUID) (float64, error) {
	var max float64

	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(position), 0) FROM tasks WHERE column_id = $1`,
		columnID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("taskRepo.MaxPosition: %w", err)
	}

	return max, nil
}

func (r *TaskRepo) WorkspaceIDForTask(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error) {
	var workspaceID uuid.UUID

	err := r.pool.QueryRow(ctx,
		`SELECT p.workspace_id
		 FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE t.id = $1`,
		taskID,
	).Scan(&workspaceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("taskRepo.WorkspaceIDForTask: %w", domain.ErrNotFound)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("taskRepo.WorkspaceIDForTask: %w", err)
	}

	return workspaceID, nil
}

func (r *TaskRepo) SetAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("taskRepo.SetAssignees: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("taskRepo.SetAssignees: clear: %w", err)
	}

	for _, userID := range userIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO task_assignees (task_id, user_id) VALUES ($1, $2)`,
			taskID, userID,
		); err != nil {
			return fmt.Errorf("taskRepo.SetAssignees: insert: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("taskRepo.SetAssignees: commit: %w", err)
	}

	return nil
}

func (r *TaskRepo) ListAssignees(ctx context.Context, taskID uuid.UUID) ([]*domain.User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.email, u.username, u.name, u.password_hash, u.created_at, u.updated_at, u.last_login_at
		 FROM task_assignees a
		 JOIN users u ON u.id = a.user_id
		 WHERE a.task_id = $1
		 ORDER BY u.username
		 LIMIT 100`,
		taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("taskRepo.ListAssignees: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, scanErr := scanUser(rows, "taskRepo.ListAssignees")
		if scanErr != nil {
			return nil, scanErr
		}
		users = append(users, u)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("taskRepo.ListAssignees: %w", rows.Err())
	}

	return users, nil
}

func scanTask(row pgx.Row, op string) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.BoardID, &t.ColumnID, &t.Title, &t.Description,
		&t.Progress, &t.DueDate, &t.Position, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &t, nil
}
