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

type BoardRepo struct {
	pool *pgxpool.Pool
}

func NewBoardRepo(pool *pgxpool.Pool) *BoardRepo {
	return &BoardRepo{pool: pool}
}

func (r *BoardRepo) CreateProject(ctx context.Context, p *domain.Project) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO projects (id, workspace_id, name, created_at) VALUES ($1, $2, $3, $4)`,
		p.ID, p.WorkspaceID, p.Name, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.CreateProject: %w", err)
	}

	return nil
}

func (r *BoardRepo) CreateBoard(ctx context.Context, b *domain.Board) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO boards (id, project_id, name, is_default, created_at) VALUES ($1, $2, $3, $4, $5)`,
		b.ID, b.ProjectID, b.Name, b.IsDefault, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.CreateBoard: %w", err)
	}

	return nil
}

func (r *BoardRepo) CreateColumn(ctx context.Context, c *domain.Column) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO board_columns (id, board_id, title, accent, position) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.BoardID, c.Title, c.Accent, c.Position,
	)
	if err != nil {
		return fmt.Errorf("boardRepo.CreateColumn: %w", err)
	}

	return nil
}

// DefaultBoard resolves the workspace's default board, falling back to the
// first board of the first project.
func (r *BoardRepo) DefaultBoard(ctx context.Context, workspaceID uuid.UUID) (*domain.Board, error) {
	var b domain.Board

	err := r.pool.QueryRow(ctx,
		`SELECT b.id, b.project_id, b.name, b.is_default, b.created_at
		 FROM boards b
		 JOIN projects p ON p.id = b.project_id
		 WHERE p.workspace_id = $1
		 ORDER BY b.is_default DESC, b.created_at
		 LIMIT 1`,
		workspaceID,
	).Scan(&b.ID, &b.ProjectID, &b.Name, &b.IsDefault, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("boardRepo.DefaultBoard: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("boardRepo.DefaultBoard: %w", err)
	}

	return &b, nil
}

func (r *BoardRepo) GetColumn(ctx context.Context, id uuid.UUID) (*domain.Column, error) {
	var c domain.Column

	err := r.pool.QueryRow(ctx,
		`SELECT id, board_id, title, accent, position FROM board_columns WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.BoardID, &c.Title, &c.Accent, &c.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("boardRepo.GetColumn: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("boardRepo.GetColumn: %w", err)
	}

	return &c, nil
}

func (r *BoardRepo) ListColumns(ctx context.Context, boardID uuid.UUID) ([]*domain.Column, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, board_id, title, accent, position
		 FROM board_columns WHERE board_id = $1
		 ORDER BY position
		 LIMIT 100`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("boardRepo.ListColumns: %w", err)
	}
	defer rows.Close()

	var cols []*domain.Column
	for rows.Next() {
		var c domain.Column
		if scanErr := rows.Scan(&c.ID, &c.BoardID, &c.Title, &c.Accent, &c.Position); scanErr != nil {
			return nil, fmt.Errorf("boardRepo.ListColumns: %w", scanErr)
		}
		cols = append(cols, &c)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("boardRepo.ListColumns: %w", rows.Err())
	}

	return cols, nil
}

func (r *BoardRepo) WorkspaceIDForColumn(ctx context.Context, columnID uuid.UUID) (uuid.UUID, error) {
	var workspaceID uuid.UUID

	err := r.pool.QueryRow(ctx,
		`SELECT p.workspace_id
		 FROM board_columns c
		 JOIN boards b ON b.id = c.board_id
		 JOIN projects p ON p.id = b.project_id
		 WHERE c.id = $1`,
		columnID,
	).Scan(&workspaceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("boardRepo.WorkspaceIDForColumn: %w", domain.ErrNotFound)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("boardRepo.WorkspaceIDForColumn: %w", err)
	}

	return workspaceID, nil
}
