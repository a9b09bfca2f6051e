package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspaceId"`
	Name        string    `json:"name"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Board struct {
	ID        uuid.UUID `json:"id"`
	ProjectID uuid.UUID `json:"projectId"`
	Name      string    `json:"name"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

type Column struct {
	ID       uuid.UUID `json:"id"`
	BoardID  uuid.UUID `json:"boardId"`
	Title    string    `json:"title"`
	Accent   string    `json:"accent,omitempty"`
	Position float64   `json:"position"`
}

type BoardRepository interface {
	CreateProject(ctx context.Context, p *Project) error
	CreateBoard(ctx context.Context, b *Board) error
	CreateColumn(ctx context.Context, c *Column) error

	// DefaultBoard resolves the default board of a workspace's first
	// project, falling back to the first board found.
	DefaultBoard(ctx context.Context, workspaceID uuid.UUID) (*Board, error)
	GetColumn(ctx context.Context, id uuid.UUID) (*Column, error)
	ListColumns(ctx context.Context, boardID uuid.UUID) ([]*Column, error)

	// WorkspaceIDForColumn walks column -> board -> project -> workspace.
	WorkspaceIDForColumn(ctx context.Context, columnID uuid.UUID) (uuid.UUID, error)
}
