package domain

import (
	"context"

	"github.com/google/uuid"
)

type Label struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspaceId"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
}

type LabelRepository interface {
	Create(ctx context.Context, l *Label) error
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*Label, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Task attachment
	SetTaskLabels(ctx context.Context, taskID uuid.UUID, labelIDs []uuid.UUID) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Label, error)
}
