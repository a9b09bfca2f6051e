package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task is one card on a board column. Position is an opaque sortable key;
// clients only ever request index-based moves and the server computes the
// actual value (midpoint insertion between neighbours).
type Task struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"projectId"`
	BoardID     uuid.UUID  `json:"boardId"`
	ColumnID    uuid.UUID  `json:"columnId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Progress    int        `json:"progress"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Position    float64    `json:"position"`
	CreatedBy   uuid.UUID  `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskDetail is a task joined with its relational fields, returned by the
// detail fetch that clients use to reconcile thin task.updated events.
type TaskDetail struct {
	Task
	Labels    []*Label `json:"labels"`
	Assignees []*User  `json:"assignees"`
}

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	GetDetail(ctx context.Context, id uuid.UUID) (*TaskDetail, error)
	ListByColumn(ctx context.Context, columnID uuid.UUID) ([]*Task, error)
	Update(ctx context.Context, t *Task) error
	Move(ctx context.Context, id, toColumnID uuid.UUID, position float64) error
	Delete(ctx context.Context, id uuid.UUID) error

	// MaxPosition returns the highest task position in a column, 0 when empty.
	MaxPosition(ctx context.Context, columnID uuid.UUID) (float64, error)

	// WorkspaceIDForTask walks task -> project -> workspace.
	WorkspaceIDForTask(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error)

	// Assignees
	SetAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error
	ListAssignees(ctx context.Context, taskID uuid.UUID) ([]*User, error)
}
