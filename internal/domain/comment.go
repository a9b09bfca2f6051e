package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"taskId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type CommentRepository interface {
	Create(ctx context.Context, c *Comment) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Comment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
