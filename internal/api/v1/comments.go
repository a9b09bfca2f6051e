package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/papanlab/papan/internal/domain"
	"github.com/papanlab/papan/internal/event"
)

type CreateCommentInput struct {
	TaskID uuid.UUID `path:"taskId" doc:"Task ID"`
	Body   struct {
		Body string `json:"body" minLength:"1" maxLength:"10000" doc:"Comment text"`
	}
}

type CreateCommentOutput struct {
	Body struct {
		Comment *domain.Comment `json:"comment"`
	}
}

type ListCommentsInput struct {
	TaskID uuid.UUID `path:"taskId" doc:"Task ID"`
}

type ListCommentsOutput struct {
	Body struct {
		Comments []*domain.Comment `json:"comments"`
	}
}

func RegisterCommentRoutes(api huma.API, store DataStore, bus Publisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-comment",
		Method:      http.MethodPost,
		Path:        "/tasks/{taskId}/comments",
		Summary:     "Comment on a task",
		Tags:        []string{"Comments"},
	}, func(ctx context.Context, input *CreateCommentInput) (*CreateCommentOutput, error) {
		workspaceID, err := taskWorkspace(ctx, store, input.TaskID)
		if err != nil {
			return nil, err
		}

		member, err := requireMember(ctx, store, workspaceID)
		if err != nil {
			return nil, err
		}

		task, err := store.Tasks().GetByID(ctx, input.TaskID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		c := &domain.Comment{
			ID:        uuid.New(),
			TaskID:    input.TaskID,
			AuthorID:  member.UserID,
			Body:      input.Body.Body,
			CreatedAt: time.Now(),
		}
		if err := store.Comments().Create(ctx, c); err != nil {
			return nil, huma.Error500InternalServerError("failed to create comment", err)
		}

		bus.Publish(event.Event{
			Type:        event.TypeCommentCreated,
			WorkspaceID: workspaceID.String(),
			TaskID:      input.TaskID.String(),
			CommentID:   c.ID.String(),
		})

		notifyAssignees(ctx, store, bus, task, member.UserID)

		out := &CreateCommentOutput{}
		out.Body.Comment = c
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-comments",
		Method:      http.MethodGet,
		Path:        "/tasks/{taskId}/comments",
		Summary:     "List task comments",
		Tags:        []string{"Comments"},
	}, func(ctx context.Context, input *ListCommentsInput) (*ListCommentsOutput, error) {
		workspaceID, err := taskWorkspace(ctx, store, input.TaskID)
		if err != nil {
			return nil, err
		}

		if _, err := requireMember(ctx, store, workspaceID); err != nil {
			return nil, err
		}

		comments, err := store.Comments().ListByTask(ctx, input.TaskID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list comments", err)
		}

		out := &ListCommentsOutput{}
		out.Body.Comments = comments
		if out.Body.Comments == nil {
			out.Body.Comments = []*domain.Comment{}
		}
		return out, nil
	})
}

// notifyAssignees persists a notification per assignee (author excluded)
// and publishes a user-scoped event for each after its row exists.
// Failures are logged inside the repository path but never fail the
// comment request itself.
func notifyAssignees(ctx context.Context, store DataStore, bus Publisher, task *domain.Task, authorID uuid.UUID) {
	assignees, err := store.Tasks().ListAssignees(ctx, task.ID)
	if err != nil {
		return
	}

	for _, u := range assignees {
		if u.ID == authorID {
			continue
		}
		n := &domain.Notification{
			ID:        uuid.New(),
			UserID:    u.ID,
			Title:     "New comment",
			Message:   fmt.Sprintf("New comment on %q", task.Title),
			URL:       "/tasks/" + task.ID.String(),
			CreatedAt: time.Now(),
		}
		if err := store.Notifications().Create(ctx, n); err != nil {
			continue
		}
		bus.Publish(event.Event{
			Type:   event.TypeNotification,
			UserID: u.ID.String(),
			Notification: &event.NotificationRef{
				ID:        n.ID.String(),
				Title:     n.Title,
				Message:   n.Message,
				URL:       n.URL,
				CreatedAt: n.CreatedAt.Format(time.RFC3339),
			},
		})
	}
}
