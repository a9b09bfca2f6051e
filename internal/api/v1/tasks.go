package v1

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/papanlab/papan/internal/domain"
	"github.com/papanlab/papan/internal/event"
)

type CreateTaskInput struct {
	Body struct {
		ColumnID    uuid.UUID  `json:"columnId" doc:"Target column ID"`
		Title       string     `json:"title" minLength:"1" maxLength:"500" doc:"Task title"`
		Description string     `json:"description,omitempty" doc:"Task description"`
		Progress    int        `json:"progress,omitempty" minimum:"0" maximum:"100" doc:"Completion percentage"`
		DueDate     *time.Time `json:"dueDate,omitempty" doc:"Due date"`
	}
}

type CreateTaskOutput struct {
	Body struct {
		Task *domain.Task `json:"task"`
	}
}

type GetTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

type GetTaskOutput struct {
	Body *domain.TaskDetail
}

type UpdateTaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		Title       *string    `json:"title,omitempty" maxLength:"500" doc:"Task title"`
		Description *string    `json:"description,omitempty" doc:"Task description"`
		Progress    *int       `json:"progress,omitempty" minimum:"0" maximum:"100" doc:"Completion percentage"`
		DueDate     *time.Time `json:"dueDate,omitempty" doc:"Due date"`
	}
}

type UpdateTaskOutput struct {
	Body struct {
		Task *domain.Task `json:"task"`
	}
}

type MoveTaskInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		ToColumnID uuid.UUID `json:"toColumnId" doc:"Destination column ID"`
		Position   int       `json:"position" minimum:"0" doc:"Index in the destination column"`
	}
}

type MoveTaskOutput struct {
	Body struct {
		Task *domain.Task `json:"task"`
	}
}

type DeleteTaskInput struct {
	ID uuid.UUID `path:"id" doc:"Task ID"`
}

type SetTaskLabelsInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		LabelIDs []uuid.UUID `json:"labelIds" doc:"Complete label set for the task"`
	}
}

type SetTaskAssigneesInput struct {
	ID   uuid.UUID `path:"id" doc:"Task ID"`
	Body struct {
		UserIDs []uuid.UUID `json:"userIds" doc:"Complete assignee set for the task"`
	}
}

func RegisterTaskRoutes(api huma.API, store DataStore, bus Publisher) {
	huma.Register(api, huma.Operation{
		OperationID: "create-task",
		Method:      http.MethodPost,
		Path:        "/tasks",
		Summary:     "Create a new task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *CreateTaskInput) (*CreateTaskOutput, error) {
		col, err := store.Boards().GetColumn(ctx, input.Body.ColumnID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("column not found")
			}
			return nil, huma.Error500InternalServerError("failed to resolve column")
		}

		workspaceID, err := store.Boards().WorkspaceIDForColumn(ctx, col.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to resolve workspace")
		}

		member, err := requireEditor(ctx, store, workspaceID)
		if err != nil {
			return nil, err
		}

		maxPos, err := store.Tasks().MaxPosition(ctx, col.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to compute position")
		}

		board, err := store.Boards().DefaultBoard(ctx, workspaceID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to resolve board")
		}

		now := time.Now()
		t := &domain.Task{
			ID:          uuid.New(),
			ProjectID:   board.ProjectID,
			BoardID:     col.BoardID,
			ColumnID:    col.ID,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Progress:    input.Body.Progress,
			DueDate:     input.Body.DueDate,
			Position:    maxPos + 1,
			CreatedBy:   member.UserID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if err := store.Tasks().Create(ctx, t); err != nil {
			return nil, huma.Error500InternalServerError("failed to create task", err)
		}

		bus.Publish(event.Event{
			Type:        event.TypeTaskCreated,
			WorkspaceID: workspaceID.String(),
			Task:        createdTaskRef(t),
		})

		out := &CreateTaskOutput{}
		out.Body.Task = t
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get full task detail",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *GetTaskInput) (*GetTaskOutput, error) {
		workspaceID, err := taskWorkspace(ctx, store, input.ID)
		if err != nil {
			return nil, err
		}

		if _, err := requireMember(ctx, store, workspaceID); err != nil {
			return nil, err
		}

		detail, err := store.Tasks().GetDetail(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		return &GetTaskOutput{Body: detail}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}",
		Summary:     "Update task fields",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *UpdateTaskInput) (*UpdateTaskOutput, error) {
		workspaceID, err := taskWorkspace(ctx, store, input.ID)
		if err != nil {
			return nil, err
		}

		if _, err := requireEditor(ctx, store, workspaceID); err != nil {
			return nil, err
		}

		existing, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		// Thin event payload: only the fields that actually changed.
		ref := &event.TaskRef{ID: existing.ID.String()}
		if input.Body.Title != nil {
			existing.Title = *input.Body.Title
			ref.Title = input.Body.Title
		}
		if input.Body.Description != nil {
			existing.Description = *input.Body.Description
		}
		if input.Body.Progress != nil {
			existing.Progress = *input.Body.Progress
			ref.Progress = input.Body.Progress
		}
		if input.Body.DueDate != nil {
			existing.DueDate = input.Body.DueDate
			due := input.Body.DueDate.Format(time.RFC3339)
			ref.DueDate = &due
		}
		existing.UpdatedAt = time.Now()

		if err := store.Tasks().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update task", err)
		}

		bus.Publish(event.Event{
			Type:        event.TypeTaskUpdated,
			WorkspaceID: workspaceID.String(),
			Task:        ref,
		})

		out := &UpdateTaskOutput{}
		out.Body.Task = existing
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-task",
		Method:      http.MethodPatch,
		Path:        "/tasks/{id}/move",
		Summary:     "Move a task to a column position",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *MoveTaskInput) (*MoveTaskOutput, error) {
		workspaceID, err := taskWorkspace(ctx, store, input.ID)
		if err != nil {
			return nil, err
		}

		if _, err := requireEditor(ctx, store, workspaceID); err != nil {
			return nil, err
		}

		task, err := store.Tasks().GetByID(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to get task", err)
		}

		destWorkspace, err := store.Boards().WorkspaceIDForColumn(ctx, input.Body.ToColumnID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("destination column not found")
			}
			return nil, huma.Error500InternalServerError("failed to resolve destination column")
		}
		if destWorkspace != workspaceID {
			return nil, huma.Error400BadRequest("destination column belongs to another workspace")
		}

		newPos, err := positionAt(ctx, store, input.Body.ToColumnID, task.ID, input.Body.Position)
		if err != nil {
			return nil, err
		}

		if err := store.Tasks().Move(ctx, task.ID, input.Body.ToColumnID, newPos); err != nil {
			return nil, huma.Error500InternalServerError("failed to move task", err)
		}

		fromColumnID := task.ColumnID
		task.ColumnID = input.Body.ToColumnID
		task.Position = newPos
		task.UpdatedAt = time.Now()

		bus.Publish(event.Event{
			Type:         event.TypeTaskMoved,
			WorkspaceID:  workspaceID.String(),
			TaskID:       task.ID.String(),
			FromColumnID: fromColumnID.String(),
			ToColumnID:   input.Body.ToColumnID.String(),
			Position:     strconv.Itoa(input.Body.Position),
		})

		out := &MoveTaskOutput{}
		out.Body.Task = task
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}",
		Summary:     "Delete a task",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *DeleteTaskInput) (*struct{}, error) {
		workspaceID, err := taskWorkspace(ctx, store, input.ID)
		if err != nil {
			return nil, err
		}

		if _, err := requireEditor(ctx, store, workspaceID); err != nil {
			return nil, err
		}

		if err := store.Tasks().Delete(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("task not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete task", err)
		}

		bus.Publish(event.Event{
			Type:        event.TypeTaskDeleted,
			WorkspaceID: workspaceID.String(),
			TaskID:      input.ID.String(),
		})

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-task-labels",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}/labels",
		Summary:     "Replace a task's label set",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *SetTaskLabelsInput) (*struct{}, error) {
		workspaceID, err := taskWorkspace(ctx, store, input.ID)
		if err != nil {
			return nil, err
		}

		if _, err := requireEditor(ctx, store, workspaceID); err != nil {
			return nil, err
		}

		if err := store.Labels().SetTaskLabels(ctx, input.ID, input.Body.LabelIDs); err != nil {
			return nil, huma.Error500InternalServerError("failed to set labels", err)
		}

		// Relational change: nudge clients to re-fetch the detail instead
		// of carrying labels in the event payload.
		bus.Publish(nudgeEvent(workspaceID, input.ID))

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-task-assignees",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}/assignees",
		Summary:     "Replace a task's assignee set",
		Tags:        []string{"Tasks"},
	}, func(ctx context.Context, input *SetTaskAssigneesInput) (*struct{}, error) {
		workspaceID, err := taskWorkspace(ctx, store, input.ID)
		if err != nil {
			return nil, err
		}

		if _, err := requireEditor(ctx, store, workspaceID); err != nil {
			return nil, err
		}

		if err := store.Tasks().SetAssignees(ctx, input.ID, input.Body.UserIDs); err != nil {
			return nil, huma.Error500InternalServerError("failed to set assignees", err)
		}

		bus.Publish(nudgeEvent(workspaceID, input.ID))

		return nil, nil
	})
}

// positionAt computes the midpoint position for inserting a task at the
// given index of a column. The resulting value is an opaque ordering key;
// clients never compute it themselves.
func positionAt(ctx context.Context, store DataStore, columnID, movingTaskID uuid.UUID, index int) (float64, error) {
	tasks, err := store.Tasks().ListByColumn(ctx, columnID)
	if err != nil {
		return 0, huma.Error500InternalServerError("failed to list destination column")
	}

	// Exclude the moving task so a same-column reorder indexes correctly.
	neighbours := tasks[:0:0]
	for _, t := range tasks {
		if t.ID != movingTaskID {
			neighbours = append(neighbours, t)
		}
	}

	if index < 0 {
		index = 0
	}
	if index > len(neighbours) {
		index = len(neighbours)
	}

	var prev, next *float64
	if index > 0 {
		prev = &neighbours[index-1].Position
	}
	if index < len(neighbours) {
		next = &neighbours[index].Position
	}

	switch {
	case prev != nil && next != nil:
		return (*prev + *next) / 2, nil
	case prev != nil:
		return *prev + 1, nil
	case next != nil:
		return *next - 1, nil
	default:
		return 1, nil
	}
}

func createdTaskRef(t *domain.Task) *event.TaskRef {
	ref := &event.TaskRef{
		ID:       t.ID.String(),
		ColumnID: t.ColumnID.String(),
		Title:    &t.Title,
		Progress: &t.Progress,
	}
	if t.DueDate != nil {
		due := t.DueDate.Format(time.RFC3339)
		ref.DueDate = &due
	}
	return ref
}

// nudgeEvent builds a refresh-only task.updated pseudo-event.
func nudgeEvent(workspaceID, taskID uuid.UUID) event.Event {
	return event.Event{
		Type:        event.TypeTaskUpdated,
		WorkspaceID: workspaceID.String(),
		Task:        &event.TaskRef{ID: event.NudgePrefix + taskID.String()},
	}
}
