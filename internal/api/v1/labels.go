package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/papanlab/papan/internal/domain"
)

type CreateLabelInput struct {
	Slug string `path:"slug" doc:"Workspace slug"`
	Body struct {
		Name  string `json:"name" minLength:"1" maxLength:"50" doc:"Label name"`
		Color string `json:"color" pattern:"^#[0-9a-fA-F]{6}$" doc:"Hex color"`
	}
}

type CreateLabelOutput struct {
	Body struct {
		Label *domain.Label `json:"label"`
	}
}

type ListLabelsInput struct {
	Slug string `path:"slug" doc:"Workspace slug"`
}

type ListLabelsOutput struct {
	Body struct {
		Labels []*domain.Label `json:"labels"`
	}
}

type DeleteLabelInput struct {
	Slug string    `path:"slug" doc:"Workspace slug"`
	ID   uuid.UUID `path:"id" doc:"Label ID"`
}

func RegisterLabelRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-label",
		Method:        http.MethodPost,
		Path:          "/workspaces/{slug}/labels",
		Summary:       "Create a workspace label",
		Tags:          []string{"Labels"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateLabelInput) (*CreateLabelOutput, error) {
		ws, err := workspaceBySlug(ctx, store, input.Slug)
		if err != nil {
			return nil, err
		}
		if _, err := requireEditor(ctx, store, ws.ID); err != nil {
			return nil, err
		}

		l := &domain.Label{
			ID:          uuid.New(),
			WorkspaceID: ws.ID,
			Name:        input.Body.Name,
			Color:       input.Body.Color,
		}
		if err := store.Labels().Create(ctx, l); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("label already exists")
			}
			return nil, huma.Error500InternalServerError("failed to create label", err)
		}

		out := &CreateLabelOutput{}
		out.Body.Label = l
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-labels",
		Method:      http.MethodGet,
		Path:        "/workspaces/{slug}/labels",
		Summary:     "List workspace labels",
		Tags:        []string{"Labels"},
	}, func(ctx context.Context, input *ListLabelsInput) (*ListLabelsOutput, error) {
		ws, err := workspaceBySlug(ctx, store, input.Slug)
		if err != nil {
			return nil, err
		}
		if _, err := requireMember(ctx, store, ws.ID); err != nil {
			return nil, err
		}

		labels, err := store.Labels().ListByWorkspace(ctx, ws.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list labels", err)
		}

		out := &ListLabelsOutput{}
		out.Body.Labels = labels
		if out.Body.Labels == nil {
			out.Body.Labels = []*domain.Label{}
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-label",
		Method:      http.MethodDelete,
		Path:        "/workspaces/{slug}/labels/{id}",
		Summary:     "Delete a workspace label",
		Tags:        []string{"Labels"},
	}, func(ctx context.Context, input *DeleteLabelInput) (*struct{}, error) {
		ws, err := workspaceBySlug(ctx, store, input.Slug)
		if err != nil {
			return nil, err
		}
		if _, err := requireEditor(ctx, store, ws.ID); err != nil {
			return nil, err
		}

		if err := store.Labels().Delete(ctx, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("label not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete label", err)
		}

		return nil, nil
	})
}
