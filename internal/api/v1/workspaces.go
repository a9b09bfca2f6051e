package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/papanlab/papan/internal/domain"
	"github.com/papanlab/papan/internal/event"
)

type WorkspaceSummary struct {
	ID      uuid.UUID   `json:"id"`
	Name    string      `json:"name"`
	Slug    string      `json:"slug"`
	IconKey string      `json:"iconKey,omitempty"`
	Role    domain.Role `json:"role"`
}

type ListWorkspacesOutput struct {
	Body struct {
		Workspaces []WorkspaceSummary `json:"workspaces"`
	}
}

type CreateWorkspaceInput struct {
	Body struct {
		Name    string `json:"name" minLength:"1" maxLength:"100" doc:"Workspace name"`
		Slug    string `json:"slug" minLength:"2" maxLength:"50" pattern:"^[a-z0-9-]+$" doc:"URL slug"`
		IconKey string `json:"iconKey,omitempty" doc:"Icon identifier"`
	}
}

type CreateWorkspaceOutput struct {
	Body struct {
		Workspace *domain.Workspace `json:"workspace"`
	}
}

type ListMembersInput struct {
	Slug string `path:"slug" doc:"Workspace slug"`
}

type GetMembershipOutput struct {
	Body struct {
		Role domain.Role `json:"role"`
	}
}

type ListMembersOutput struct {
	Body struct {
		Members []*domain.MemberDetail `json:"members"`
	}
}

type AddMemberInput struct {
	Slug string `path:"slug" doc:"Workspace slug"`
	Body struct {
		Email string      `json:"email" format:"email" doc:"User email to invite"`
		Role  domain.Role `json:"role" enum:"ADMIN,MEMBER,VIEWER" doc:"Membership role"`
	}
}

type UpdateMemberRoleInput struct {
	Slug   string    `path:"slug" doc:"Workspace slug"`
	UserID uuid.UUID `path:"userId" doc:"Member user ID"`
	Body   struct {
		Role domain.Role `json:"role" enum:"ADMIN,MEMBER,VIEWER" doc:"New role"`
	}
}

type RemoveMemberInput struct {
	Slug   string    `path:"slug" doc:"Workspace slug"`
	UserID uuid.UUID `path:"userId" doc:"Member user ID"`
}

func RegisterWorkspaceRoutes(api huma.API, store DataStore, bus Publisher) {
	huma.Register(api, huma.Operation{
		OperationID: "list-workspaces",
		Method:      http.MethodGet,
		Path:        "/workspaces",
		Summary:     "List the caller's workspaces",
		Tags:        []string{"Workspaces"},
	}, func(ctx context.Context, _ *struct{}) (*ListWorkspacesOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		workspaces, roles, err := store.Workspaces().ListForUser(ctx, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list workspaces", err)
		}

		out := &ListWorkspacesOutput{}
		out.Body.Workspaces = make([]WorkspaceSummary, 0, len(workspaces))
		for _, ws := range workspaces {
			out.Body.Workspaces = append(out.Body.Workspaces, WorkspaceSummary{
				ID:      ws.ID,
				Name:    ws.Name,
				Slug:    ws.Slug,
				IconKey: ws.IconKey,
				Role:    roles[ws.ID],
			})
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-workspace",
		Method:        http.MethodPost,
		Path:          "/workspaces",
		Summary:       "Create a workspace",
		Description:   "Creates the workspace with the caller as admin and seeds a default project, board and columns.",
		Tags:          []string{"Workspaces"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateWorkspaceInput) (*CreateWorkspaceOutput, error) {
		userID, err := currentUser(ctx)
		if err != nil {
			return nil, err
		}

		now := time.Now()
		ws := &domain.Workspace{
			ID:        uuid.New(),
			Name:      strings.TrimSpace(input.Body.Name),
			Slug:      input.Body.Slug,
			IconKey:   input.Body.IconKey,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := store.Workspaces().Create(ctx, ws); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("slug already taken")
			}
			return nil, huma.Error500InternalServerError("failed to create workspace", err)
		}

		if err := store.Workspaces().AddMember(ctx, &domain.WorkspaceMember{
			ID:          uuid.New(),
			WorkspaceID: ws.ID,
			UserID:      userID,
			Role:        domain.RoleAdmin,
			CreatedAt:   now,
		}); err != nil {
			return nil, huma.Error500InternalServerError("failed to add owner", err)
		}

		if err := seedBoard(ctx, store, ws); err != nil {
			return nil, huma.Error500InternalServerError("failed to seed board", err)
		}

		bus.Publish(event.Event{
			Type:   event.TypeWorkspacesChanged,
			UserID: userID.String(),
		})

		out := &CreateWorkspaceOutput{}
		out.Body.Workspace = ws
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-membership",
		Method:      http.MethodGet,
		Path:        "/workspaces/{slug}/membership",
		Summary:     "Get the caller's role in a workspace",
		Tags:        []string{"Workspaces"},
	}, func(ctx context.Context, input *ListMembersInput) (*GetMembershipOutput, error) {
		ws, err := workspaceBySlug(ctx, store, input.Slug)
		if err != nil {
			return nil, err
		}
		member, err := requireMember(ctx, store, ws.ID)
		if err != nil {
			return nil, err
		}

		out := &GetMembershipOutput{}
		out.Body.Role = member.Role
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-workspace-members",
		Method:      http.MethodGet,
		Path:        "/workspaces/{slug}/members",
		Summary:     "List workspace members",
		Tags:        []string{"Workspaces"},
	}, func(ctx context.Context, input *ListMembersInput) (*ListMembersOutput, error) {
		ws, err := workspaceBySlug(ctx, store, input.Slug)
		if err != nil {
			return nil, err
		}
		if _, err := requireMember(ctx, store, ws.ID); err != nil {
			return nil, err
		}

		members, err := store.Workspaces().ListMembers(ctx, ws.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list members", err)
		}

		out := &ListMembersOutput{}
		out.Body.Members = members
		if out.Body.Members == nil {
			out.Body.Members = []*domain.MemberDetail{}
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-workspace-member",
		Method:        http.MethodPost,
		Path:          "/workspaces/{slug}/members",
		Summary:       "Invite a user to the workspace",
		Tags:          []string{"Workspaces"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *AddMemberInput) (*struct{}, error) {
		ws, err := workspaceBySlug(ctx, store, input.Slug)
		if err != nil {
			return nil, err
		}
		if _, err := requireAdmin(ctx, store, ws.ID); err != nil {
			return nil, err
		}

		invitee, err := store.Users().GetByEmail(ctx, input.Body.Email)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("no user with that email")
			}
			return nil, huma.Error500InternalServerError("failed to look up user", err)
		}

		if err := store.Workspaces().AddMember(ctx, &domain.WorkspaceMember{
			ID:          uuid.New(),
			WorkspaceID: ws.ID,
			UserID:      invitee.ID,
			Role:        input.Body.Role,
			CreatedAt:   time.Now(),
		}); err != nil {
			return nil, huma.Error500InternalServerError("failed to add member", err)
		}

		bus.Publish(event.Event{
			Type:        event.TypeMembersChanged,
			WorkspaceID: ws.ID.String(),
		})
		// The invitee's workspace list changed too.
		bus.Publish(event.Event{
			Type:   event.TypeWorkspacesChanged,
			UserID: invitee.ID.String(),
		})

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-member-role",
		Method:      http.MethodPatch,
		Path:        "/workspaces/{slug}/members/{userId}",
		Summary:     "Change a member's role",
		Tags:        []string{"Workspaces"},
	}, func(ctx context.Context, input *UpdateMemberRoleInput) (*struct{}, error) {
		ws, err := workspaceBySlug(ctx, store, input.Slug)
		if err != nil {
			return nil, err
		}
		if _, err := requireAdmin(ctx, store, ws.ID); err != nil {
			return nil, err
		}

		if err := store.Workspaces().UpdateMemberRole(ctx, ws.ID, input.UserID, input.Body.Role); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("member not found")
			}
			return nil, huma.Error500InternalServerError("failed to update role", err)
		}

		bus.Publish(event.Event{
			Type:        event.TypeMembersChanged,
			WorkspaceID: ws.ID.String(),
		})

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "remove-workspace-member",
		Method:      http.MethodDelete,
		Path:        "/workspaces/{slug}/members/{userId}",
		Summary:     "Remove a member from the workspace",
		Tags:        []string{"Workspaces"},
	}, func(ctx context.Context, input *RemoveMemberInput) (*struct{}, error) {
		ws, err := workspaceBySlug(ctx, store, input.Slug)
		if err != nil {
			return nil, err
		}
		caller, err := requireMember(ctx, store, ws.ID)
		if err != nil {
			return nil, err
		}
		// Members may leave on their own; removing someone else needs admin.
		if caller.UserID != input.UserID && caller.Role != domain.RoleAdmin {
			return nil, huma.Error403Forbidden("admin role required")
		}

		if err := store.Workspaces().RemoveMember(ctx, ws.ID, input.UserID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("member not found")
			}
			return nil, huma.Error500InternalServerError("failed to remove member", err)
		}

		bus.Publish(event.Event{
			Type:        event.TypeMembersChanged,
			WorkspaceID: ws.ID.String(),
		})
		bus.Publish(event.Event{
			Type:   event.TypeWorkspacesChanged,
			UserID: input.UserID.String(),
		})

		return nil, nil
	})
}

func workspaceBySlug(ctx context.Context, store DataStore, slug string) (*domain.Workspace, error) {
	ws, err := store.Workspaces().GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error404NotFound("workspace not found")
		}
		return nil, huma.Error500InternalServerError("failed to get workspace")
	}
	return ws, nil
}

func requireAdmin(ctx context.Context, store DataStore, workspaceID uuid.UUID) (*domain.WorkspaceMember, error) {
	member, err := requireMember(ctx, store, workspaceID)
	if err != nil {
		return nil, err
	}
	if member.Role != domain.RoleAdmin {
		return nil, huma.Error403Forbidden("admin role required")
	}
	return member, nil
}

// seedBoard creates the default project, board and the three standard
// columns for a fresh workspace.
func seedBoard(ctx context.Context, store DataStore, ws *domain.Workspace) error {
	now := time.Now()
	project := &domain.Project{
		ID:          uuid.New(),
		WorkspaceID: ws.ID,
		Name:        ws.Name,
		CreatedAt:   now,
	}
	if err := store.Boards().CreateProject(ctx, project); err != nil {
		return err
	}

	board := &domain.Board{
		ID:        uuid.New(),
		ProjectID: project.ID,
		Name:      "Board",
		IsDefault: true,
		CreatedAt: now,
	}
	if err := store.Boards().CreateBoard(ctx, board); err != nil {
		return err
	}

	seeds := []struct {
		title  string
		accent string
	}{
		{"To do", "slate"},
		{"In progress", "blue"},
		{"Done", "green"},
	}
	for i, s := range seeds {
		if err := store.Boards().CreateColumn(ctx, &domain.Column{
			ID:       uuid.New(),
			BoardID:  board.ID,
			Title:    s.title,
			Accent:   s.accent,
			Position: float64(i + 1),
		}); err != nil {
			return err
		}
	}
	return nil
}
