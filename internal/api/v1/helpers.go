package v1

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/papanlab/papan/internal/domain"
	"github.com/papanlab/papan/internal/server/middleware"
)

// currentUser extracts the authenticated user id from the request context.
func currentUser(ctx context.Context) (uuid.UUID, error) {
	userID, ok := middleware.UserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, huma.Error401Unauthorized("missing user context")
	}
	return userID, nil
}

// requireMember resolves the caller's membership in a workspace, mapping
// missing membership to 403.
func requireMember(ctx context.Context, store DataStore, workspaceID uuid.UUID) (*domain.WorkspaceMember, error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}

	member, err := store.Workspaces().GetMember(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, huma.Error403Forbidden("not a workspace member")
		}
		return nil, huma.Error500InternalServerError("failed to check membership")
	}

	return member, nil
}

// requireEditor is requireMember plus a write-permission check; viewers
// are read-only.
func requireEditor(ctx context.Context, store DataStore, workspaceID uuid.UUID) (*domain.WorkspaceMember, error) {
	member, err := requireMember(ctx, store, workspaceID)
	if err != nil {
		return nil, err
	}
	if !member.Role.CanMutate() {
		return nil, huma.Error403Forbidden("viewers cannot modify the board")
	}
	return member, nil
}

// taskWorkspace resolves the workspace owning a task, mapping a missing
// task to 404.
func taskWorkspace(ctx context.Context, store DataStore, taskID uuid.UUID) (uuid.UUID, error) {
	workspaceID, err := store.Tasks().WorkspaceIDForTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return uuid.Nil, huma.Error404NotFound("task not found")
		}
		return uuid.Nil, huma.Error500InternalServerError("failed to resolve task workspace")
	}
	return workspaceID, nil
}
