package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Role is a member's permission level inside one workspace.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
	RoleViewer Role = "VIEWER"
)

// CanMutate reports whether the role may change board contents.
// Viewers are read-only.
func (r Role) CanMutate() bool {
	return r == RoleAdmin || r == RoleMember
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	default:
		return false
	}
}

type Workspace struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IconKey   string    `json:"iconKey,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type WorkspaceMember struct {
	ID          uuid.UUID `json:"id"`
	WorkspaceID uuid.UUID `json:"workspaceId"`
	UserID      uuid.UUID `json:"userId"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MemberDetail is a membership row joined with its user.
type MemberDetail struct {
	User *User `json:"user"`
	Role Role  `json:"role"`
}

type WorkspaceRepository interface {
	Create(ctx context.Context, w *Workspace) error
	GetByID(ctx context.Context, id uuid.UUID) (*Workspace, error)
	GetBySlug(ctx context.Context, slug string) (*Workspace, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Workspace, map[uuid.UUID]Role, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Membership
	AddMember(ctx context.Context, m *WorkspaceMember) error
	GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*WorkspaceMember, error)
	ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]*MemberDetail, error)
	UpdateMemberRole(ctx context.Context, workspaceID, userID uuid.UUID, role Role) error
	RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error
}
