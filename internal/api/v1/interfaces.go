package v1

import (
	"context"

	"github.com/google/uuid"

	"github.com/papanlab/papan/internal/domain"
	"github.com/papanlab/papan/internal/event"
)

// DataStore abstracts the repository accessor pattern for handler testing.
// *postgres.Store satisfies this interface.
type DataStore interface {
	Users() domain.UserRepository
	Workspaces() domain.WorkspaceRepository
	Boards() domain.BoardRepository
	Tasks() domain.TaskRepository
	Labels() domain.LabelRepository
	Comments() domain.CommentRepository
	Notifications() domain.NotificationRepository
}

// AuthService abstracts authentication operations for handler testing.
// *auth.Service satisfies this interface.
type AuthService interface {
	Register(ctx context.Context, email, username, password, name string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, err error)
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// Publisher is the event bus surface mutation handlers depend on.
// *event.Bus satisfies this interface.
type Publisher interface {
	Publish(evt event.Event)
}
