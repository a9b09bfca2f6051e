package v1_test

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/papanlab/papan/internal/domain"
	"github.com/papanlab/papan/internal/event"
	"github.com/papanlab/papan/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers — inject the authenticated user into context for DoCtx
// ---------------------------------------------------------------------------

func userCtx(userID uuid.UUID) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyUserID, userID)
}

// ---------------------------------------------------------------------------
// Mock Publisher — records published events in order
// ---------------------------------------------------------------------------

type mockPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (m *mockPublisher) Publish(evt event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockPublisher) published() []event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]event.Event(nil), m.events...)
}

// ---------------------------------------------------------------------------
// Mock DataStore
// ---------------------------------------------------------------------------

type mockDataStore struct {
	users         domain.UserRepository
	workspaces    domain.WorkspaceRepository
	boards        domain.BoardRepository
	tasks         domain.TaskRepository
	labels        domain.LabelRepository
	comments      domain.CommentRepository
	notifications domain.NotificationRepository
}

func (m *mockDataStore) Users() domain.UserRepository                 { return m.users }
func (m *mockDataStore) Workspaces() domain.WorkspaceRepository       { return m.workspaces }
func (m *mockDataStore) Boards() domain.BoardRepository               { return m.boards }
func (m *mockDataStore) Tasks() domain.TaskRepository                 { return m.tasks }
func (m *mockDataStore) Labels() domain.LabelRepository               { return m.labels }
func (m *mockDataStore) Comments() domain.CommentRepository           { return m.comments }
func (m *mockDataStore) Notifications() domain.NotificationRepository { return m.notifications }

// ---------------------------------------------------------------------------
// Mock UserRepository
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	createFunc     func(ctx context.Context, u *domain.User) error
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	getByEmailFunc func(ctx context.Context, email string) (*domain.User, error)
	updateFunc     func(ctx context.Context, u *domain.User) error
	listFunc       func(ctx context.Context) ([]*domain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User) error {
	return m.createFunc(ctx, u)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.getByEmailFunc(ctx, email)
}

func (m *mockUserRepo) Update(ctx context.Context, u *domain.User) error {
	return m.updateFunc(ctx, u)
}

func (m *mockUserRepo) List(ctx context.Context) ([]*domain.User, error) {
	return m.listFunc(ctx)
}

// ---------------------------------------------------------------------------
// Mock WorkspaceRepository
// ---------------------------------------------------------------------------

type mockWorkspaceRepo struct {
	createFunc           func(ctx context.Context, w *domain.Workspace) error
	getByIDFunc          func(ctx context.Context, id uuid.UUID) (*domain.Workspace, error)
	getBySlugFunc        func(ctx context.Context, slug string) (*domain.Workspace, error)
	listForUserFunc      func(ctx context.Context, userID uuid.UUID) ([]*domain.Workspace, map[uuid.UUID]domain.Role, error)
	deleteFunc           func(ctx context.Context, id uuid.UUID) error
	addMemberFunc        func(ctx context.Context, m *domain.WorkspaceMember) error
	getMemberFunc        func(ctx context.Context, workspaceID, userID uuid.UUID) (*domain.WorkspaceMember, error)
	listMembersFunc      func(ctx context.Context, workspaceID uuid.UUID) ([]*domain.MemberDetail, error)
	updateMemberRoleFunc func(ctx context.Context, workspaceID, userID uuid.UUID, role domain.Role) error
	removeMemberFunc     func(ctx context.Context, workspaceID, userID uuid.UUID) error
}

func (m *mockWorkspaceRepo) Create(ctx context.Context, w *domain.Workspace) error {
	return m.createFunc(ctx, w)
}

func (m *mockWorkspaceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockWorkspaceRepo) GetBySlug(ctx context.Context, slug string) (*domain.Workspace, error) {
	return m.getBySlugFunc(ctx, slug)
}

func (m *mockWorkspaceRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Workspace, map[uuid.UUID]domain.Role, error) {
	return m.listForUserFunc(ctx, userID)
}

func (m *mockWorkspaceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockWorkspaceRepo) AddMember(ctx context.Context, member *domain.WorkspaceMember) error {
	return m.addMemberFunc(ctx, member)
}

func (m *mockWorkspaceRepo) GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*domain.WorkspaceMember, error) {
	return m.getMemberFunc(ctx, workspaceID, userID)
}

func (m *mockWorkspaceRepo) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]*domain.MemberDetail, error) {
	return m.listMembersFunc(ctx, workspaceID)
}

func (m *mockWorkspaceRepo) UpdateMemberRole(ctx context.Context, workspaceID, userID uuid.UUID, role domain.Role) error {
	return m.updateMemberRoleFunc(ctx, workspaceID, userID, role)
}

func (m *mockWorkspaceRepo) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	return m.removeMemberFunc(ctx, workspaceID, userID)
}

// ---------------------------------------------------------------------------
// Mock BoardRepository
// ---------------------------------------------------------------------------

type mockBoardRepo struct {
	createProjectFunc        func(ctx context.Context, p *domain.Project) error
	createBoardFunc          func(ctx context.Context, b *domain.Board) error
	createColumnFunc         func(ctx context.Context, c *domain.Column) error
	defaultBoardFunc         func(ctx context.Context, workspaceID uuid.UUID) (*domain.Board, error)
	getColumnFunc            func(ctx context.Context, id uuid.UUID) (*domain.Column, error)
	listColumnsFunc          func(ctx context.Context, boardID uuid.UUID) ([]*domain.Column, error)
	workspaceIDForColumnFunc func(ctx context.Context, columnID uuid.UUID) (uuid.UUID, error)
}

func (m *mockBoardRepo) CreateProject(ctx context.Context, p *domain.Project) error {
	return m.createProjectFunc(ctx, p)
}

func (m *mockBoardRepo) CreateBoard(ctx context.Context, b *domain.Board) error {
	return m.createBoardFunc(ctx, b)
}

func (m *mockBoardRepo) CreateColumn(ctx context.Context, c *domain.Column) error {
	return m.createColumnFunc(ctx, c)
}

func (m *mockBoardRepo) DefaultBoard(ctx context.Context, workspaceID uuid.UUID) (*domain.Board, error) {
	return m.defaultBoardFunc(ctx, workspaceID)
}

func (m *mockBoardRepo) GetColumn(ctx context.Context, id uuid.UUID) (*domain.Column, error) {
	return m.getColumnFunc(ctx, id)
}

func (m *mockBoardRepo) ListColumns(ctx context.Context, boardID uuid.UUID) ([]*domain.Column, error) {
	return m.listColumnsFunc(ctx, boardID)
}

func (m *mockBoardRepo) WorkspaceIDForColumn(ctx context.Context, columnID uuid.UUID) (uuid.UUID, error) {
	return m.workspaceIDForColumnFunc(ctx, columnID)
}

// ---------------------------------------------------------------------------
// Mock TaskRepository
// ---------------------------------------------------------------------------

type mockTaskRepo struct {
	createFunc             func(ctx context.Context, t *domain.Task) error
	getByIDFunc            func(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	getDetailFunc          func(ctx context.Context, id uuid.UUID) (*domain.TaskDetail, error)
	listByColumnFunc       func(ctx context.Context, columnID uuid.UUID) ([]*domain.Task, error)
	updateFunc             func(ctx context.Context, t *domain.Task) error
	moveFunc               func(ctx context.Context, id, toColumnID uuid.UUID, position float64) error
	deleteFunc             func(ctx context.Context, id uuid.UUID) error
	maxPositionFunc        func(ctx context.Context, columnID uuid.UUID) (float64, error)
	workspaceIDForTaskFunc func(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error)
	setAssigneesFunc       func(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error
	listAssigneesFunc      func(ctx context.Context, taskID uuid.UUID) ([]*domain.User, error)
}

func (m *mockTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	return m.createFunc(ctx, t)
}

func (m *mockTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockTaskRepo) GetDetail(ctx context.Context, id uuid.UUID) (*domain.TaskDetail, error) {
	return m.getDetailFunc(ctx, id)
}

func (m *mockTaskRepo) ListByColumn(ctx context.Context, columnID uuid.UUID) ([]*domain.Task, error) {
	return m.listByColumnFunc(ctx, columnID)
}

func (m *mockTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	return m.updateFunc(ctx, t)
}

func (m *mockTaskRepo) Move(ctx context.Context, id, toColumnID uuid.UUID, position float64) error {
	return m.moveFunc(ctx, id, toColumnID, position)
}

func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockTaskRepo) MaxPosition(ctx context.Context, columnID uuid.UUID) (float64, error) {
	return m.maxPositionFunc(ctx, columnID)
}

func (m *mockTaskRepo) WorkspaceIDForTask(ctx context.Context, taskID uuid.UUID) (uuid.UUID, error) {
	return m.workspaceIDForTaskFunc(ctx, taskID)
}

func (m *mockTaskRepo) SetAssignees(ctx context.Context, taskID uuid.UUID, userIDs []uuid.UUID) error {
	return m.setAssigneesFunc(ctx, taskID, userIDs)
}

func (m *mockTaskRepo) ListAssignees(ctx context.Context, taskID uuid.UUID) ([]*domain.User, error) {
	return m.listAssigneesFunc(ctx, taskID)
}

// ---------------------------------------------------------------------------
// Mock LabelRepository
// ---------------------------------------------------------------------------

type mockLabelRepo struct {
	createFunc          func(ctx context.Context, l *domain.Label) error
	listByWorkspaceFunc func(ctx context.Context, workspaceID uuid.UUID) ([]*domain.Label, error)
	deleteFunc          func(ctx context.Context, id uuid.UUID) error
	setTaskLabelsFunc   func(ctx context.Context, taskID uuid.UUID, labelIDs []uuid.UUID) error
	listByTaskFunc      func(ctx context.Context, taskID uuid.UUID) ([]*domain.Label, error)
}

func (m *mockLabelRepo) Create(ctx context.Context, l *domain.Label) error {
	return m.createFunc(ctx, l)
}

func (m *mockLabelRepo) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*domain.Label, error) {
	return m.listByWorkspaceFunc(ctx, workspaceID)
}

func (m *mockLabelRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockLabelRepo) SetTaskLabels(ctx context.Context, taskID uuid.UUID, labelIDs []uuid.UUID) error {
	return m.setTaskLabelsFunc(ctx, taskID, labelIDs)
}

func (m *mockLabelRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Label, error) {
	return m.listByTaskFunc(ctx, taskID)
}

// ---------------------------------------------------------------------------
// Mock CommentRepository
// ---------------------------------------------------------------------------

type mockCommentRepo struct {
	createFunc     func(ctx context.Context, c *domain.Comment) error
	listByTaskFunc func(ctx context.Context, taskID uuid.UUID) ([]*domain.Comment, error)
	deleteFunc     func(ctx context.Context, id uuid.UUID) error
}

func (m *mockCommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	return m.createFunc(ctx, c)
}

func (m *mockCommentRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Comment, error) {
	return m.listByTaskFunc(ctx, taskID)
}

func (m *mockCommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock NotificationRepository
// ---------------------------------------------------------------------------

type mockNotificationRepo struct {
	createFunc      func(ctx context.Context, n *domain.Notification) error
	listByUserFunc  func(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error)
	countUnreadFunc func(ctx context.Context, userID uuid.UUID) (int, error)
	markReadFunc    func(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error
	markAllReadFunc func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	return m.createFunc(ctx, n)
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error) {
	return m.listByUserFunc(ctx, userID, limit)
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return m.countUnreadFunc(ctx, userID)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) error {
	return m.markReadFunc(ctx, userID, ids)
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return m.markAllReadFunc(ctx, userID)
}

// ---------------------------------------------------------------------------
// Common fixtures
// ---------------------------------------------------------------------------

func memberRepo(workspaceID, userID uuid.UUID, role domain.Role) *mockWorkspaceRepo {
	return &mockWorkspaceRepo{
		getMemberFunc: func(_ context.Context, wid, uid uuid.UUID) (*domain.WorkspaceMember, error) {
			if wid == workspaceID && uid == userID {
				return &domain.WorkspaceMember{WorkspaceID: wid, UserID: uid, Role: role}, nil
			}
			return nil, domain.ErrNotFound
		},
	}
}
