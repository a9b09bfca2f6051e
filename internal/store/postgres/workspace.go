package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/papanlab/papan/internal/domain"
)

type WorkspaceRepo struct {
	pool *pgxpool.Pool
}

func NewWorkspaceRepo(pool *pgxpool.Pool) *WorkspaceRepo {
	return &WorkspaceRepo{pool: pool}
}

func (r *WorkspaceRepo) Create(ctx context.Context, w *domain.Workspace) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO workspaces (id, name, slug, icon_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.Name, w.Slug, w.IconKey, w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("workspaceRepo.Create: %w", err)
	}

	return nil
}

func (r *WorkspaceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	return r.get(ctx, `WHERE id = $1`, id, "workspaceRepo.GetByID")
}

func (r *WorkspaceRepo) GetBySlug(ctx context.Context, slug string) (*domain.Workspace, error) {
	return r.get(ctx, `WHERE slug = $1`, slug, "workspaceRepo.GetBySlug")
}

func (r *WorkspaceRepo) get(ctx context.Context, where string, arg any, op string) (*domain.Workspace, error) {
	var w domain.Workspace

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, slug, icon_key, created_at, updated_at FROM workspaces `+where,
		arg,
	).Scan(&w.ID, &w.Name, &w.Slug, &w.IconKey, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &w, nil
}

func (r *WorkspaceRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Workspace, map[uuid.UUID]domain.Role, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT w.id, w.name, w.slug, w.icon_key, w.created_at, w.updated_at, m.role
		 FROM workspaces w
		 JOIN workspace_members m ON m.workspace_id = w.id
		 WHERE m.user_id = $1
		 ORDER BY w.created_at
		 LIMIT 500`,
		userID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("workspaceRepo.ListForUser: %w", err)
	}
	defer rows.Close()

	var workspaces []*domain.Workspace
	roles := make(map[uuid.UUID]domain.Role)
	for rows.Next() {
		var w domain.Workspace
		var role domain.Role
		if scanErr := rows.Scan(&w.ID, &w.Name, &w.Slug, &w.IconKey, &w.CreatedAt, &w.UpdatedAt, &role); scanErr != nil {
			return nil, nil, fmt.Errorf("workspaceRepo.ListForUser: %w", scanErr)
		}
		workspaces = append(workspaces, &w)
		roles[w.ID] = role
	}
	if rows.Err() != nil {
		return nil, nil, fmt.Errorf("workspaceRepo.ListForUser: %w", rows.Err())
	}

	return workspaces, roles, nil
}

func (r *WorkspaceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("workspaceRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workspaceRepo.Delete: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *WorkspaceRepo) AddMember(ctx context.Context, m *domain.WorkspaceMember) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO workspace_members (id, workspace_id, user_id, role, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (workspace_id, user_id) DO UPDATE SET role = EXCLUDED.role`,
		m.ID, m.WorkspaceID, m.UserID, m.Role, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("workspaceRepo.AddMember: %w", err)
	}

	return nil
}

func (r *WorkspaceRepo) GetMember(ctx context.Context, workspaceID, userID uuid.UUID) (*domain.WorkspaceMember, error) {
	var m domain.WorkspaceMember

	err := r.pool.QueryRow(ctx,
		`SELECT id, workspace_id, user_id, role, created_at
		 FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID,
	).Scan(&m.ID, &m.WorkspaceID, &m.UserID, &m.Role, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("workspaceRepo.GetMember: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("workspaceRepo.GetMember: %w", err)
	}

	return &m, nil
}

func (r *WorkspaceRepo) ListMembers(ctx context.Context, workspaceID uuid.UUID) ([]*domain.MemberDetail, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.email, u.username, u.name, u.password_hash, u.created_at, u.updated_at, u.last_login_at, m.role
		 FROM workspace_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.workspace_id = $1
		 ORDER BY m.created_at
		 LIMIT 1000`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("workspaceRepo.ListMembers: %w", err)
	}
	defer rows.Close()

	var members []*domain.MemberDetail
	for rows.Next() {
		var u domain.User
		var role domain.Role
		scanErr := rows.Scan(
			&u.ID, &u.Email, &u.Username, &u.Name, &u.PasswordHash,
			&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt, &role,
		)
		if scanErr != nil {
			return nil, fmt.Errorf("workspaceRepo.ListMembers: %w", scanErr)
		}
		members = append(members, &domain.MemberDetail{User: &u, Role: role})
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("workspaceRepo.ListMembers: %w", rows.Err())
	}

	return members, nil
}

func (r *WorkspaceRepo) UpdateMemberRole(ctx context.Context, workspaceID, userID uuid.UUID, role domain.Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE workspace_members SET role = $1 WHERE workspace_id = $2 AND user_id = $3`,
		role, workspaceID, userID,
	)
	if err != nil {
		return fmt.Errorf("workspaceRepo.UpdateMemberRole: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workspaceRepo.UpdateMemberRole: %w", domain.ErrNotFound)
	}

	return nil
}

func (r *WorkspaceRepo) RemoveMember(ctx context.Context, workspaceID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`,
		workspaceID, userID,
	)
	if err != nil {
		return fmt.Errorf("workspaceRepo.RemoveMember: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("workspaceRepo.RemoveMember: %w", domain.ErrNotFound)
	}

	return nil
}
