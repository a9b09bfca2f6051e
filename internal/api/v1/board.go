package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/papanlab/papan/internal/domain"
)

// BoardView is the full board tree returned by the snapshot fetch. Clients
// rebuild their local state from it on connect and reconnect.
type BoardView struct {
	Workspace BoardWorkspace `json:"workspace"`
	Board     BoardMeta      `json:"board"`
	Columns   []BoardColumn  `json:"columns"`
}

type BoardWorkspace struct {
	ID   uuid.UUID   `json:"id"`
	Name string      `json:"name"`
	Slug string      `json:"slug"`
	Role domain.Role `json:"role"`
}

type BoardMeta struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type BoardColumn struct {
	ID     uuid.UUID   `json:"id"`
	Title  string      `json:"title"`
	Accent string      `json:"accent,omitempty"`
	Tasks  []BoardTask `json:"tasks"`
}

type BoardTask struct {
	ID       uuid.UUID `json:"id"`
	Title    string    `json:"title"`
	Progress int       `json:"progress"`
	DueDate  string    `json:"dueDate,omitempty"`
}

type GetBoardInput struct {
	Slug string `path:"slug" doc:"Workspace slug"`
}

type GetBoardOutput struct {
	Body BoardView
}

func RegisterBoardRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/workspaces/{slug}/board",
		Summary:     "Fetch the workspace board snapshot",
		Tags:        []string{"Board"},
	}, func(ctx context.Context, input *GetBoardInput) (*GetBoardOutput, error) {
		ws, err := workspaceBySlug(ctx, store, input.Slug)
		if err != nil {
			return nil, err
		}
		member, err := requireMember(ctx, store, ws.ID)
		if err != nil {
			return nil, err
		}

		board, err := store.Boards().DefaultBoard(ctx, ws.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to resolve board", err)
		}

		columns, err := store.Boards().ListColumns(ctx, board.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list columns", err)
		}

		view := BoardView{
			Workspace: BoardWorkspace{ID: ws.ID, Name: ws.Name, Slug: ws.Slug, Role: member.Role},
			Board:     BoardMeta{ID: board.ID, Name: board.Name},
			Columns:   make([]BoardColumn, 0, len(columns)),
		}

		for _, col := range columns {
			tasks, err := store.Tasks().ListByColumn(ctx, col.ID)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to list tasks", err)
			}
			bc := BoardColumn{
				ID:     col.ID,
				Title:  col.Title,
				Accent: col.Accent,
				Tasks:  make([]BoardTask, 0, len(tasks)),
			}
			for _, t := range tasks {
				bt := BoardTask{ID: t.ID, Title: t.Title, Progress: t.Progress}
				if t.DueDate != nil {
					bt.DueDate = t.DueDate.Format("2006-01-02")
				}
				bc.Tasks = append(bc.Tasks, bt)
			}
			view.Columns = append(view.Columns, bc)
		}

		return &GetBoardOutput{Body: view}, nil
	})
}
