// Package client implements the consumer side of the realtime board:
// an HTTP API client, the event stream subscriber with reconnect backoff,
// the board state store with optimistic mutation reconciliation, and the
// per-task detail subscription registry.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Column is the client-side view of one board column. Task order within
// the slice is the display order; the server's numeric position key never
// reaches the client.
type Column struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Accent string  `json:"accent,omitempty"`
	Tasks  []*Task `json:"tasks"`
}

// Task is the thin task representation carried on board columns.
type Task struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Progress int    `json:"progress"`
	DueDate  string `json:"dueDate,omitempty"`
}

// BoardSnapshot is the full board tree returned by the snapshot fetch,
// the resynchronization primitive used on every (re)connect.
type BoardSnapshot struct {
	Workspace struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Slug string `json:"slug"`
		Role string `json:"role"`
	} `json:"workspace"`
	Board struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"board"`
	Columns []*Column `json:"columns"`
}

// TaskDetail is a task's full relational state, fetched on demand when a
// thin update event arrives.
type TaskDetail struct {
	ID          string `json:"id"`
	ColumnID    string `json:"columnId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Progress    int    `json:"progress"`
	DueDate     string `json:"dueDate,omitempty"`
	Labels      []struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
	} `json:"labels"`
	Assignees []struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Name     string `json:"name"`
	} `json:"assignees"`
}

// API is a minimal JSON client for the board endpoints the realtime
// engine needs: snapshot fetch, detail fetch, role fetch and the two
// optimistic mutations.
type API struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewAPI(baseURL, token string) *API {
	return &API{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchBoard returns the complete column/task tree for a workspace slug,
// including the caller's membership role.
func (a *API) FetchBoard(ctx context.Context, slug string) (*BoardSnapshot, error) {
	var snapshot BoardSnapshot
	if err := a.do(ctx, http.MethodGet, "/api/v1/workspaces/"+slug+"/board", nil, &snapshot); err != nil {
		return nil, fmt.Errorf("client.FetchBoard: %w", err)
	}
	return &snapshot, nil
}

// FetchTask returns one task's full relational state.
func (a *API) FetchTask(ctx context.Context, taskID string) (*TaskDetail, error) {
	var detail TaskDetail
	if err := a.do(ctx, http.MethodGet, "/api/v1/tasks/"+taskID, nil, &detail); err != nil {
		return nil, fmt.Errorf("client.FetchTask: %w", err)
	}
	return &detail, nil
}

// FetchRole returns the caller's current role in a workspace.
func (a *API) FetchRole(ctx context.Context, slug string) (string, error) {
	var out struct {
		Role string `json:"role"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/v1/workspaces/"+slug+"/membership", nil, &out); err != nil {
		return "", fmt.Errorf("client.FetchRole: %w", err)
	}
	return out.Role, nil
}

// CreateTask creates a task in a column and returns the server-assigned
// representation.
func (a *API) CreateTask(ctx context.Context, columnID, title string) (*Task, error) {
	body := map[string]any{"columnId": columnID, "title": title}
	var out struct {
		Task struct {
			ID       string `json:"id"`
			Title    string `json:"title"`
			Progress int    `json:"progress"`
			DueDate  string `json:"dueDate,omitempty"`
		} `json:"task"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/v1/tasks", body, &out); err != nil {
		return nil, fmt.Errorf("client.CreateTask: %w", err)
	}
	return &Task{ID: out.Task.ID, Title: out.Task.Title, Progress: out.Task.Progress, DueDate: out.Task.DueDate}, nil
}

// MoveTask asks the server to move a task to an index inside a column.
// The server computes the actual ordering key.
func (a *API) MoveTask(ctx context.Context, taskID, toColumnID string, index int) error {
	body := map[string]any{"toColumnId": toColumnID, "position": index}
	if err := a.do(ctx, http.MethodPatch, "/api/v1/tasks/"+taskID+"/move", body, nil); err != nil {
		return fmt.Errorf("client.MoveTask: %w", err)
	}
	return nil
}

func (a *API) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
