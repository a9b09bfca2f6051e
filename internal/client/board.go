package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/papanlab/papan/internal/event"
)

// State is the lifecycle phase of one board view.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateLive
	StateReconnecting
	StateTornDown
)

// BoardStore is the client-side authoritative-view cache of one workspace
// board. It applies local optimistic mutations immediately and reconciles
// incoming stream events against that local state, so the server echo of a
// mutation the user already performed is always a no-op.
//
// Each open board view owns exactly one store and one stream connection;
// there is no cross-view sharing.
type BoardStore struct {
	api      *API
	sub      *Subscriber
	registry *TaskRegistry

	// ctx bounds the store's background re-fetches; Close cancels it.
	ctx       context.Context
	ctxCancel context.CancelFunc

	mu          sync.Mutex
	state       State
	slug        string
	workspaceID string
	role        string
	columns     []*Column
	loadCancel  context.CancelFunc
}

func NewBoardStore(api *API, opts ...SubscriberOption) *BoardStore {
	ctx, cancel := context.WithCancel(context.Background())
	s := &BoardStore{
		api:       api,
		registry:  NewTaskRegistry(),
		ctx:       ctx,
		ctxCancel: cancel,
		state:     StateIdle,
	}
	opts = append(opts, WithDownHandler(s.markReconnecting))
	s.sub = NewSubscriber(api.baseURL, api.token, s.handleEvent, opts...)
	return s
}

// Registry exposes the per-task fan-out layer for detail views.
func (s *BoardStore) Registry() *TaskRegistry { return s.registry }

func (s *BoardStore) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *BoardStore) Role() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.role
}

// Columns returns a deep copy of the current column/task tree.
func (s *BoardStore) Columns() []*Column {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Column, 0, len(s.columns))
	for _, col := range s.columns {
		c := &Column{ID: col.ID, Title: col.Title, Accent: col.Accent, Tasks: make([]*Task, 0, len(col.Tasks))}
		for _, t := range col.Tasks {
			tc := *t
			c.Tasks = append(c.Tasks, &tc)
		}
		out = append(out, c)
	}
	return out
}

// Load performs the full board fetch for a slug and connects the stream.
// Calling it again, for the same or another slug, aborts any in-flight
// fetch so a stale response never lands on a superseded view.
func (s *BoardStore) Load(ctx context.Context, slug string) error {
	s.mu.Lock()
	if s.state == StateTornDown {
		s.mu.Unlock()
		return fmt.Errorf("client.Load: store is torn down")
	}
	if s.loadCancel != nil {
		s.loadCancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	s.loadCancel = cancel
	s.state = StateLoading
	s.slug = slug
	s.mu.Unlock()

	snapshot, err := s.api.FetchBoard(fetchCtx, slug)
	if err != nil {
		return fmt.Errorf("client.Load: %w", err)
	}

	s.mu.Lock()
	if fetchCtx.Err() != nil || s.state == StateTornDown || s.slug != slug {
		// Superseded by a newer Load or a teardown.
		s.mu.Unlock()
		return nil
	}
	s.workspaceID = snapshot.Workspace.ID
	s.role = snapshot.Workspace.Role
	s.columns = snapshot.Columns
	s.mu.Unlock()

	s.sub.Connect(WorkspaceScope(slug))
	return nil
}

// Close discards the view: it aborts any in-flight fetch and background
// re-fetches and closes the stream. Safe to call more than once.
func (s *BoardStore) Close() {
	s.mu.Lock()
	s.state = StateTornDown
	if s.loadCancel != nil {
		s.loadCancel()
		s.loadCancel = nil
	}
	s.mu.Unlock()

	s.ctxCancel()
	s.sub.Close()
}

// AddTask creates a task and inserts the server-returned representation
// into the column. The later task.created echo is a no-op because the id
// already exists.
func (s *BoardStore) AddTask(ctx context.Context, columnID, title string) error {
	task, err := s.api.CreateTask(ctx, columnID, title)
	if err != nil {
		return fmt.Errorf("client.AddTask: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateTornDown {
		return nil
	}
	if _, _, ok := s.find(task.ID); ok {
		// The stream echo beat the HTTP response.
		return nil
	}
	if col := s.column(columnID); col != nil {
		col.Tasks = append(col.Tasks, task)
	}
	return nil
}

// MoveTask applies the move locally before the request is even sent, so
// the user's own drag is visible with zero latency. The later task.moved
// echo finds the task already in the destination and no-ops. A failed
// request leaves the optimistic state in place; the next full fetch
// corrects it.
func (s *BoardStore) MoveTask(ctx context.Context, taskID, toColumnID string, index int) error {
	s.mu.Lock()
	if s.state == StateTornDown {
		s.mu.Unlock()
		return nil
	}
	if task := s.remove(taskID); task != nil {
		if col := s.column(toColumnID); col != nil {
			col.Tasks = insertAt(col.Tasks, task, index)
		}
	}
	s.mu.Unlock()

	if err := s.api.MoveTask(ctx, taskID, toColumnID, index); err != nil {
		return fmt.Errorf("client.MoveTask: %w", err)
	}
	return nil
}

// handleEvent reconciles one stream event into local state. Events are
// applied synchronously in arrival order; structural mutation happens
// under the store mutex, registry callbacks run outside it.
func (s *BoardStore) handleEvent(evt event.Event) {
	if evt.Type == event.TypeConnected {
		s.mu.Lock()
		if s.state != StateTornDown {
			s.state = StateLive
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	if s.state == StateTornDown || evt.WorkspaceID != s.workspaceID {
		s.mu.Unlock()
		return
	}

	switch evt.Type {
	case event.TypeTaskCreated:
		s.applyCreated(evt)
		s.mu.Unlock()

	case event.TypeTaskUpdated:
		if evt.IsNudge() {
			// Refresh-only pseudo-event: never merged into columns, only
			// forwarded so an open detail view re-fetches itself.
			s.mu.Unlock()
			s.registry.Notify(evt.NudgedTaskID(), evt)
			return
		}
		s.applyUpdated(evt)
		s.mu.Unlock()
		if evt.Task != nil {
			// The event payload is intentionally thin; re-fetch the full
			// detail to pick up relational fields it does not carry.
			go s.refreshTask(evt.Task.ID)
			s.registry.Notify(evt.Task.ID, evt)
		}

	case event.TypeTaskMoved:
		s.applyMoved(evt)
		s.mu.Unlock()
		s.registry.Notify(evt.TaskID, evt)

	case event.TypeTaskDeleted:
		s.remove(evt.TaskID)
		s.mu.Unlock()
		// Lets an open detail view close itself gracefully.
		s.registry.Notify(evt.TaskID, evt)

	case event.TypeCommentCreated:
		// Board columns are unaffected; only detail views care.
		s.mu.Unlock()
		s.registry.Notify(evt.TaskID, evt)

	case event.TypeMembersChanged:
		slug := s.slug
		s.mu.Unlock()
		go s.refreshRole(slug)

	default:
		s.mu.Unlock()
	}
}

// applyCreated prepends the event's task to the named column unless the
// id already exists anywhere (the optimistic insert already happened).
// An unknown column drops the event silently; the next full fetch
// corrects the divergence.
func (s *BoardStore) applyCreated(evt event.Event) {
	if evt.Task == nil {
		return
	}
	if _, _, ok := s.find(evt.Task.ID); ok {
		return
	}
	col := s.column(evt.Task.ColumnID)
	if col == nil {
		return
	}
	col.Tasks = insertAt(col.Tasks, taskFromRef(evt.Task), 0)
}

// applyUpdated merges only the fields present in the event; absent fields
// keep their current local value.
func (s *BoardStore) applyUpdated(evt event.Event) {
	if evt.Task == nil {
		return
	}
	colIdx, taskIdx, ok := s.find(evt.Task.ID)
	if !ok {
		return
	}
	mergeRef(s.columns[colIdx].Tasks[taskIdx], evt.Task)
}

// applyMoved no-ops when the task is already in the destination column
// (the optimistic move applied this exact transition); otherwise it moves
// the task, prepending into the destination. Intra-column order from
// concurrent movers is eventually consistent; only a full fetch is
// authoritative.
func (s *BoardStore) applyMoved(evt event.Event) {
	colIdx, _, ok := s.find(evt.TaskID)
	if ok && s.columns[colIdx].ID == evt.ToColumnID {
		return
	}
	dest := s.column(evt.ToColumnID)
	if dest == nil {
		return
	}
	task := s.remove(evt.TaskID)
	if task == nil {
		return
	}
	dest.Tasks = insertAt(dest.Tasks, task, 0)
}

// refreshTask re-fetches full task detail and merges it, guarded against
// going stale: if the task disappeared while the fetch was in flight
// (deleted, or the view reloaded), the result is discarded. Deletion wins.
func (s *BoardStore) refreshTask(taskID string) {
	detail, err := s.api.FetchTask(s.ctx, taskID)
	if err != nil {
		log.Debug().Err(err).Str("task_id", taskID).Msg("task detail refresh failed")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateTornDown {
		return
	}
	colIdx, taskIdx, ok := s.find(taskID)
	if !ok {
		return
	}
	t := s.columns[colIdx].Tasks[taskIdx]
	t.Title = detail.Title
	t.Progress = detail.Progress
	t.DueDate = detail.DueDate
}

// refreshRole updates only the cached membership role; the board tree is
// left alone.
func (s *BoardStore) refreshRole(slug string) {
	role, err := s.api.FetchRole(s.ctx, slug)
	if err != nil {
		log.Debug().Err(err).Str("workspace", slug).Msg("role refresh failed")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateTornDown || s.slug != slug {
		return
	}
	s.role = role
}

func (s *BoardStore) markReconnecting() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateLive {
		s.state = StateReconnecting
	}
}

// find locates a task by id across all columns.
func (s *BoardStore) find(taskID string) (colIdx, taskIdx int, ok bool) {
	for ci, col := range s.columns {
		for ti, t := range col.Tasks {
			if t.ID == taskID {
				return ci, ti, true
			}
		}
	}
	return 0, 0, false
}

// column returns the column with the given id, nil if unknown.
func (s *BoardStore) column(columnID string) *Column {
	for _, col := range s.columns {
		if col.ID == columnID {
			return col
		}
	}
	return nil
}

// remove takes a task out of whichever column holds it.
func (s *BoardStore) remove(taskID string) *Task {
	colIdx, taskIdx, ok := s.find(taskID)
	if !ok {
		return nil
	}
	col := s.columns[colIdx]
	task := col.Tasks[taskIdx]
	col.Tasks = append(col.Tasks[:taskIdx], col.Tasks[taskIdx+1:]...)
	return task
}

func insertAt(tasks []*Task, task *Task, index int) []*Task {
	if index < 0 {
		index = 0
	}
	if index > len(tasks) {
		index = len(tasks)
	}
	tasks = append(tasks, nil)
	copy(tasks[index+1:], tasks[index:])
	tasks[index] = task
	return tasks
}

func taskFromRef(ref *event.TaskRef) *Task {
	t := &Task{ID: ref.ID}
	if ref.Title != nil {
		t.Title = *ref.Title
	}
	if ref.Progress != nil {
		t.Progress = *ref.Progress
	}
	if ref.DueDate != nil {
		t.DueDate = *ref.DueDate
	}
	return t
}

func mergeRef(t *Task, ref *event.TaskRef) {
	if ref.Title != nil {
		t.Title = *ref.Title
	}
	if ref.Progress != nil {
		t.Progress = *ref.Progress
	}
	if ref.DueDate != nil {
		t.DueDate = *ref.DueDate
	}
}
