package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papanlab/papan/internal/event"
)

func strptr(s string) *string { return &s }
func intptr(i int) *int       { return &i }

// seededStore builds a live store with a fixed column tree, bypassing the
// network load path.
func seededStore(baseURL string, columns ...*Column) *BoardStore {
	s := NewBoardStore(NewAPI(baseURL, "token"))
	s.workspaceID = "w1"
	s.slug = "acme"
	s.state = StateLive
	s.columns = columns
	return s
}

func col(id, title string, tasks ...*Task) *Column {
	return &Column{ID: id, Title: title, Tasks: tasks}
}

// taskIDs flattens a store's columns into id slices keyed by column id.
func taskIDs(s *BoardStore) map[string][]string {
	out := make(map[string][]string)
	for _, c := range s.Columns() {
		ids := make([]string, 0, len(c.Tasks))
		for _, t := range c.Tasks {
			ids = append(ids, t.ID)
		}
		out[c.ID] = ids
	}
	return out
}

func TestCreatedEchoIsIdempotent(t *testing.T) {
	t.Parallel()

	s := seededStore("", col("c1", "To Do", &Task{ID: "t1", Title: "Write docs"}))
	defer s.Close()

	s.handleEvent(event.Event{
		Type:        event.TypeTaskCreated,
		WorkspaceID: "w1",
		Task:        &event.TaskRef{ID: "t1", ColumnID: "c1", Title: strptr("Write docs")},
	})

	assert.Equal(t, map[string][]string{"c1": {"t1"}}, taskIDs(s))
}

func TestCreatedPrependsUnknownTask(t *testing.T) {
	t.Parallel()

	s := seededStore("", col("c1", "To Do", &Task{ID: "t1"}))
	defer s.Close()

	s.handleEvent(event.Event{
		Type:        event.TypeTaskCreated,
		WorkspaceID: "w1",
		Task:        &event.TaskRef{ID: "t2", ColumnID: "c1", Title: strptr("New"), Progress: intptr(10)},
	})

	assert.Equal(t, map[string][]string{"c1": {"t2", "t1"}}, taskIDs(s))
}

func TestCreatedUnknownColumnDroppedSilently(t *testing.T) {
	t.Parallel()

	s := seededStore("", col("c1", "To Do"))
	defer s.Close()

	s.handleEvent(event.Event{
		Type:        event.TypeTaskCreated,
		WorkspaceID: "w1",
		Task:        &event.TaskRef{ID: "t9", ColumnID: "gone"},
	})

	assert.Equal(t, map[string][]string{"c1": {}}, taskIDs(s))
}

func TestMoveEchoIsIdempotent(t *testing.T) {
	t.Parallel()

	// The optimistic move already put t1 into c2.
	s := seededStore("", col("c1", "To Do"), col("c2", "Done", &Task{ID: "t1"}))
	defer s.Close()

	s.handleEvent(event.Event{
		Type:         event.TypeTaskMoved,
		WorkspaceID:  "w1",
		TaskID:       "t1",
		FromColumnID: "c1",
		ToColumnID:   "c2",
		Position:     "0",
	})

	assert.Equal(t, map[string][]string{"c1": {}, "c2": {"t1"}}, taskIDs(s))
}

func TestCrossColumnMove(t *testing.T) {
	t.Parallel()

	s := seededStore("", col("c1", "To Do", &Task{ID: "t1"}), col("c2", "Done", &Task{ID: "t2"}))
	defer s.Close()

	s.handleEvent(event.Event{
		Type:         event.TypeTaskMoved,
		WorkspaceID:  "w1",
		TaskID:       "t1",
		FromColumnID: "c1",
		ToColumnID:   "c2",
	})

	assert.Equal(t, map[string][]string{"c1": {}, "c2": {"t1", "t2"}}, taskIDs(s))
}

func TestEventsForOtherWorkspacesIgnored(t *testing.T) {
	t.Parallel()

	s := seededStore("", col("c1", "To Do", &Task{ID: "t1"}))
	defer s.Close()

	s.handleEvent(event.Event{
		Type:        event.TypeTaskDeleted,
		WorkspaceID: "w2",
		TaskID:      "t1",
	})

	assert.Equal(t, map[string][]string{"c1": {"t1"}}, taskIDs(s))
}

func TestDeletedRemovesAndNotifiesSubscribers(t *testing.T) {
	t.Parallel()

	s := seededStore("", col("c1", "To Do", &Task{ID: "t1"}))
	defer s.Close()

	var forX, forY int
	s.Registry().Subscribe("t1", func(event.Event) { forX++ })
	s.Registry().Subscribe("t2", func(event.Event) { forY++ })

	s.handleEvent(event.Event{
		Type:        event.TypeTaskDeleted,
		WorkspaceID: "w1",
		TaskID:      "t1",
	})

	assert.Equal(t, map[string][]string{"c1": {}}, taskIDs(s))
	assert.Equal(t, 1, forX)
	assert.Equal(t, 0, forY)
}

func TestUpdatedMergesOnlyPresentFields(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(TaskDetail{ID: "t1", Title: "New title", Progress: 30, DueDate: "2026-09-10"})
	}))
	defer srv.Close()

	s := seededStore(srv.URL, col("c1", "To Do", &Task{ID: "t1", Title: "Old", Progress: 30, DueDate: "2026-09-10"}))
	defer s.Close()

	s.handleEvent(event.Event{
		Type:        event.TypeTaskUpdated,
		WorkspaceID: "w1",
		Task:        &event.TaskRef{ID: "t1", Title: strptr("New title")},
	})

	cols := s.Columns()
	require.Len(t, cols[0].Tasks, 1)
	got := cols[0].Tasks[0]
	assert.Equal(t, "New title", got.Title)
	// Absent fields keep their local values.
	assert.Equal(t, 30, got.Progress)
	assert.Equal(t, "2026-09-10", got.DueDate)
}

func TestNudgeNeverTouchesColumns(t *testing.T) {
	t.Parallel()

	s := seededStore("", col("c1", "To Do", &Task{ID: "t1", Title: "Keep me"}))
	defer s.Close()

	var notified []event.Event
	s.Registry().Subscribe("t1", func(evt event.Event) { notified = append(notified, evt) })

	s.handleEvent(event.Event{
		Type:        event.TypeTaskUpdated,
		WorkspaceID: "w1",
		Task:        &event.TaskRef{ID: event.NudgePrefix + "t1"},
	})

	// The pseudo-task id must not appear anywhere on the board.
	assert.Equal(t, map[string][]string{"c1": {"t1"}}, taskIDs(s))
	assert.Equal(t, "Keep me", s.Columns()[0].Tasks[0].Title)
	require.Len(t, notified, 1)
	assert.True(t, notified[0].IsNudge())
}

func TestStaleDetailRefreshDiscardedAfterDelete(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(TaskDetail{ID: "t1", Title: "Resurrected"})
	}))
	defer srv.Close()

	s := seededStore(srv.URL, col("c1", "To Do", &Task{ID: "t1", Title: "Doomed"}))
	defer s.Close()

	// The deletion lands while the update's detail re-fetch is in flight.
	s.handleEvent(event.Event{Type: event.TypeTaskDeleted, WorkspaceID: "w1", TaskID: "t1"})

	// The late re-fetch result must be discarded: deletion wins.
	s.refreshTask("t1")

	assert.Equal(t, map[string][]string{"c1": {}}, taskIDs(s))
}

func TestDetailRefreshMergesWhenStillPresent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(TaskDetail{ID: "t1", Title: "Fresh", Progress: 80})
	}))
	defer srv.Close()

	s := seededStore(srv.URL, col("c1", "To Do", &Task{ID: "t1", Title: "Stale", Progress: 10}))
	defer s.Close()

	s.refreshTask("t1")

	got := s.Columns()[0].Tasks[0]
	assert.Equal(t, "Fresh", got.Title)
	assert.Equal(t, 80, got.Progress)
}

func TestCommentForwardedToRegistryOnly(t *testing.T) {
	t.Parallel()

	s := seededStore("", col("c1", "To Do", &Task{ID: "t1"}))
	defer s.Close()

	var notified int
	s.Registry().Subscribe("t1", func(event.Event) { notified++ })

	s.handleEvent(event.Event{
		Type:        event.TypeCommentCreated,
		WorkspaceID: "w1",
		TaskID:      "t1",
		CommentID:   "cm1",
	})

	assert.Equal(t, 1, notified)
	assert.Equal(t, map[string][]string{"c1": {"t1"}}, taskIDs(s))
}

func TestMembersChangedRefreshesRoleOnly(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/workspaces/acme/membership", r.URL.Path)
		_, _ = w.Write([]byte(`{"role":"VIEWER"}`))
	}))
	defer srv.Close()

	s := seededStore(srv.URL, col("c1", "To Do", &Task{ID: "t1"}))
	s.role = "MEMBER"
	defer s.Close()

	s.handleEvent(event.Event{Type: event.TypeMembersChanged, WorkspaceID: "w1"})

	assert.Eventually(t, func() bool { return s.Role() == "VIEWER" }, time.Second, 10*time.Millisecond)
	// The board tree itself is untouched.
	assert.Equal(t, map[string][]string{"c1": {"t1"}}, taskIDs(s))
}

func TestOptimisticMoveThenEcho(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		_, _ = w.Write([]byte(`{"task":{"id":"t1"}}`))
	}))
	defer srv.Close()

	s := seededStore(srv.URL, col("c1", "To Do", &Task{ID: "t1", Title: "Write spec"}), col("c2", "Done"))
	defer s.Close()

	// The local state reflects the move before the request even returns.
	require.NoError(t, s.MoveTask(context.Background(), "t1", "c2", 0))
	assert.Equal(t, map[string][]string{"c1": {}, "c2": {"t1"}}, taskIDs(s))

	// The server echo of that exact transition is a no-op.
	s.handleEvent(event.Event{
		Type:         event.TypeTaskMoved,
		WorkspaceID:  "w1",
		TaskID:       "t1",
		FromColumnID: "c1",
		ToColumnID:   "c2",
		Position:     "0",
	})
	assert.Equal(t, map[string][]string{"c1": {}, "c2": {"t1"}}, taskIDs(s))
}

func TestAddTaskDedupesStreamEcho(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		_, _ = w.Write([]byte(`{"task":{"id":"t7","title":"New card"}}`))
	}))
	defer srv.Close()

	s := seededStore(srv.URL, col("c1", "To Do", &Task{ID: "t1"}))
	defer s.Close()

	require.NoError(t, s.AddTask(context.Background(), "c1", "New card"))
	assert.Equal(t, map[string][]string{"c1": {"t1", "t7"}}, taskIDs(s))

	s.handleEvent(event.Event{
		Type:        event.TypeTaskCreated,
		WorkspaceID: "w1",
		Task:        &event.TaskRef{ID: "t7", ColumnID: "c1", Title: strptr("New card")},
	})
	assert.Equal(t, map[string][]string{"c1": {"t1", "t7"}}, taskIDs(s))
}

func TestLoadSupersededByTeardown(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"workspace":{"id":"w1","slug":"acme","role":"MEMBER"},"board":{"id":"b1"},"columns":[]}`))
	}))
	defer srv.Close()

	s := NewBoardStore(NewAPI(srv.URL, "token"))

	done := make(chan error, 1)
	go func() { done <- s.Load(context.Background(), "acme") }()

	// Tear the view down while the fetch is still in flight.
	assert.Eventually(t, func() bool { return s.State() == StateLoading }, time.Second, 5*time.Millisecond)
	s.Close()
	close(release)

	<-done
	assert.Equal(t, StateTornDown, s.State())
	assert.Empty(t, s.Columns())
}

func TestConnectedFrameMarksLive(t *testing.T) {
	t.Parallel()

	s := seededStore("", col("c1", "To Do"))
	defer s.Close()

	s.state = StateReconnecting
	s.handleEvent(event.Event{Type: event.TypeConnected})
	assert.Equal(t, StateLive, s.State())

	s.markReconnecting()
	assert.Equal(t, StateReconnecting, s.State())
}
