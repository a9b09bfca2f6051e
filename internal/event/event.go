package event

import "strings"

// Type discriminates the event union.
type Type string

const (
	// Workspace-scoped events.
	TypeTaskCreated    Type = "task.created"
	TypeTaskUpdated    Type = "task.updated"
	TypeTaskMoved      Type = "task.moved"
	TypeTaskDeleted    Type = "task.deleted"
	TypeCommentCreated Type = "comment.created"
	TypeMembersChanged Type = "workspace.members.changed"

	// User-scoped events.
	TypeWorkspacesChanged Type = "workspaces.changed"
	TypeNotification      Type = "notification"

	// Synthetic frame sent once when a stream opens. Never published on the bus.
	TypeConnected Type = "connected"
)

// NudgePrefix marks task ids in task.updated events that exist only to
// trigger a detail refresh. Such pseudo-events never represent a real task
// and must not be merged into board columns.
const NudgePrefix = "nudge:"

// TaskRef is the thin task payload carried by task.created and task.updated.
// Pointer fields distinguish "absent, keep current value" from a real value.
type TaskRef struct {
	ID       string  `json:"id"`
	ColumnID string  `json:"columnId,omitempty"`
	Title    *string `json:"title,omitempty"`
	Progress *int    `json:"progress,omitempty"`
	DueDate  *string `json:"dueDate,omitempty"`
}

// NotificationRef is the payload of a notification event.
type NotificationRef struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Message   string `json:"message,omitempty"`
	URL       string `json:"url,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// Event is the wire representation of one bus emission. Exactly one scope
// key is set: WorkspaceID for board events, UserID for personal events.
type Event struct {
	Type        Type   `json:"type"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	UserID      string `json:"userId,omitempty"`

	Task         *TaskRef         `json:"task,omitempty"`
	TaskID       string           `json:"taskId,omitempty"`
	FromColumnID string           `json:"fromColumnId,omitempty"`
	ToColumnID   string           `json:"toColumnId,omitempty"`
	Position     string           `json:"position,omitempty"`
	CommentID    string           `json:"commentId,omitempty"`
	Notification *NotificationRef `json:"notification,omitempty"`
}

// IsNudge reports whether the event is a refresh-only pseudo-update.
func (e Event) IsNudge() bool {
	return e.Type == TypeTaskUpdated && e.Task != nil && strings.HasPrefix(e.Task.ID, NudgePrefix)
}

// NudgedTaskID returns the real task id behind a nudge pseudo-event.
func (e Event) NudgedTaskID() string {
	if e.Task == nil {
		return ""
	}
	return strings.TrimPrefix(e.Task.ID, NudgePrefix)
}
