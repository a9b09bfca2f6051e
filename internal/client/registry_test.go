package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/papanlab/papan/internal/event"
)

func TestRegistryNotifiesMatchingIDOnly(t *testing.T) {
	t.Parallel()

	r := NewTaskRegistry()

	var a, b, other int
	r.Subscribe("t1", func(event.Event) { a++ })
	r.Subscribe("t1", func(event.Event) { b++ })
	r.Subscribe("t2", func(event.Event) { other++ })

	r.Notify("t1", event.Event{Type: event.TypeTaskDeleted, TaskID: "t1"})

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 0, other)
}

func TestRegistryNotifyUnknownIDIsNoop(t *testing.T) {
	t.Parallel()

	r := NewTaskRegistry()
	assert.NotPanics(t, func() {
		r.Notify("ghost", event.Event{Type: event.TypeCommentCreated})
	})
}

func TestRegistryLastUnsubscribeRemovesEntry(t *testing.T) {
	t.Parallel()

	r := NewTaskRegistry()

	unsubA := r.Subscribe("t1", func(event.Event) {})
	unsubB := r.Subscribe("t1", func(event.Event) {})
	assert.Equal(t, 2, r.SubscriberCount("t1"))

	unsubA()
	assert.Equal(t, 1, r.SubscriberCount("t1"))

	unsubB()
	assert.Equal(t, 0, r.SubscriberCount("t1"))
	r.mu.Lock()
	_, exists := r.subs["t1"]
	r.mu.Unlock()
	assert.False(t, exists)
}

func TestRegistryUnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()

	r := NewTaskRegistry()

	unsubA := r.Subscribe("t1", func(event.Event) {})
	r.Subscribe("t1", func(event.Event) {})

	unsubA()
	unsubA()
	assert.Equal(t, 1, r.SubscriberCount("t1"))
}

func TestRegistryCallbackMayResubscribe(t *testing.T) {
	t.Parallel()

	r := NewTaskRegistry()

	var reattached bool
	r.Subscribe("t1", func(event.Event) {
		if !reattached {
			reattached = true
			r.Subscribe("t1", func(event.Event) {})
		}
	})

	// Notify snapshots callbacks before invoking them, so a callback that
	// subscribes again must not deadlock.
	r.Notify("t1", event.Event{Type: event.TypeTaskUpdated})
	assert.Equal(t, 2, r.SubscriberCount("t1"))
}
