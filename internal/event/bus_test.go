package event_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papanlab/papan/internal/event"
)

func TestBusDeliversToAllListeners(t *testing.T) {
	t.Parallel()

	bus := event.NewBus()

	var first, second []event.Event
	bus.Subscribe(func(evt event.Event) { first = append(first, evt) })
	bus.Subscribe(func(evt event.Event) { second = append(second, evt) })

	bus.Publish(event.Event{Type: event.TypeTaskCreated, WorkspaceID: "w1"})
	bus.Publish(event.Event{Type: event.TypeTaskDeleted, WorkspaceID: "w1"})

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	// A single producer observes its own publication order.
	assert.Equal(t, event.TypeTaskCreated, first[0].Type)
	assert.Equal(t, event.TypeTaskDeleted, first[1].Type)
}

func TestBusUnsubscribeStopsDelivery(t *testing.T) {
	t.Parallel()

	bus := event.NewBus()

	var got int
	unsubscribe := bus.Subscribe(func(event.Event) { got++ })
	require.Equal(t, 1, bus.ListenerCount())

	bus.Publish(event.Event{Type: event.TypeTaskCreated})
	unsubscribe()
	bus.Publish(event.Event{Type: event.TypeTaskCreated})

	assert.Equal(t, 1, got)
	assert.Equal(t, 0, bus.ListenerCount())
}

func TestBusUnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()

	bus := event.NewBus()

	unsubA := bus.Subscribe(func(event.Event) {})
	bus.Subscribe(func(event.Event) {})
	require.Equal(t, 2, bus.ListenerCount())

	unsubA()
	unsubA()
	assert.Equal(t, 1, bus.ListenerCount())
}

func TestBusPanickingListenerIsIsolated(t *testing.T) {
	t.Parallel()

	bus := event.NewBus()

	var before, after int
	bus.Subscribe(func(event.Event) { before++ })
	bus.Subscribe(func(event.Event) { panic("listener bug") })
	bus.Subscribe(func(event.Event) { after++ })

	require.NotPanics(t, func() {
		bus.Publish(event.Event{Type: event.TypeTaskUpdated})
	})

	assert.Equal(t, 1, before)
	assert.Equal(t, 1, after)
}

func TestNudgeDetection(t *testing.T) {
	t.Parallel()

	nudge := event.Event{
		Type: event.TypeTaskUpdated,
		Task: &event.TaskRef{ID: event.NudgePrefix + "t1"},
	}
	assert.True(t, nudge.IsNudge())
	assert.Equal(t, "t1", nudge.NudgedTaskID())

	plain := event.Event{
		Type: event.TypeTaskUpdated,
		Task: &event.TaskRef{ID: "t1"},
	}
	assert.False(t, plain.IsNudge())
	assert.Equal(t, "t1", plain.NudgedTaskID())

	created := event.Event{
		Type: event.TypeTaskCreated,
		Task: &event.TaskRef{ID: event.NudgePrefix + "t1"},
	}
	assert.False(t, created.IsNudge())
}
