package client

import (
	"sync"

	"github.com/papanlab/papan/internal/event"
)

// TaskRegistry fans board events out to components interested in a single
// task, so an open detail panel does not need its own stream connection.
// It is pure bookkeeping: it owns no task data and performs no I/O.
type TaskRegistry struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]func(event.Event)
}

func NewTaskRegistry() *TaskRegistry {
	return &TaskRegistry{subs: make(map[string]map[int]func(event.Event))}
}

// Subscribe registers a callback for one task id and returns its
// unsubscribe function. The last unsubscribe for an id removes the id's
// entry entirely.
func (r *TaskRegistry) Subscribe(taskID string, cb func(event.Event)) func() {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++

	if r.subs[taskID] == nil {
		r.subs[taskID] = make(map[int]func(event.Event))
	}
	r.subs[taskID][id] = cb

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			delete(r.subs[taskID], id)
			if len(r.subs[taskID]) == 0 {
				delete(r.subs, taskID)
			}
		})
	}
}

// Notify invokes every callback registered for taskID. Callbacks for
// other ids are untouched.
func (r *TaskRegistry) Notify(taskID string, evt event.Event) {
	r.mu.Lock()
	callbacks := make([]func(event.Event), 0, len(r.subs[taskID]))
	for _, cb := range r.subs[taskID] {
		callbacks = append(callbacks, cb)
	}
	r.mu.Unlock()

	for _, cb := range callbacks {
		cb(evt)
	}
}

// SubscriberCount reports the number of live subscriptions for a task id.
func (r *TaskRegistry) SubscriberCount(taskID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs[taskID])
}
