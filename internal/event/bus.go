package event

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Listener receives every published event. Scope filtering is the
// listener's own responsibility.
type Listener func(Event)

// Bus is an in-process publish/subscribe hub. One instance is constructed
// at startup and injected into every producer and stream endpoint; tests
// construct isolated instances. Delivery is synchronous, best-effort and
// unordered across producers; a single producer goroutine observes its own
// publication order.
type Bus struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]Listener
}

func NewBus() *Bus {
	return &Bus{listeners: make(map[int]Listener)}
}

// Subscribe registers a listener for all events and returns its
// unsubscribe function. There is no listener limit: every open stream
// connection holds one.
func (b *Bus) Subscribe(fn Listener) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.listeners[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.listeners, id)
			b.mu.Unlock()
		})
	}
}

// Publish dispatches the event to every registered listener. It never
// fails: a panicking listener is isolated so siblings still receive the
// event and the producer is unaffected.
func (b *Bus) Publish(evt Event) {
	b.mu.RLock()
	snapshot := make([]Listener, 0, len(b.listeners))
	for _, fn := range b.listeners {
		snapshot = append(snapshot, fn)
	}
	b.mu.RUnlock()

	for _, fn := range snapshot {
		invoke(fn, evt)
	}
}

func invoke(fn Listener, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn().Any("panic", r).Str("event_type", string(evt.Type)).Msg("event listener panicked")
		}
	}()
	fn(evt)
}

// ListenerCount reports the number of registered listeners.
func (b *Bus) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
