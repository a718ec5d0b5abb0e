package realtime

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Handler receives the raw JSON payload of an event.
type Handler func(payload json.RawMessage)

type subscription struct {
	id uint64
	fn Handler
}

// Registry maps event names to the handlers subscribed to them. Topics with no
// handlers are removed, so Events only ever lists names with live subscribers.
type Registry struct {
	logger zerolog.Logger

	mu     sync.Mutex
	nextID uint64
	topics map[string][]subscription
}

// NewRegistry creates an empty registry.
func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		logger: logger,
		topics: make(map[string][]subscription),
	}
}

// Subscribe registers fn for event. Any event name is accepted. The returned
// function removes exactly this registration; calling it again is a no-op.
func (r *Registry) Subscribe(event string, fn Handler) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	id := r.nextID
	r.topics[event] = append(r.topics[event], subscription{id: id, fn: fn})

	return func() { r.remove(event, id) }
}

func (r *Registry) remove(event string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := r.topics[event]
	for i, s := range subs {
		if s.id != id {
			continue
		}

		remaining := make([]subscription, 0, len(subs)-1)
		remaining = append(remaining, subs[:i]...)
		remaining = append(remaining, subs[i+1:]...)
		if len(remaining) == 0 {
			delete(r.topics, event)
		} else {
			r.topics[event] = remaining
		}
		return
	}
}

// Notify calls every handler subscribed to event, in registration order. A
// panicking handler is logged and skipped; later handlers still run.
func (r *Registry) Notify(event string, payload json.RawMessage) {
	r.mu.Lock()
	subs := r.topics[event]
	r.mu.Unlock()

	// subs is never mutated in place, so iterating the captured slice is safe.
	for _, s := range subs {
		r.call(event, s.fn, payload)
	}
}

func (r *Registry) call(event string, fn Handler, payload json.RawMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Str("event", event).
				Interface("panic", rec).
				Msg("subscriber failed")
		}
	}()
	fn(payload)
}

// Count returns the number of handlers subscribed to event.
func (r *Registry) Count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics[event])
}

// Events returns the sorted names of events with at least one subscriber.
func (r *Registry) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.topics))
	for name := range r.topics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes every subscription.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = make(map[string][]subscription)
}
