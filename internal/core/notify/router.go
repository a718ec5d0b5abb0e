package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/colonyops/ecopulse/internal/core/pickup"
	"github.com/colonyops/ecopulse/internal/core/realtime"
)

// Subscriber is the subscribe half of realtime.Manager.
type Subscriber interface {
	Subscribe(event string, fn realtime.Handler) (unsubscribe func())
}

// Router maps realtime events to user-facing notifications.
type Router struct {
	store  *Store
	source Subscriber
	logger zerolog.Logger

	mu     sync.Mutex
	unsubs []func()
}

// NewRouter constructs a router that adds notifications to store for events
// delivered by source.
func NewRouter(store *Store, source Subscriber, logger zerolog.Logger) *Router {
	return &Router{store: store, source: source, logger: logger}
}

// Register subscribes all supported event mappings.
func (r *Router) Register() {
	if r == nil || r.source == nil {
		return
	}

	on(r, pickup.EventRequestCreated, func(p pickup.Request) {
		r.add(KindSuccess, "New pickup request", "New request: %s", p.ID)
	})

	on(r, pickup.EventRequestUpdated, func(p pickup.Request) {
		r.add(KindInfo, "Request updated", "Request %s was updated", p.ID)
	})

	on(r, pickup.EventRequestStatusUpdated, func(p pickup.StatusUpdatedPayload) {
		r.add(KindInfo, "Status updated", "Request %s status updated to %s", p.ID, p.Status)
	})

	on(r, pickup.EventCollectorAssigned, func(p pickup.CollectorAssignedPayload) {
		r.add(KindInfo, "Collector assigned", "Collector assigned to request %s", p.RequestID)
	})

	on(r, realtime.EventDisconnect, func(p realtime.DisconnectPayload) {
		if p.Reason == realtime.ReasonServerDisconnect {
			r.add(KindError, "Disconnected", "Disconnected from server")
		}
	})

	on(r, realtime.EventReconnectFailed, func(realtime.ReconnectFailedPayload) {
		r.add(KindError, "Connection lost", "Connection lost. Please refresh the page.")
	})
}

// Close removes every subscription made by Register.
func (r *Router) Close() {
	r.mu.Lock()
	unsubs := r.unsubs
	r.unsubs = nil
	r.mu.Unlock()

	for _, fn := range unsubs {
		fn()
	}
}

func on[T any](r *Router, event string, fn func(T)) {
	unsub := r.source.Subscribe(event, func(raw json.RawMessage) {
		p, err := realtime.Decode[T](raw)
		if err != nil {
			r.logger.Warn().Err(err).Str("event", event).Msg("dropping malformed event")
			return
		}
		fn(p)
	})

	r.mu.Lock()
	r.unsubs = append(r.unsubs, unsub)
	r.mu.Unlock()
}

func (r *Router) add(kind Kind, title, format string, args ...any) {
	r.store.Add(context.Background(), Notification{
		Title:   title,
		Message: fmt.Sprintf(format, args...),
		Kind:    kind,
	})
}
