// Package notify holds the client's notification list: an ordered, persisted
// record of what happened while the user was watching, with read/unread state.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/colonyops/ecopulse/internal/data/storage"
)

// StorageKey is the key the full notification list is persisted under.
const StorageKey = "notifications"

// Kind represents the severity of a notification.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// ParseKind maps s to a Kind. Unknown values become KindInfo.
func ParseKind(s string) Kind {
	switch k := Kind(s); k {
	case KindInfo, KindSuccess, KindWarning, KindError:
		return k
	default:
		return KindInfo
	}
}

// Notification is a single entry in the list.
type Notification struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      Kind      `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"date"`
}

// Welcome is the entry seeded on first run.
func Welcome(id string, at time.Time) Notification {
	return Notification{
		ID:        id,
		Title:     "Welcome to Waste Management System",
		Message:   "Your admin dashboard is ready to use.",
		Kind:      KindInfo,
		Read:      true,
		CreatedAt: at,
	}
}

// Store is the canonical notification list, newest first. Every change is
// written to storage before the mutating call returns. Storage failures are
// logged and never fail the mutation; the in-memory list stays authoritative.
type Store struct {
	storage storage.Storage
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string

	mu    sync.Mutex
	items []Notification

	subMu   sync.Mutex
	nextSub uint64
	subs    map[uint64]func()
}

// Option configures a Store.
type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDFunc(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// NewStore creates an empty store backed by st. Call Load to rehydrate.
func NewStore(st storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage: st,
		logger:  zerolog.Nop(),
		now:     time.Now,
		newID:   uuid.NewString,
		subs:    make(map[uint64]func()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted one. When nothing has
// been persisted yet the list is seeded with a read welcome entry. Unreadable
// or corrupt data is logged and leaves the list empty without overwriting it.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	s.items = s.read(ctx)
	s.mu.Unlock()

	s.changed()
}

func (s *Store) read(ctx context.Context) []Notification {
	data, err := s.storage.Get(ctx, StorageKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error().Err(err).Msg("failed to load notifications")
			return nil
		}

		seed := []Notification{Welcome(s.newID(), s.now())}
		s.persist(ctx, seed)
		return seed
	}

	var items []Notification
	if err := json.Unmarshal(data, &items); err != nil {
		s.logger.Error().Err(err).Msg("persisted notifications are corrupt, starting empty")
		return nil
	}

	for i := range items {
		items[i].Kind = ParseKind(string(items[i].Kind))
	}
	return items
}

// Add completes n with defaults, prepends it, and persists the list. ID and
// CreatedAt are assigned when zero; an empty or unknown Kind becomes info.
func (s *Store) Add(ctx context.Context, n Notification) Notification {
	if n.ID == "" {
		n.ID = s.newID()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	n.Kind = ParseKind(string(n.Kind))

	s.mu.Lock()
	s.items = append([]Notification{n}, s.items...)
	s.persist(ctx, s.items)
	s.mu.Unlock()

	s.changed()
	return n
}

// MarkAsRead marks the entry with id as read. It reports whether anything changed;
// unknown ids and entries already read are ignored.
func (s *Store) MarkAsRead(ctx context.Context, id string) bool {
	s.mu.Lock()
	changed := false
	for i := range s.items {
		if s.items[i].ID == id && !s.items[i].Read {
			s.items[i].Read = true
			changed = true
			break
		}
	}
	if changed {
		s.persist(ctx, s.items)
	}
	s.mu.Unlock()

	if changed {
		s.changed()
	}
	return changed
}

// MarkAllAsRead marks every entry read. An empty list is not written, so a
// cleared store stays cleared.
func (s *Store) MarkAllAsRead(ctx context.Context) {
	s.mu.Lock()
	for i := range s.items {
		s.items[i].Read = true
	}
	if len(s.items) > 0 {
		s.persist(ctx, s.items)
	}
	s.mu.Unlock()

	s.changed()
}

// ClearAll empties the list and removes the persisted copy entirely.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	s.items = nil
	if err := s.storage.Delete(ctx, StorageKey); err != nil {
		s.logger.Error().Err(err).Msg("failed to delete notifications")
	}
	s.mu.Unlock()

	s.changed()
}

// Notifications returns a copy of the list, newest first.
func (s *Store) Notifications() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.items...)
}

// Get returns the entry with id.
func (s *Store) Get(id string) (Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.items {
		if n.ID == id {
			return n, true
		}
	}
	return Notification{}, false
}

// UnreadCount counts unread entries in the current list.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countUnread(s.items)
}

func countUnread(items []Notification) int {
	n := 0
	for _, item := range items {
		if !item.Read {
			n++
		}
	}
	return n
}

// Subscribe registers fn to run after every change to the list.
func (s *Store) Subscribe(fn func()) (unsubscribe func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextSub++
	id := s.nextSub
	s.subs[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) changed() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// persist must be called with s.mu held so writes land in mutation order.
func (s *Store) persist(ctx context.Context, items []Notification) {
	data, err := json.Marshal(items)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to encode notifications")
		return
	}
	if err := s.storage.Set(ctx, StorageKey, data); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist notifications")
	}
}
