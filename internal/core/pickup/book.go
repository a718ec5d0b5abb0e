package pickup

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Book is an in-memory, concurrency-safe ledger of pickup requests.
// Requests are kept in creation order.
type Book struct {
	mu       sync.RWMutex
	requests map[string]*Request
	order    []string

	now   func() time.Time
	newID func() string
}

// NewBook returns an empty Book.
func NewBook() *Book {
	return &Book{
		requests: make(map[string]*Request),
		now:      time.Now,
		newID:    newRequestID,
	}
}

func newRequestID() string {
	return "REQ-" + uuid.NewString()[:8]
}

// Create validates cmd and records a new pending request.
func (b *Book) Create(cmd CreateCommand) (Request, error) {
	if err := cmd.Validate(); err != nil {
		return Request{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	r := &Request{
		ID:           b.newID(),
		CustomerName: cmd.CustomerName,
		Location:     cmd.Location,
		WasteType:    cmd.WasteType,
		Notes:        cmd.Notes,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	b.requests[r.ID] = r
	b.order = append(b.order, r.ID)
	return *r, nil
}

// Get returns the request with id.
func (b *Book) Get(id string) (Request, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r, ok := b.requests[id]
	if !ok {
		return Request{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *r, nil
}

// List returns requests in creation order, optionally filtered by status.
func (b *Book) List(status Status) []Request {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Request, 0, len(b.order))
	for _, id := range b.order {
		r := b.requests[id]
		if status != "" && r.Status != status {
			continue
		}
		out = append(out, *r)
	}
	return out
}

// UpdateStatus moves a request to status and returns the updated request along
// with the status it had before.
func (b *Book) UpdateStatus(id string, status Status) (Request, Status, error) {
	if !status.Valid() {
		return Request{}, "", fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.requests[id]
	if !ok {
		return Request{}, "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	prev := r.Status
	r.Status = status
	r.UpdatedAt = b.now()
	return *r, prev, nil
}

// AssignCollector records collectorID as responsible for the request. A pending
// request moves to in-progress.
func (b *Book) AssignCollector(id, collectorID string) (Request, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.requests[id]
	if !ok {
		return Request{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	r.CollectorID = collectorID
	if r.Status == StatusPending {
		r.Status = StatusInProgress
	}
	r.UpdatedAt = b.now()
	return *r, nil
}

// Len returns the number of requests.
func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}
