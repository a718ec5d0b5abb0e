// Package pickup models waste pickup requests: their lifecycle statuses, the
// realtime events announcing changes, and the commands clients send to change them.
package pickup

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound      = errors.New("request not found")
	ErrInvalidStatus = errors.New("invalid status")
)

// Status is the lifecycle stage of a pickup request.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every valid status in lifecycle order.
func Statuses() []Status {
	return []Status{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// ParseStatus converts a string into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// Request is a single pickup request.
type Request struct {
	ID           string    `json:"id"`
	CustomerName string    `json:"customerName"`
	Location     string    `json:"location"`
	WasteType    string    `json:"wasteType"`
	Status       Status    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	CollectorID  string    `json:"collectorId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
