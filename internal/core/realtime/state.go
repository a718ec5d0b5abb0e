// Package realtime owns the single live connection to the relay, the reconnection
// state machine, and the publish/subscribe registry that fans inbound events out to
// local consumers.
package realtime

import (
	"errors"
	"time"
)

// State is the connection state of a Manager.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Policy controls automatic reconnection. It is fixed for the lifetime of a Manager.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultPolicy returns five attempts backing off from one second up to ten.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
	}
}

// Validate reports whether the policy can drive a backoff schedule.
func (p Policy) Validate() error {
	if p.MaxAttempts < 0 {
		return errors.New("max attempts cannot be negative")
	}
	if p.BaseDelay <= 0 {
		return errors.New("base delay must be positive")
	}
	if p.MaxDelay < p.BaseDelay {
		return errors.New("max delay must be at least the base delay")
	}
	return nil
}

// Delay returns the wait before retry number attempt (1-based):
// min(BaseDelay * 2^(attempt-1), MaxDelay).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if d > p.MaxDelay/2 {
			return p.MaxDelay
		}
		d *= 2
	}
	return min(d, p.MaxDelay)
}
