package realtime

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConnected is returned by Emit when there is no live connection.
	// Commands are never queued while offline.
	ErrNotConnected = errors.New("not connected to server")

	// ErrConnectionLost fails emits that were waiting on an ack when the
	// connection dropped or was closed.
	ErrConnectionLost = errors.New("connection lost before acknowledgement")
)

// AckError is returned by Emit when the server acknowledged the command with an error.
type AckError struct {
	Event   string
	Code    string
	Message string
}

func (e *AckError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "request failed"
	}
	if e.Code == "" {
		return fmt.Sprintf("%s: %s", e.Event, msg)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Event, msg, e.Code)
}
