// Package wire defines the JSON frames exchanged between ecopulse clients and the relay.
//
// Every websocket text message carries exactly one Frame. The relay pushes "event" frames,
// clients send "emit" frames, and the relay answers each emit with one "ack" frame that
// echoes the emit's ID.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type identifies the kind of frame.
type Type string

const (
	TypeEvent Type = "event"
	TypeEmit  Type = "emit"
	TypeAck   Type = "ack"
)

// Error codes carried in failed acknowledgements.
const (
	CodeInvalidPayload = "invalid_payload"
	CodeNotFound       = "not_found"
	CodeInvalidStatus  = "invalid_status"
	CodeUnknownEvent   = "unknown_event"
	CodeInternal       = "internal"
)

// ErrServerClosed is returned by a connection read when the server ended the
// session deliberately with a normal close.
var ErrServerClosed = errors.New("server closed connection")

// Frame is a single protocol message.
type Frame struct {
	Type  Type            `json:"type"`
	ID    uint64          `json:"id,omitempty"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody is the error half of an acknowledgement.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Event builds an event frame with a JSON encoded payload.
func Event(name string, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal %s payload: %w", name, err)
	}
	return Frame{Type: TypeEvent, Event: name, Data: data}, nil
}

// Ack builds a successful acknowledgement for the emit with the given id.
func Ack(id uint64, payload any) (Frame, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, fmt.Errorf("marshal ack payload: %w", err)
	}
	return Frame{Type: TypeAck, ID: id, Data: data}, nil
}

// AckError builds a failed acknowledgement for the emit with the given id.
func AckError(id uint64, code, message string) Frame {
	return Frame{Type: TypeAck, ID: id, Error: &ErrorBody{Code: code, Message: message}}
}

// Validate checks that a decoded frame is well formed for its type.
func (f Frame) Validate() error {
	switch f.Type {
	case TypeEvent:
		if f.Event == "" {
			return errors.New("event frame missing event name")
		}
	case TypeEmit:
		if f.Event == "" {
			return errors.New("emit frame missing event name")
		}
		if f.ID == 0 {
			return errors.New("emit frame missing id")
		}
	case TypeAck:
		if f.ID == 0 {
			return errors.New("ack frame missing id")
		}
	default:
		return fmt.Errorf("unknown frame type %q", f.Type)
	}
	return nil
}
