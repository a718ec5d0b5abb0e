package realtime

import (
	"encoding/json"
	"fmt"
)

// Lifecycle events published by the Manager.
const (
	EventConnection       = "connection"
	EventDisconnect       = "disconnect"
	EventConnectError     = "connect_error"
	EventReconnectAttempt = "reconnect_attempt"
	EventReconnectFailed  = "reconnect_failed"
)

// Disconnect reasons.
const (
	ReasonServerDisconnect = "server disconnect"
	ReasonTransportClose   = "transport close"
)

type ConnectionPayload struct {
	Connected bool `json:"connected"`
}

type DisconnectPayload struct {
	Reason string `json:"reason"`
}

type ConnectErrorPayload struct {
	Message string `json:"message"`
}

type ReconnectAttemptPayload struct {
	Attempt     int `json:"attempt"`
	MaxAttempts int `json:"maxAttempts"`
}

type ReconnectFailedPayload struct {
	Attempts int `json:"attempts"`
}

// Decode unmarshals an event payload into T.
func Decode[T any](payload json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

func mustEncode(v any) json.RawMessage {
	bits, err := json.Marshal(v)
	if err != nil {
		// lifecycle payloads are plain structs
		panic(err)
	}
	return bits
}
