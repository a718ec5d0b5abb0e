package logging

import "context"

type contextKey string

const (
	clientIDKey contextKey = "client_id"
	eventKey    contextKey = "event"
)

// WithClientID adds a relay client ID to the context.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// WithEvent adds the name of the event being handled to the context.
func WithEvent(ctx context.Context, event string) context.Context {
	return context.WithValue(ctx, eventKey, event)
}

// GetClientID retrieves the client ID from the context.
// Returns empty string if not present.
func GetClientID(ctx context.Context) string {
	if id, ok := ctx.Value(clientIDKey).(string); ok {
		return id
	}
	return ""
}

// GetEvent retrieves the event name from the context.
// Returns empty string if not present.
func GetEvent(ctx context.Context) string {
	if ev, ok := ctx.Value(eventKey).(string); ok {
		return ev
	}
	return ""
}
