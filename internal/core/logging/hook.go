package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// ContextHook extracts client_id and event from context and adds them to log events.
type ContextHook struct{}

// Run adds contextual fields to the zerolog event.
func (h ContextHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == context.Background() || ctx == nil {
		return
	}

	if clientID := GetClientID(ctx); clientID != "" {
		e.Str("client_id", clientID)
	}

	if event := GetEvent(ctx); event != "" {
		e.Str("event", event)
	}
}
