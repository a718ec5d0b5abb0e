package realtime

import (
	"context"

	"github.com/colonyops/ecopulse/pkg/wire"
)

// Transport opens connections to the relay. The credential is an opaque token
// presented during the handshake.
type Transport interface {
	Dial(ctx context.Context, credential string) (Conn, error)
}

// Conn is one live connection. ReadFrame blocks until the next frame arrives and
// returns wire.ErrServerClosed (possibly wrapped) when the server ended the session.
// WriteFrame must be safe to call concurrently with ReadFrame.
type Conn interface {
	ReadFrame() (wire.Frame, error)
	WriteFrame(f wire.Frame) error
	Close() error
}
