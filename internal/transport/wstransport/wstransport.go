// Package wstransport carries wire frames over a websocket connection.
package wstransport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/colonyops/ecopulse/internal/core/realtime"
	"github.com/colonyops/ecopulse/pkg/wire"
)

const writeWait = 10 * time.Second

// ErrUnauthorized is returned by Dial when the server rejected the credential.
var ErrUnauthorized = errors.New("unauthorized")

// Transport dials the relay's websocket endpoint.
type Transport struct {
	url     string
	timeout time.Duration
	dialer  *websocket.Dialer
	logger  zerolog.Logger
}

// New creates a transport for url (ws:// or wss://). A zero timeout leaves the
// handshake bounded only by the dial context.
func New(url string, timeout time.Duration, logger zerolog.Logger) *Transport {
	return &Transport{
		url:     url,
		timeout: timeout,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: timeout,
		},
		logger: logger,
	}
}

// Dial opens a connection, presenting credential as a bearer token.
func (t *Transport) Dial(ctx context.Context, credential string) (realtime.Conn, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	header := http.Header{}
	if credential != "" {
		header.Set("Authorization", "Bearer "+credential)
	}

	ws, resp, err := t.dialer.DialContext(ctx, t.url, header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("dial %s: %w", t.url, ErrUnauthorized)
		}
		return nil, fmt.Errorf("dial %s: %w", t.url, err)
	}

	return NewConn(ws, t.logger), nil
}

// Conn adapts a websocket connection to realtime.Conn.
type Conn struct {
	ws     *websocket.Conn
	logger zerolog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// NewConn wraps an established websocket connection.
func NewConn(ws *websocket.Conn, logger zerolog.Logger) *Conn {
	return &Conn{ws: ws, logger: logger}
}

// ReadFrame returns the next well-formed frame. Malformed messages are logged
// and skipped. A normal close from the peer is reported as wire.ErrServerClosed.
func (c *Conn) ReadFrame() (wire.Frame, error) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return wire.Frame{}, fmt.Errorf("%w: %w", wire.ErrServerClosed, err)
			}
			return wire.Frame{}, err
		}

		var f wire.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Warn().Err(err).Msg("skipping undecodable frame")
			continue
		}
		if err := f.Validate(); err != nil {
			c.logger.Warn().Err(err).Msg("skipping invalid frame")
			continue
		}
		return f, nil
	}
}

// WriteFrame sends f. It is safe for concurrent use.
func (c *Conn) WriteFrame(f wire.Frame) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteJSON(f)
}

// Close sends a normal close message and closes the underlying connection.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		c.writeMu.Unlock()

		err = c.ws.Close()
	})
	return err
}
