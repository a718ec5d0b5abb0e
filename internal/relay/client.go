package relay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/colonyops/ecopulse/internal/core/logging"
	"github.com/colonyops/ecopulse/pkg/wire"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 256
)

var errSlowClient = errors.New("send buffer full")

type client struct {
	id      string
	ws      *websocket.Conn
	hub     *Hub
	handler *Handler
	logger  zerolog.Logger

	send chan []byte
	done chan struct{}

	closeOnce   sync.Once
	closeCode   int
	closeReason string
}

func newClient(id string, ws *websocket.Conn, hub *Hub, handler *Handler, logger zerolog.Logger) *client {
	return &client{
		id:      id,
		ws:      ws,
		hub:     hub,
		handler: handler,
		logger:  logger,
		send:    make(chan []byte, sendBuffer),
		done:    make(chan struct{}),
	}
}

func (c *client) ID() string { return c.id }

func (c *client) Send(data []byte) error {
	select {
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return errSlowClient
	}
}

// Shutdown asks the write pump to send a close frame with code and stop.
func (c *client) Shutdown(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		close(c.done)
	})
}

func (c *client) start() {
	c.hub.Register(c)
	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.Shutdown(websocket.CloseNormalClosure, "")
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := logging.WithClientID(context.Background(), c.id)

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn().Ctx(ctx).Err(err).Msg("read error")
			}
			return
		}

		var f wire.Frame
		if err := json.Unmarshal(data, &f); err != nil {
			c.logger.Warn().Ctx(ctx).Err(err).Msg("undecodable frame")
			continue
		}
		if err := f.Validate(); err != nil || f.Type != wire.TypeEmit {
			c.logger.Warn().Ctx(ctx).Str("type", string(f.Type)).Msg("ignoring frame")
			continue
		}

		c.dispatch(logging.WithEvent(ctx, f.Event), f)
	}
}

func (c *client) dispatch(ctx context.Context, f wire.Frame) {
	res := c.handler.Handle(f)
	if res.Ack.Error != nil {
		c.logger.Info().Ctx(ctx).Str("code", res.Ack.Error.Code).Msg("command rejected")
	} else {
		c.logger.Debug().Ctx(ctx).Msg("command handled")
	}

	if data, err := json.Marshal(res.Ack); err == nil {
		if err := c.Send(data); err != nil {
			c.logger.Warn().Ctx(ctx).Err(err).Msg("ack not delivered")
		}
	}

	for _, ev := range res.Events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		c.hub.Broadcast(data)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.flush()
			msg := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
			_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}

// flush writes whatever is still queued so a closing client sees acks and
// events sent before the close.
func (c *client) flush() {
	for {
		select {
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}
