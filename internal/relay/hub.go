package relay

import (
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Connection is one registered client as seen by the hub.
type Connection interface {
	ID() string
	Send(data []byte) error
	Shutdown(code int, reason string)
}

// Hub tracks connected clients and fans messages out to all of them.
type Hub struct {
	logger zerolog.Logger

	mu      sync.RWMutex
	clients map[string]Connection
}

func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[string]Connection),
	}
}

func (h *Hub) Register(conn Connection) {
	h.mu.Lock()
	h.clients[conn.ID()] = conn
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info().Str("client_id", conn.ID()).Int("clients", count).Msg("client connected")
}

func (h *Hub) Unregister(conn Connection) {
	h.mu.Lock()
	_, ok := h.clients[conn.ID()]
	delete(h.clients, conn.ID())
	count := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.Info().Str("client_id", conn.ID()).Int("clients", count).Msg("client disconnected")
	}
}

// Broadcast sends data to every client. Clients that cannot keep up are shut down.
func (h *Hub) Broadcast(data []byte) {
	h.mu.RLock()
	conns := make([]Connection, 0, len(h.clients))
	for _, c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.Send(data); err != nil {
			h.logger.Warn().Err(err).Str("client_id", c.ID()).Msg("dropping slow client")
			h.Unregister(c)
			c.Shutdown(websocket.ClosePolicyViolation, "too slow")
		}
	}
}

// CloseAll shuts every client down with the given close code.
func (h *Hub) CloseAll(code int, reason string) {
	h.mu.Lock()
	conns := h.clients
	h.clients = make(map[string]Connection)
	h.mu.Unlock()

	for _, c := range conns {
		c.Shutdown(code, reason)
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
