// Package relay is a development server for ecopulse clients. It authenticates
// websocket clients by bearer token, executes pickup-request commands against an
// in-memory book, acknowledges each command, and broadcasts the resulting domain
// events to every connected client.
package relay

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/colonyops/ecopulse/internal/core/pickup"
	"github.com/colonyops/ecopulse/pkg/wire"
)

// Options configures the relay.
type Options struct {
	Listen string
	Path   string
	// Tokens lists accepted bearer tokens. Empty disables authentication.
	Tokens []string
}

// Server accepts websocket clients and relays pickup-request traffic between them.
type Server struct {
	opts     Options
	book     *pickup.Book
	hub      *Hub
	handler  *Handler
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

func NewServer(opts Options, book *pickup.Book, logger zerolog.Logger) *Server {
	if opts.Path == "" {
		opts.Path = "/ws"
	}
	return &Server{
		opts:    opts,
		book:    book,
		hub:     NewHub(logger),
		handler: NewHandler(book, logger),
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP routes: the websocket endpoint and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.opts.Path, s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Hub exposes the connected-client registry.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Publish broadcasts an event to every connected client.
func (s *Server) Publish(event string, payload any) error {
	f, err := wire.Event(event, payload)
	if err != nil {
		return err
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	s.hub.Broadcast(data)
	return nil
}

// ListenAndServe serves until ctx is cancelled, then closes every client with
// "going away" and shuts the HTTP server down.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Str("path", s.opts.Path).Msg("relay listening")
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("relay shutting down")
	s.hub.CloseAll(websocket.CloseGoingAway, "server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.logger.Warn().Str("remote", r.RemoteAddr).Msg("rejected handshake")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error().Err(err).Msg("upgrade error")
		return
	}

	id := uuid.NewString()
	c := newClient(id, ws, s.hub, s.handler, s.logger)
	c.start()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":   "ok",
		"clients":  s.hub.Len(),
		"requests": s.book.Len(),
	})
}

func (s *Server) authorized(r *http.Request) bool {
	if len(s.opts.Tokens) == 0 {
		return true
	}

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return false
	}

	for _, allowed := range s.opts.Tokens {
		if subtle.ConstantTimeCompare([]byte(token), []byte(allowed)) == 1 {
			return true
		}
	}
	return false
}
