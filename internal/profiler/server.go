// Package profiler serves the net/http/pprof handlers on a side listener so a
// running relay can be profiled without exposing them on the websocket port.
package profiler

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/rs/zerolog"
)

type Server struct {
	httpServer *http.Server
	listener   net.Listener
	addr       string
	logger     zerolog.Logger
}

// New creates a profiler that will listen on addr, for example "localhost:6060".
// Port 0 picks a free port.
func New(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return &Server{
		httpServer: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		addr:   addr,
		logger: logger,
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("profiler listen: %w", err)
	}
	s.listener = listener

	s.logger.Info().
		Str("url", fmt.Sprintf("http://%s/debug/pprof/", listener.Addr())).
		Msg("profiler endpoint available")

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("profiler server failed")
		}
	}()
	return nil
}

func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Debug().Msg("shutting down profiler server")
	return s.httpServer.Shutdown(ctx)
}
