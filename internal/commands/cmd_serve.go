package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/ecopulse/internal/core/logging"
	"github.com/colonyops/ecopulse/internal/core/pickup"
	"github.com/colonyops/ecopulse/internal/profiler"
	"github.com/colonyops/ecopulse/internal/relay"
)

type ServeCmd struct {
	flags *Flags

	// flags
	listen string
	path   string
	pprof  string
}

// NewServeCmd creates a new serve command
func NewServeCmd(flags *Flags) *ServeCmd {
	return &ServeCmd{flags: flags}
}

// Register adds the serve command to the application
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the development relay",
		UsageText: "ecopulse serve [--listen ADDR] [--path PATH]",
		Description: `Runs a websocket relay that keeps pickup requests in memory, acknowledges
commands, and broadcasts request events to every connected client.

Clients authenticate with one of relay.tokens. With no tokens configured every
client is accepted.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "listen",
				Usage:       "address to listen on (overrides relay.listen)",
				Sources:     cli.EnvVars("ECOPULSE_RELAY_LISTEN"),
				Destination: &cmd.listen,
			},
			&cli.StringFlag{
				Name:        "path",
				Usage:       "websocket endpoint path (overrides relay.path)",
				Destination: &cmd.path,
			},
			&cli.StringFlag{
				Name:        "pprof",
				Usage:       "serve pprof handlers on `ADDR` (e.g., localhost:6060)",
				Sources:     cli.EnvVars("ECOPULSE_PPROF"),
				Destination: &cmd.pprof,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) options() relay.Options {
	cfg := cmd.flags.Config
	opts := relay.Options{
		Listen: cfg.Relay.Listen,
		Path:   cfg.Relay.Path,
		Tokens: cfg.Relay.Tokens,
	}
	if cmd.listen != "" {
		opts.Listen = cmd.listen
	}
	if cmd.path != "" {
		opts.Path = cmd.path
	}
	return opts
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, w := range cmd.flags.Config.Warnings() {
		log.Warn().Str("category", w.Category).Str("item", w.Item).Msg(w.Message)
	}

	if cmd.pprof != "" {
		prof := profiler.New(cmd.pprof, logging.Component("profiler"))
		if err := prof.Start(ctx); err != nil {
			return fmt.Errorf("failed to start profiler: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := prof.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown profiler server")
			}
		}()
	}

	srv := relay.NewServer(cmd.options(), pickup.NewBook(), logging.Component("relay"))
	return srv.ListenAndServe(ctx)
}
