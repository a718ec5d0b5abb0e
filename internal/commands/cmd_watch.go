package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/ecopulse/internal/core/logging"
	"github.com/colonyops/ecopulse/internal/core/notify"
	"github.com/colonyops/ecopulse/internal/core/pickup"
	"github.com/colonyops/ecopulse/internal/core/realtime"
	"github.com/colonyops/ecopulse/internal/tui/bell"
	"github.com/colonyops/ecopulse/pkg/iojson"
	"github.com/colonyops/ecopulse/pkg/logutils"
)

type WatchCmd struct {
	flags *Flags
	conn  connFlags

	// flags
	events []string
	tui    bool
}

// NewWatchCmd creates a new watch command
func NewWatchCmd(flags *Flags) *WatchCmd {
	return &WatchCmd{flags: flags}
}

// Register adds the watch command to the application
func (cmd *WatchCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "watch",
		Usage:     "Connect to the relay and follow live events",
		UsageText: "ecopulse watch [--event GLOB]... [--tui]",
		Description: `Connects to the relay, records incoming events as notifications, and
reconnects with exponential backoff when the connection drops.

By default every matching event is printed to stdout as one JSON object per line.
Use --tui for the interactive notification bell.`,
		Flags: append(cmd.conn.flags(),
			&cli.StringSliceFlag{
				Name:        "event",
				Aliases:     []string{"e"},
				Usage:       "only print events whose name matches `GLOB` (repeatable)",
				Value:       []string{"*"},
				Destination: &cmd.events,
			},
			&cli.BoolFlag{
				Name:        "tui",
				Usage:       "show the interactive notification bell",
				Destination: &cmd.tui,
			},
		),
		Action: cmd.run,
	})

	return app
}

// watchedEvents lists every event the client knows how to receive.
func watchedEvents() []string {
	return append(pickup.DomainEvents(),
		realtime.EventConnection,
		realtime.EventDisconnect,
		realtime.EventConnectError,
		realtime.EventReconnectAttempt,
		realtime.EventReconnectFailed,
	)
}

// matchEvents returns the events matching any of patterns.
func matchEvents(patterns, events []string) ([]string, error) {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid event pattern %q", p)
		}
	}

	var out []string
	for _, e := range events {
		if slices.ContainsFunc(patterns, func(p string) bool {
			ok, _ := doublestar.Match(p, e)
			return ok
		}) {
			out = append(out, e)
		}
	}
	return out, nil
}

// eventLine is one line of watch output.
type eventLine struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func (cmd *WatchCmd) run(ctx context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config

	events, err := matchEvents(cmd.events, watchedEvents())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.tui && cmd.flags.LogFile == "" {
		// stderr belongs to the terminal UI until it exits
		held := &logutils.Deferred{}
		prev := log.Logger
		log.Logger = log.Logger.Output(held)
		defer func() {
			log.Logger = prev
			_ = held.Flush(logutils.Stderr())
		}()
	}

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()

	url, token := cmd.conn.resolve(cfg)
	mgr := newManager(cfg, url, cfg.Policy())
	go mgr.Start(ctx)
	defer mgr.Close()

	router := notify.NewRouter(store, mgr, logging.Component("router"))
	router.Register()
	defer router.Close()

	if cmd.tui {
		return cmd.runTUI(ctx, store, mgr, token)
	}

	stream(c.Root().Writer, mgr, events)

	log.Info().Str("url", url).Strs("events", events).Msg("watching")
	mgr.Connect(ctx, token)
	<-ctx.Done()
	return nil
}

// stream writes every delivery of events to w. Deliveries are serialized by the
// manager, so w needs no locking.
func stream(w io.Writer, sub bell.Subscriber, events []string) {
	for _, event := range events {
		sub.Subscribe(event, func(payload json.RawMessage) {
			line := eventLine{Time: time.Now(), Event: event, Data: payload}
			if err := iojson.WriteLine(w, line); err != nil {
				log.Error().Err(err).Str("event", event).Msg("failed to write event")
			}
		})
	}
}

func (cmd *WatchCmd) runTUI(ctx context.Context, store *notify.Store, mgr *realtime.Manager, token string) error {
	m := bell.New(ctx, store, mgr)
	p := tea.NewProgram(m, tea.WithContext(ctx))

	unbind := bell.Bind(p, store, mgr)
	defer unbind()

	go mgr.Connect(ctx, token)

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
