package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/ecopulse/internal/core/realtime"
	"github.com/colonyops/ecopulse/internal/tui/jsoncolor"
	"github.com/colonyops/ecopulse/pkg/iojson"
)

type EmitCmd struct {
	flags *Flags
	conn  connFlags
	input iojson.FileReader[json.RawMessage]

	// flags
	timeout time.Duration
}

// NewEmitCmd creates a new emit command
func NewEmitCmd(flags *Flags) *EmitCmd {
	return &EmitCmd{flags: flags}
}

// Register adds the emit command to the application
func (cmd *EmitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "emit",
		Usage:     "Send one command to the relay and print its acknowledgement",
		UsageText: "ecopulse emit <event> [json] [-f file]",
		Description: `Connects once, sends <event> with the given JSON payload, and waits for
the relay to acknowledge it. The payload is read from the second argument,
from --file, or from stdin.

Examples:
  ecopulse emit request:create '{"customerName":"Ama","location":"12 Ring Road","wasteType":"plastic"}'
  ecopulse emit request:update_status '{"id":"REQ-1a2b3c4d","status":"completed"}'
  echo '{}' | ecopulse emit request:list`,
		Flags: append(cmd.conn.flags(),
			cmd.input.Flag(),
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "how long to wait for the connection and the acknowledgement",
				Value:       10 * time.Second,
				Destination: &cmd.timeout,
			},
		),
		Action: cmd.run,
	})

	return app
}

func (cmd *EmitCmd) run(ctx context.Context, c *cli.Command) error {
	event := c.Args().Get(0)
	if event == "" {
		return fmt.Errorf("event name is required")
	}

	payload, err := cmd.input.Read(c.Args().Get(1))
	if err != nil {
		return fmt.Errorf("read payload: %w", err)
	}

	cfg := cmd.flags.Config
	url, token := cmd.conn.resolve(cfg)

	ctx, cancel := context.WithTimeout(ctx, cmd.timeout)
	defer cancel()

	// A one-shot command never retries in the background.
	policy := cfg.Policy()
	policy.MaxAttempts = 0

	mgr := newManager(cfg, url, policy)
	go mgr.Start(ctx)
	defer mgr.Close()

	connectErr := make(chan string, 1)
	mgr.Subscribe(realtime.EventConnectError, func(p json.RawMessage) {
		e, _ := realtime.Decode[realtime.ConnectErrorPayload](p)
		select {
		case connectErr <- e.Message:
		default:
		}
	})

	mgr.Connect(ctx, token)
	if !mgr.IsConnected() {
		select {
		case msg := <-connectErr:
			return fmt.Errorf("connect to %s: %s", url, msg)
		case <-ctx.Done():
			return fmt.Errorf("connect to %s: %w", url, ctx.Err())
		}
	}

	ack, err := mgr.Emit(ctx, event, payload)
	if err != nil {
		var ackErr *realtime.AckError
		if errors.As(err, &ackErr) {
			_ = iojson.WriteError(ackErr.Message, map[string]any{"event": ackErr.Event, "code": ackErr.Code})
		}
		return err
	}

	if len(ack) == 0 {
		ack = json.RawMessage("null")
	}

	w := c.Root().Writer
	if isTerminal(w) {
		_, err := fmt.Fprintln(w, jsoncolor.Colorize(ack))
		return err
	}
	return iojson.WriteWith(w, c.Root().ErrWriter, ack)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
