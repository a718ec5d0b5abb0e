package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ecopulse/internal/core/notify"
	"github.com/colonyops/ecopulse/internal/tui/bell"
	"github.com/colonyops/ecopulse/pkg/iojson"
)

type NotificationsCmd struct {
	flags *Flags

	// ls flags
	jsonOutput bool
	unreadOnly bool
}

// NewNotificationsCmd creates a new notifications command
func NewNotificationsCmd(flags *Flags) *NotificationsCmd {
	return &NotificationsCmd{flags: flags}
}

// Register adds the notifications command to the application
func (cmd *NotificationsCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:    "notifications",
		Aliases: []string{"n"},
		Usage:   "Inspect and manage stored notifications",
		Description: `Operates on the notification list persisted by 'ecopulse watch'.

The list lives in the configured storage backend under the "notifications" key.`,
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List notifications, newest first",
				UsageText: "ecopulse notifications ls [--json] [--unread]",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON lines",
						Destination: &cmd.jsonOutput,
					},
					&cli.BoolFlag{
						Name:        "unread",
						Usage:       "only show unread notifications",
						Destination: &cmd.unreadOnly,
					},
				},
				Action: cmd.runLs,
			},
			{
				Name:   "unread",
				Usage:  "Print the number of unread notifications",
				Action: cmd.runUnread,
			},
			{
				Name:          "read",
				Usage:         "Mark one notification as read",
				UsageText:     "ecopulse notifications read <id>",
				ShellComplete: cmd.completeIDs,
				Action:        cmd.runRead,
			},
			{
				Name:   "read-all",
				Usage:  "Mark every notification as read",
				Action: cmd.runReadAll,
			},
			{
				Name:   "clear",
				Usage:  "Remove every notification",
				Action: cmd.runClear,
			},
		},
	})

	return app
}

func (cmd *NotificationsCmd) withStore(ctx context.Context, fn func(*notify.Store) error) error {
	store, closeStore, err := openStore(ctx, cmd.flags.Config)
	if err != nil {
		return err
	}
	defer func() { _ = closeStore() }()
	return fn(store)
}

func (cmd *NotificationsCmd) runLs(ctx context.Context, c *cli.Command) error {
	return cmd.withStore(ctx, func(store *notify.Store) error {
		items := store.Notifications()
		if cmd.unreadOnly {
			items = unread(items)
		}

		w := c.Root().Writer
		if cmd.jsonOutput {
			for _, n := range items {
				if err := iojson.WriteLine(w, n); err != nil {
					return err
				}
			}
			return nil
		}

		if len(items) == 0 {
			fmt.Fprintf(os.Stderr, "No notifications\n")
			return nil
		}
		return printNotifications(w, items, time.Now())
	})
}

func unread(items []notify.Notification) []notify.Notification {
	var out []notify.Notification
	for _, n := range items {
		if !n.Read {
			out = append(out, n)
		}
	}
	return out
}

func printNotifications(w io.Writer, items []notify.Notification, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tTITLE\tMESSAGE\tWHEN\t")
	for _, n := range items {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s %s\t%s\t%s\t%s\t%s\t\n", marker, n.ID, n.Kind, n.Title, n.Message, bell.FormatTimeAgo(now, n.CreatedAt))
	}
	return tw.Flush()
}

func (cmd *NotificationsCmd) runUnread(ctx context.Context, c *cli.Command) error {
	return cmd.withStore(ctx, func(store *notify.Store) error {
		_, err := fmt.Fprintln(c.Root().Writer, store.UnreadCount())
		return err
	})
}

func (cmd *NotificationsCmd) runRead(ctx context.Context, c *cli.Command) error {
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("notification id is required")
	}

	return cmd.withStore(ctx, func(store *notify.Store) error {
		if _, ok := store.Get(id); !ok {
			return fmt.Errorf("notification %q not found", id)
		}
		store.MarkAsRead(ctx, id)
		return nil
	})
}

func (cmd *NotificationsCmd) runReadAll(ctx context.Context, _ *cli.Command) error {
	return cmd.withStore(ctx, func(store *notify.Store) error {
		store.MarkAllAsRead(ctx)
		return nil
	})
}

func (cmd *NotificationsCmd) runClear(ctx context.Context, _ *cli.Command) error {
	return cmd.withStore(ctx, func(store *notify.Store) error {
		store.ClearAll(ctx)
		return nil
	})
}
