package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ecopulse/internal/core/notify"
)

// completeIDs suggests unread notification ids as positional completions.
//
// When the user's last typed argument starts with "-", it falls back to the
// default flag completion behavior.
func (cmd *NotificationsCmd) completeIDs(ctx context.Context, c *cli.Command) {
	// Delegate to default flag completion when typing a flag
	if args := c.Args(); args.Present() {
		last := args.Slice()[args.Len()-1]
		if len(last) > 0 && last[0] == '-' {
			cli.DefaultCompleteWithFlags(ctx, c)
			return
		}
	}

	if cmd.flags.Config == nil {
		return
	}

	_ = cmd.withStore(ctx, func(store *notify.Store) error {
		w := c.Root().Writer
		for _, n := range unread(store.Notifications()) {
			_, _ = fmt.Fprintln(w, n.ID)
		}
		return nil
	})
}
