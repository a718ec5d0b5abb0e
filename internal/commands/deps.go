package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/ecopulse/internal/core/config"
	"github.com/colonyops/ecopulse/internal/core/logging"
	"github.com/colonyops/ecopulse/internal/core/notify"
	"github.com/colonyops/ecopulse/internal/core/realtime"
	"github.com/colonyops/ecopulse/internal/data/storage"
	"github.com/colonyops/ecopulse/internal/transport/wstransport"
)

// connFlags are the connection overrides shared by commands that talk to a relay.
type connFlags struct {
	url   string
	token string
}

func (f *connFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "url",
			Usage:       "relay websocket URL (overrides server.url)",
			Sources:     cli.EnvVars("ECOPULSE_SERVER_URL"),
			Destination: &f.url,
		},
		&cli.StringFlag{
			Name:        "token",
			Usage:       "bearer token (overrides server.token)",
			Sources:     cli.EnvVars("ECOPULSE_TOKEN"),
			Destination: &f.token,
		},
	}
}

func (f *connFlags) resolve(cfg *config.Config) (url, token string) {
	url, token = cfg.Server.URL, cfg.Server.Token
	if f.url != "" {
		url = f.url
	}
	if f.token != "" {
		token = f.token
	}
	return url, token
}

// openStore opens the configured storage backend and loads the notification list.
func openStore(ctx context.Context, cfg *config.Config) (*notify.Store, func() error, error) {
	st, closeFn, err := storage.New(ctx, cfg.StorageOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	store := notify.NewStore(st, notify.WithLogger(logging.Component("notify")))
	store.Load(ctx)
	return store, closeFn, nil
}

func newManager(cfg *config.Config, url string, policy realtime.Policy) *realtime.Manager {
	transport := wstransport.New(url, cfg.Server.DialTimeout, logging.Component("wstransport"))
	return realtime.NewManager(transport, policy, realtime.WithLogger(logging.Component("realtime")))
}
