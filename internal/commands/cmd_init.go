package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/colonyops/ecopulse/internal/core/config"
)

type InitCmd struct {
	flags *Flags
	force bool
}

func NewInitCmd(flags *Flags) *InitCmd {
	return &InitCmd{flags: flags}
}

func (cmd *InitCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "init",
		Usage:     "Write a configuration file with the default settings",
		UsageText: "ecopulse init [--force]",
		Description: `Writes ~/.config/ecopulse/config.yaml (or the path given with --config)
containing every setting at its default value.

Use --force to overwrite existing configuration.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "force",
				Aliases:     []string{"f"},
				Usage:       "overwrite existing configuration",
				Destination: &cmd.force,
			},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *InitCmd) run(_ context.Context, c *cli.Command) error {
	path := cmd.flags.ConfigPath
	backup, err := writeDefaultConfig(path, cmd.force)
	if err != nil {
		return err
	}

	w := c.Root().Writer
	if backup != "" {
		fmt.Fprintf(w, "backed up previous config to %s\n", backup)
	}
	_, err = fmt.Fprintf(w, "wrote %s\n", path)
	return err
}

// writeDefaultConfig writes the default configuration to path. An existing file
// is only replaced when force is set, and is copied to path+".bak" first. The
// backup path is returned when one was made.
func writeDefaultConfig(path string, force bool) (string, error) {
	var backup string
	if _, err := os.Stat(path); err == nil {
		if !force {
			return "", fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if backup, err = backupConfig(path); err != nil {
			return "", err
		}
	}

	data, err := yaml.Marshal(config.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return backup, nil
}

func backupConfig(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read existing config: %w", err)
	}

	backupPath := path + ".bak"
	if err := os.WriteFile(backupPath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	return backupPath, nil
}
