package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/ecopulse/internal/core/config"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "ecopulse config validate [options]",
				Description: "Validates the configuration file, checking the server URL, reconnect policy, storage backend, and relay settings.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

// ValidationError is one invalid configuration field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// validationErrors flattens err into per-field errors.
func validationErrors(err error) []ValidationError {
	if err == nil {
		return nil
	}

	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationError{{Message: err.Error()}}
	}

	out := make([]ValidationError, len(fieldErrs))
	for i, fe := range fieldErrs {
		out[i] = ValidationError{Field: fe.Field, Message: fe.Err.Error()}
	}
	return out
}

func (cmd *ConfigValidateCmd) run(_ context.Context, c *cli.Command) error {
	cfg := cmd.flags.Config
	errs := validationErrors(cfg.ValidateDeep(cmd.flags.ConfigPath))
	warnings := cfg.Warnings()

	w := c.Root().Writer
	if cmd.format == "json" {
		if err := outputValidationJSON(w, errs, warnings); err != nil {
			return err
		}
	} else {
		outputValidationText(w, errs, warnings)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration has %d error(s)", len(errs))
	}
	return nil
}

func outputValidationJSON(w io.Writer, errs []ValidationError, warnings []config.ValidationWarning) error {
	out := struct {
		Valid    bool                       `json:"valid"`
		Errors   []ValidationError          `json:"errors,omitempty"`
		Warnings []config.ValidationWarning `json:"warnings,omitempty"`
	}{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warnings,
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func outputValidationText(w io.Writer, errs []ValidationError, warnings []config.ValidationWarning) {
	for _, e := range errs {
		if e.Field == "" {
			fmt.Fprintf(w, "error: %s\n", e.Message)
			continue
		}
		fmt.Fprintf(w, "error: %s: %s\n", e.Field, e.Message)
	}

	for _, warn := range warnings {
		item := warn.Category
		if warn.Item != "" {
			item += " " + warn.Item
		}
		fmt.Fprintf(w, "warning: %s: %s\n", item, warn.Message)
	}

	if len(errs) == 0 {
		fmt.Fprintln(w, "configuration is valid")
	}
}
