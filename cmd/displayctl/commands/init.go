package commands

import (
	"log/slog"
	"os"

	"git.home.luguber.info/inful/displayctl/internal/config"
	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
	"git.home.luguber.info/inful/displayctl/internal/logfields"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite existing configuration file"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if _, err := os.Stat(root.Config); err == nil && !i.Force {
		return ferrors.ConfigError("configuration file already exists, use --force to overwrite").
			WithContext(logfields.KeyPath, root.Config).
			Build()
	}

	if err := config.Default().Save(root.Config); err != nil {
		return err
	}
	slog.Info("Wrote default configuration", logfields.Path(root.Config))
	return nil
}
