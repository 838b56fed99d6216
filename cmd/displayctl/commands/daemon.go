package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/displayctl/internal/config"
	"git.home.luguber.info/inful/displayctl/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct{}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return err
	}
	applyLogging(cfg, root.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dm, err := daemon.New(root.Config, cfg)
	if err != nil {
		return err
	}
	return dm.Run(ctx)
}
