package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/displayctl/internal/config"
	"git.home.luguber.info/inful/displayctl/internal/logfields"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags - used by commands that need access to root config.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"displayctl.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Apply     ApplyCmd     `cmd:"" help:"Apply display configuration for a streaming session"`
	Revert    RevertCmd    `cmd:"" help:"Revert to the display state captured before the last apply"`
	Reset     ResetCmd     `cmd:"" help:"Discard the persisted pre-apply display state"`
	Devices   DevicesCmd   `cmd:"" help:"List available display devices"`
	MapOutput MapOutputCmd `cmd:"" help:"Resolve a logical output name to the OS display name"`
	Daemon    DaemonCmd    `cmd:"" help:"Run as a long-lived service with config watching and metrics"`
	Init      InitCmd      `cmd:"" help:"Write a default configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configuration file, falling back to defaults when the
// file does not exist so one-shot commands work without any setup.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Debug("Configuration file not found, using defaults", logfields.Path(path))
		return config.Default(), nil
	}
	return config.Load(path)
}

// applyLogging reconfigures the default logger from file config unless the
// verbose flag already forced debug logging.
func applyLogging(cfg *config.Config, verbose bool) {
	if verbose {
		return
	}
	opts := &slog.HandlerOptions{Level: cfg.Logging.Level.SlogLevel()}
	var handler slog.Handler
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
