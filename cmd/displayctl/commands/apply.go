package commands

import (
	"git.home.luguber.info/inful/displayctl/internal/display"
	"git.home.luguber.info/inful/displayctl/internal/orchestrator"
)

// ApplyCmd implements the 'apply' command. It applies the configured display
// policy for a session described on the command line and exits, leaving the
// pre-apply state persisted for a later 'revert'.
type ApplyCmd struct {
	Width  int  `help:"Client render width in pixels" default:"1920"`
	Height int  `help:"Client render height in pixels" default:"1080"`
	FPS    int  `help:"Client frame rate" default:"60"`
	SOPS   bool `help:"Client opted into display optimization" default:"true" negatable:""`
	HDR    bool `help:"Client requested HDR"`
}

func (a *ApplyCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	applyLogging(cfg, root.Verbose)

	orch := orchestrator.New(orchestrator.WithStartupRecovery(false))
	if _, err := orch.Init(cfg.Persistence.Path, &cfg.Display); err != nil {
		return err
	}

	session := display.NewSession(a.Width, a.Height, a.FPS, a.SOPS, a.HDR)
	return orch.ConfigureDisplayForSession(&cfg.Display, session)
}
