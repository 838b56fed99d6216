package commands

import (
	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
	"git.home.luguber.info/inful/displayctl/internal/orchestrator"
)

// RevertCmd implements the 'revert' command: a single synchronous revert
// attempt, with a nonzero exit when the display API refused the restore.
type RevertCmd struct{}

func (r *RevertCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	applyLogging(cfg, root.Verbose)

	orch := orchestrator.New(orchestrator.WithStartupRecovery(false))
	if _, err := orch.Init(cfg.Persistence.Path, &cfg.Display); err != nil {
		return err
	}

	if !orch.TryRevert() {
		return ferrors.DisplayError("failed to revert display configuration, try again or run 'displayctl reset' to discard the saved state").Build()
	}
	return nil
}
