package commands

import (
	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
	"git.home.luguber.info/inful/displayctl/internal/orchestrator"
)

// ResetCmd implements the 'reset' command. It drops the persisted pre-apply
// state, for when the user has already fixed the display manually.
type ResetCmd struct{}

func (r *ResetCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	applyLogging(cfg, root.Verbose)

	orch := orchestrator.New(orchestrator.WithStartupRecovery(false))
	if _, err := orch.Init(cfg.Persistence.Path, &cfg.Display); err != nil {
		return err
	}

	if !orch.ResetPersistence() {
		return ferrors.PersistenceError("failed to reset persisted display state").Build()
	}
	return nil
}
