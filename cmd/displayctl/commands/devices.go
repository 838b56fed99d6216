package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"git.home.luguber.info/inful/displayctl/internal/orchestrator"
)

// DevicesCmd implements the 'devices' command: enumerate display devices as
// JSON on stdout.
type DevicesCmd struct{}

func (d *DevicesCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	applyLogging(cfg, root.Verbose)

	orch := orchestrator.New(orchestrator.WithStartupRecovery(false))
	if _, err := orch.Init(cfg.Persistence.Path, &cfg.Display); err != nil {
		return err
	}

	devices := orch.EnumAvailableDevices()
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(devices)
}

// MapOutputCmd implements the 'map-output' command.
type MapOutputCmd struct {
	Name string `arg:"" help:"Logical output name to resolve"`
}

func (m *MapOutputCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	applyLogging(cfg, root.Verbose)

	orch := orchestrator.New(orchestrator.WithStartupRecovery(false))
	if _, err := orch.Init(cfg.Persistence.Path, &cfg.Display); err != nil {
		return err
	}

	fmt.Println(orch.MapOutputName(m.Name))
	return nil
}
