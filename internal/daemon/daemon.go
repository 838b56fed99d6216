// Package daemon runs displayctl as a long-lived service: it keeps the
// display orchestrator initialized, re-initializes on config changes,
// periodically sweeps the display topology for hotplug events and exposes
// Prometheus metrics.
package daemon

import (
	"context"
	"log/slog"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"git.home.luguber.info/inful/displayctl/internal/config"
	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
	"git.home.luguber.info/inful/displayctl/internal/logfields"
	"git.home.luguber.info/inful/displayctl/internal/metrics"
	"git.home.luguber.info/inful/displayctl/internal/orchestrator"
)

// Daemon wires the orchestrator to its runtime services.
type Daemon struct {
	mu         sync.Mutex
	cfg        *config.Config
	configPath string

	orch   *orchestrator.Orchestrator
	deinit orchestrator.DeinitFunc

	registry *prom.Registry
	sweeper  *topologySweeper
	httpSrv  *metricsServer
	watcher  *ConfigWatcher
}

// New creates a daemon for the given loaded configuration. configPath is
// watched for changes when daemon.watch_config is enabled.
func New(configPath string, cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, ferrors.DaemonError("configuration is required").Build()
	}

	registry := prom.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	orch := orchestrator.New(orchestrator.WithRecorder(metrics.NewPrometheusRecorder(registry)))

	return &Daemon{
		cfg:        cfg,
		configPath: configPath,
		orch:       orch,
		registry:   registry,
	}, nil
}

// Orchestrator exposes the daemon's orchestrator (used by tests and the
// topology sweeper).
func (d *Daemon) Orchestrator() *orchestrator.Orchestrator {
	return d.orch
}

// Run initializes the orchestrator and blocks until ctx is cancelled, then
// tears everything down. The revert of any applied configuration happens in
// the deinit path.
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	cfg := d.cfg
	d.mu.Unlock()

	deinit, err := d.orch.Init(cfg.Persistence.Path, &cfg.Display)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.deinit = deinit
	d.mu.Unlock()

	if cfg.Daemon.MetricsListenAddr != "" {
		srv, err := newMetricsServer(cfg.Daemon.MetricsListenAddr, d.registry)
		if err != nil {
			return err
		}
		d.httpSrv = srv
		d.httpSrv.Start()
	}

	if cfg.Daemon.TopologySweepInterval > 0 {
		sweeper, err := newTopologySweeper(d.orch, d.registry, cfg.Daemon.TopologySweepInterval.Std())
		if err != nil {
			return err
		}
		d.sweeper = sweeper
		d.sweeper.Start()
	}

	if cfg.Daemon.WatchConfig && d.configPath != "" {
		watcher, err := NewConfigWatcher(d.configPath, d)
		if err != nil {
			// Watching is best-effort; the daemon still runs without it.
			slog.Warn("Failed to create config watcher", logfields.Error(err))
		} else {
			d.watcher = watcher
			if err := watcher.Start(ctx); err != nil {
				slog.Warn("Failed to start config watcher", logfields.Error(err))
			}
		}
	}

	slog.Info("Daemon started", logfields.Path(d.configPath))
	<-ctx.Done()
	return d.shutdown()
}

func (d *Daemon) shutdown() error {
	slog.Info("Daemon shutting down")

	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.sweeper != nil {
		if err := d.sweeper.Stop(); err != nil {
			slog.Error("Failed to stop topology sweeper", logfields.Error(err))
		}
	}
	if d.httpSrv != nil {
		if err := d.httpSrv.Stop(); err != nil {
			slog.Error("Failed to stop metrics server", logfields.Error(err))
		}
	}

	d.mu.Lock()
	deinit := d.deinit
	d.deinit = nil
	d.mu.Unlock()
	if deinit != nil {
		deinit()
	}
	return nil
}

// CurrentConfig returns the active configuration.
func (d *Daemon) CurrentConfig() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// ReloadConfig re-initializes the orchestrator with a new configuration.
// Daemon-level settings (metrics address, sweep interval) require a restart
// and are left untouched.
func (d *Daemon) ReloadConfig(newCfg *config.Config) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	deinit, err := d.orch.Init(newCfg.Persistence.Path, &newCfg.Display)
	if err != nil {
		return err
	}

	d.cfg = newCfg
	d.deinit = deinit
	slog.Info("Configuration reloaded, orchestrator re-initialized")
	return nil
}
