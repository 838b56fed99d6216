package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/displayctl/internal/config"
	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
	"git.home.luguber.info/inful/displayctl/internal/logfields"
)

// ConfigWatcher monitors the configuration file and reloads the daemon on
// changes. Events are debounced since editors tend to produce bursts of
// writes and renames.
type ConfigWatcher struct {
	configPath   string
	daemon       *Daemon
	watcher      *fsnotify.Watcher
	stopOnce     sync.Once
	stopChan     chan struct{}
	reloadChan   chan struct{}
	debounceTime time.Duration
}

// NewConfigWatcher creates a watcher for the given config file path.
func NewConfigWatcher(configPath string, daemon *Daemon) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.DaemonError("failed to create file watcher").WithContext(logfields.KeyError, err.Error()).Build()
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		_ = watcher.Close()
		return nil, ferrors.DaemonError("failed to resolve config path").WithContext(logfields.KeyPath, configPath).Build()
	}

	return &ConfigWatcher{
		configPath:   absPath,
		daemon:       daemon,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		reloadChan:   make(chan struct{}, 1),
		debounceTime: 2 * time.Second,
	}, nil
}

// Start begins monitoring. Watching the parent directory survives
// rename-based saves where watching the file itself would not.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	configDir := filepath.Dir(cw.configPath)
	if err := cw.watcher.Add(configDir); err != nil {
		return ferrors.DaemonError("failed to watch config directory").WithContext(logfields.KeyPath, configDir).Build()
	}

	slog.Info("Starting configuration watcher", logfields.Path(cw.configPath))
	go cw.watchLoop(ctx)
	go cw.reloadLoop(ctx)
	return nil
}

// Stop terminates the watcher goroutines.
func (cw *ConfigWatcher) Stop() {
	cw.stopOnce.Do(func() {
		close(cw.stopChan)
		if err := cw.watcher.Close(); err != nil {
			slog.Error("Error closing file watcher", logfields.Error(err))
		}
	})
}

func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	configFile := filepath.Base(cw.configPath)

	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFile {
				continue
			}
			switch {
			case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Create), event.Op.Has(fsnotify.Rename):
				slog.Debug("Config file change detected", logfields.Path(event.Name))
				cw.triggerReload()
			case event.Op.Has(fsnotify.Remove):
				slog.Warn("Config file removed", logfields.Path(event.Name))
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", logfields.Error(err))
		}
	}
}

func (cw *ConfigWatcher) reloadLoop(ctx context.Context) {
	var reloadTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			return
		case <-cw.stopChan:
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			return
		case <-cw.reloadChan:
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(cw.debounceTime, func() {
				if err := cw.performReload(); err != nil {
					slog.Error("Failed to reload configuration", logfields.Error(err))
				}
			})
		}
	}
}

func (cw *ConfigWatcher) triggerReload() {
	select {
	case cw.reloadChan <- struct{}{}:
	default:
		// Reload already pending.
	}
}

func (cw *ConfigWatcher) performReload() error {
	slog.Info("Reloading configuration", logfields.Path(cw.configPath))

	newCfg, err := config.Load(cw.configPath)
	if err != nil {
		return err
	}
	return cw.daemon.ReloadConfig(newCfg)
}
