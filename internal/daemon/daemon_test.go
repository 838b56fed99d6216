package daemon

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/displayctl/internal/config"
	"git.home.luguber.info/inful/displayctl/internal/orchestrator"
)

func testDaemonConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Persistence.Path = filepath.Join(t.TempDir(), "state.json")
	cfg.Daemon.WatchConfig = false
	cfg.Daemon.TopologySweepInterval = 0
	return cfg
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New("displayctl.yaml", nil)
	assert.Error(t, err)
}

func TestReloadConfigSwapsActiveConfig(t *testing.T) {
	cfg := testDaemonConfig(t)
	d, err := New("displayctl.yaml", cfg)
	require.NoError(t, err)

	assert.Same(t, cfg, d.CurrentConfig())

	// The test platform has no display backend, so re-init succeeds in
	// pass-through mode.
	newCfg := testDaemonConfig(t)
	newCfg.Display.OutputName = "OUTPUT-2"
	require.NoError(t, d.ReloadConfig(newCfg))
	assert.Same(t, newCfg, d.CurrentConfig())
}

func TestMetricsServerServesScrapeEndpoint(t *testing.T) {
	registry := prom.NewRegistry()
	srv, err := newMetricsServer("127.0.0.1:0", registry)
	require.NoError(t, err)
	srv.Start()
	defer func() { _ = srv.Stop() }()

	base := fmt.Sprintf("http://%s", srv.listener.Addr())

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConfigWatcherReloadsAfterBurstOfWrites(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "displayctl.yaml")

	writeCfg := func(outputName string) {
		cfg := config.Default()
		cfg.Persistence.Path = filepath.Join(dir, "state.json")
		cfg.Display.OutputName = outputName
		require.NoError(t, cfg.Save(configPath))
	}
	writeCfg("OUTPUT-1")

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	d, err := New(configPath, cfg)
	require.NoError(t, err)

	watcher, err := NewConfigWatcher(configPath, d)
	require.NoError(t, err)
	watcher.debounceTime = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, watcher.Start(ctx))
	defer watcher.Stop()

	// A burst of writes collapses into one reload carrying the last content.
	writeCfg("OUTPUT-2")
	writeCfg("OUTPUT-3")

	require.Eventually(t, func() bool {
		return d.CurrentConfig().Display.OutputName == "OUTPUT-3"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestTopologySweeperTracksChanges(t *testing.T) {
	registry := prom.NewRegistry()
	orch := orchestrator.New()

	ts, err := newTopologySweeper(orch, registry, time.Minute)
	require.NoError(t, err)
	defer func() { _ = ts.Stop() }()

	// An uninitialized orchestrator enumerates no devices; repeated sweeps
	// must not report a change.
	ts.sweep()
	ts.sweep()
	ts.mu.Lock()
	assert.Equal(t, "", ts.lastSeen)
	ts.mu.Unlock()
}
