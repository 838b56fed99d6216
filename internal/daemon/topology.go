package daemon

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
	"git.home.luguber.info/inful/displayctl/internal/logfields"
	"git.home.luguber.info/inful/displayctl/internal/orchestrator"
)

// topologySweeper periodically re-enumerates display devices so hotplug
// events show up in the logs and metrics even when no session is active.
type topologySweeper struct {
	orch      *orchestrator.Orchestrator
	scheduler gocron.Scheduler

	deviceCount  prom.Gauge
	topologyGens prom.Counter

	mu       sync.Mutex
	lastSeen string
}

func newTopologySweeper(orch *orchestrator.Orchestrator, registry *prom.Registry, interval time.Duration) (*topologySweeper, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.DaemonError("failed to create sweep scheduler").WithContext(logfields.KeyError, err.Error()).Build()
	}

	ts := &topologySweeper{
		orch:      orch,
		scheduler: s,
		deviceCount: prom.NewGauge(prom.GaugeOpts{
			Namespace: "displayctl",
			Name:      "display_devices",
			Help:      "Number of display devices currently enumerable",
		}),
		topologyGens: prom.NewCounter(prom.CounterOpts{
			Namespace: "displayctl",
			Name:      "topology_changes_total",
			Help:      "Detected display topology changes",
		}),
	}
	registry.MustRegister(ts.deviceCount, ts.topologyGens)

	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(ts.sweep),
		gocron.WithName("topology-sweep"),
	); err != nil {
		_ = s.Shutdown()
		return nil, ferrors.DaemonError("failed to schedule topology sweep").WithContext(logfields.KeyError, err.Error()).Build()
	}
	return ts, nil
}

func (ts *topologySweeper) Start() {
	slog.Info("Starting topology sweep")
	ts.scheduler.Start()
}

func (ts *topologySweeper) Stop() error {
	return ts.scheduler.Shutdown()
}

// sweep compares the current device set against the previous one and logs a
// diff line when the topology changed.
func (ts *topologySweeper) sweep() {
	devices := ts.orch.EnumAvailableDevices()
	ts.deviceCount.Set(float64(len(devices)))

	ids := make([]string, 0, len(devices))
	for _, d := range devices {
		state := "inactive"
		if d.Active {
			state = "active"
		}
		ids = append(ids, d.ID+"("+state+")")
	}
	sort.Strings(ids)
	fingerprint := strings.Join(ids, ",")

	ts.mu.Lock()
	changed := ts.lastSeen != "" && ts.lastSeen != fingerprint
	first := ts.lastSeen == ""
	ts.lastSeen = fingerprint
	ts.mu.Unlock()

	if first {
		slog.Debug("Topology sweep baseline", slog.Int("devices", len(devices)))
		return
	}
	if changed {
		ts.topologyGens.Inc()
		slog.Info("Display topology changed", slog.Int("devices", len(devices)), slog.String("topology", fingerprint))
	}
}
