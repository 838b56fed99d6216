// Package orchestrator coordinates display configuration lifecycle: applying
// a session's configuration with retry on transient API failures, reverting
// it afterwards, and surviving restarts via persisted pre-change state.
package orchestrator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"git.home.luguber.info/inful/displayctl/internal/config"
	"git.home.luguber.info/inful/displayctl/internal/display"
	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
	"git.home.luguber.info/inful/displayctl/internal/logfields"
	"git.home.luguber.info/inful/displayctl/internal/metrics"
	"git.home.luguber.info/inful/displayctl/internal/scheduler"
	"git.home.luguber.info/inful/displayctl/internal/settings"
)

// DefaultRetryInterval is the delay between retry attempts for apply and
// revert tasks.
const DefaultRetryInterval = 5 * time.Second

// ManagerFactory constructs the settings manager for a given persistence
// path and policy. Swappable for tests.
type ManagerFactory func(persistencePath string, policy *config.DisplayPolicy) (settings.Manager, error)

// DeinitFunc tears down a successful Init: it reverts any active
// configuration once and releases the settings manager.
type DeinitFunc func()

type revertOption int

const (
	revertTryOnce revertOption = iota
	revertTryIndefinitely
	revertTryIndefinitelyWithDelay
)

// Orchestrator owns the settings manager behind a retry scheduler. On
// unsupported platforms the manager is absent and every operation degrades
// to a harmless no-op (MapOutputName becomes the identity).
type Orchestrator struct {
	mu          sync.Mutex
	sched       *scheduler.RetryScheduler[settings.Manager]
	revertDelay time.Duration

	retryInterval   time.Duration
	factory         ManagerFactory
	rec             metrics.Recorder
	startupRecovery bool
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithManagerFactory overrides how the settings manager is built.
func WithManagerFactory(f ManagerFactory) Option {
	return func(o *Orchestrator) { o.factory = f }
}

// WithRecorder injects a metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if rec != nil {
			o.rec = rec
		}
	}
}

// WithRetryInterval overrides the retry interval (tests use a short one).
func WithRetryInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.retryInterval = d
		}
	}
}

// WithStartupRecovery controls whether Init reverts leftover persisted state
// from a previous run. The daemon wants this; one-shot CLI invocations that
// intentionally leave a configuration applied between runs do not.
func WithStartupRecovery(enabled bool) Option {
	return func(o *Orchestrator) { o.startupRecovery = enabled }
}

// New creates an uninitialized orchestrator. Call Init before use; until
// then all operations behave as on an unsupported platform.
func New(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		retryInterval:   DefaultRetryInterval,
		factory:         settings.NewPlatformManager,
		rec:             metrics.NoopRecorder{},
		startupRecovery: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Init builds the settings manager and recovers any configuration left over
// from a previous run. Re-init is supported: the previous manager is cleaned
// up first. On an unsupported platform Init succeeds and the orchestrator
// stays in pass-through mode.
func (o *Orchestrator) Init(persistencePath string, policy *config.DisplayPolicy) (DeinitFunc, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Cleanup before replacing the manager so a previous instance never
	// leaves an applied configuration behind.
	o.revertLocked(revertTryOnce)
	o.dropManagerLocked()

	mgr, err := o.factory(persistencePath, policy)
	if err != nil {
		if errors.Is(err, settings.ErrPlatformUnsupported) {
			slog.Info("Display configuration is not supported on this platform, running in pass-through mode")
			return func() {}, nil
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryDisplay, "failed to initialize display settings manager").Build()
	}

	o.sched = scheduler.New(mgr)
	o.revertDelay = policy.ConfigRevertDelay.Std()

	devices := scheduler.Execute(o.sched, func(m settings.Manager) []settings.DeviceInfo {
		return m.EnumAvailableDevices()
	})
	if payload, err := json.MarshalIndent(devices, "", "  "); err == nil {
		slog.Info("Currently available display devices:\n" + string(payload))
	} else {
		slog.Error("Failed to serialize available display devices", logfields.Error(err))
	}

	// A revert that did not complete before the previous shutdown is still
	// pending in the persistence store; pick it up now. The first attempt
	// runs synchronously, the revert delay applies only to session-end
	// reverts.
	if o.startupRecovery {
		o.revertLocked(revertTryIndefinitely)
	}

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.revertLocked(revertTryOnce)
		o.dropManagerLocked()
	}, nil
}

// dropManagerLocked requires o.mu to be held.
func (o *Orchestrator) dropManagerLocked() {
	if o.sched == nil {
		return
	}
	o.sched.Stop()
	o.sched = nil
	o.revertDelay = 0
}

// ConfigureDisplayForSession parses the policy against the session and acts
// on the outcome: a parsed configuration is applied, a disabled policy
// reverts any active configuration, and a parse failure leaves the display
// untouched.
func (o *Orchestrator) ConfigureDisplayForSession(policy *config.DisplayPolicy, session display.Session) error {
	switch result := display.ParseConfiguration(policy, session).(type) {
	case display.ParsedConfiguration:
		return o.ConfigureDisplay(result.Config)
	case display.ConfigurationDisabled:
		o.RevertConfiguration()
		return nil
	case display.FailedToParse:
		o.rec.IncParseFailure("configuration")
		return ferrors.ValidationError("failed to parse display configuration").
			WithContext(logfields.KeySessionID, session.ID.String()).
			Build()
	default:
		return ferrors.NewError(ferrors.CategoryInternal, "unknown parse result").Fatal().Build()
	}
}

// ConfigureDisplay applies the configuration, retrying while the display API
// is temporarily unavailable. Success and permanent failure both end the
// task; a newer Configure or Revert call supersedes a pending one.
func (o *Orchestrator) ConfigureDisplay(cfg display.SingleDisplayConfiguration) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.sched == nil {
		slog.Debug("Skipping display configuration, no platform support", logfields.DeviceID(cfg.DeviceID))
		return nil
	}

	if o.sched.HasPendingTask() {
		o.rec.IncTaskSuperseded("apply")
	}

	// The first attempt runs synchronously inside Schedule, so its outcome
	// is known by the time Schedule returns.
	var firstResult atomic.Value

	taskID, err := o.sched.Schedule(func(m settings.Manager, stop *scheduler.StopToken) {
		start := time.Now()
		result := m.ApplySettings(cfg)
		o.rec.ObserveApplyDuration(time.Since(start))
		o.rec.IncApplyResult(string(result))
		firstResult.CompareAndSwap(nil, result)

		if result != settings.ApplyApiTemporarilyUnavailable {
			stop.RequestStop()
		}
	}, scheduler.Options{SleepDurations: []time.Duration{o.retryInterval}})
	if err != nil {
		return err
	}

	slog.Debug("Scheduled display configuration apply",
		logfields.Task("apply"),
		logfields.TaskID(taskID.String()),
		logfields.DeviceID(cfg.DeviceID))

	if result, ok := firstResult.Load().(settings.ApplyResult); ok && result == settings.ApplyFailed {
		return ferrors.DisplayError("failed to apply display configuration").
			WithContext(logfields.KeyDeviceID, cfg.DeviceID).
			Build()
	}
	return nil
}

// RevertConfiguration restores the pre-configuration display state,
// retrying indefinitely until it succeeds. The first attempt is postponed by
// the policy's revert delay when one is configured.
func (o *Orchestrator) RevertConfiguration() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.revertLocked(revertTryIndefinitelyWithDelay)
}

// revertLocked requires o.mu to be held.
func (o *Orchestrator) revertLocked(opt revertOption) {
	if o.sched == nil {
		return
	}

	if opt == revertTryOnce {
		scheduler.ExecuteWithStop(o.sched, func(m settings.Manager, stop *scheduler.StopToken) bool {
			ok := m.RevertSettings()
			o.rec.IncRevertAttempt(ok)
			stop.RequestStop()
			return ok
		})
		return
	}

	opts := scheduler.Options{SleepDurations: []time.Duration{o.retryInterval}}
	if opt == revertTryIndefinitelyWithDelay && o.revertDelay > 0 {
		opts.SleepDurations = []time.Duration{o.revertDelay, o.retryInterval}
		opts.Execution = scheduler.ScheduledOnly
	}

	if o.sched.HasPendingTask() {
		o.rec.IncTaskSuperseded("revert")
	}

	taskID, err := o.sched.Schedule(func(m settings.Manager, stop *scheduler.StopToken) {
		ok := m.RevertSettings()
		o.rec.IncRevertAttempt(ok)
		if ok {
			stop.RequestStop()
		}
	}, opts)
	if err != nil {
		slog.Error("Failed to schedule display configuration revert", logfields.Error(err))
		return
	}
	slog.Debug("Scheduled display configuration revert", logfields.Task("revert"), logfields.TaskID(taskID.String()))
}

// TryRevert attempts a single synchronous revert and reports whether it
// succeeded. Any pending retry task is superseded either way.
func (o *Orchestrator) TryRevert() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.sched == nil {
		return true
	}
	return scheduler.ExecuteWithStop(o.sched, func(m settings.Manager, stop *scheduler.StopToken) bool {
		ok := m.RevertSettings()
		o.rec.IncRevertAttempt(ok)
		stop.RequestStop()
		return ok
	})
}

// ResetPersistence discards the persisted pre-change state and aborts any
// in-flight revert retrying. Used when the user has fixed the display state
// manually and the retry loop would fight them.
func (o *Orchestrator) ResetPersistence() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.sched == nil {
		return true
	}

	return scheduler.ExecuteWithStop(o.sched, func(m settings.Manager, stop *scheduler.StopToken) bool {
		// Stop first so a pending revert never races the reset.
		stop.RequestStop()
		return m.ResetPersistence()
	})
}

// MapOutputName resolves a logical output name to the OS display name.
// Unknown names and unsupported platforms map to the input unchanged.
func (o *Orchestrator) MapOutputName(outputName string) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.sched == nil {
		return outputName
	}

	mapped := scheduler.Execute(o.sched, func(m settings.Manager) string {
		return m.GetDisplayName(outputName)
	})
	if mapped == "" {
		return outputName
	}
	return mapped
}

// EnumAvailableDevices lists the display devices visible to the platform
// backend, or nil when unsupported.
func (o *Orchestrator) EnumAvailableDevices() []settings.DeviceInfo {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.sched == nil {
		return nil
	}
	return scheduler.Execute(o.sched, func(m settings.Manager) []settings.DeviceInfo {
		return m.EnumAvailableDevices()
	})
}
