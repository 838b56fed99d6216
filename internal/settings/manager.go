package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/displayctl/internal/audioctx"
	"git.home.luguber.info/inful/displayctl/internal/display"
	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
	"git.home.luguber.info/inful/displayctl/internal/logfields"
	"git.home.luguber.info/inful/displayctl/internal/persistence"
)

// Workarounds tunes behavior for quirky hardware.
type Workarounds struct {
	// HdrBlankDelay, when positive, waits after an HDR state change for
	// displays that blank while re-syncing.
	HdrBlankDelay time.Duration
}

// settingsManager implements Manager over a platform DisplayAPI, an audio
// context and a persistence store. The pre-change device state is persisted
// before the first mutation so a revert survives a crash.
type settingsManager struct {
	mu    sync.Mutex
	api   DisplayAPI
	audio audioctx.Context
	store persistence.Store
	wa    Workarounds
}

// NewManager wires a settings manager. api and store are required; a nil
// audio context falls back to audioctx.Noop.
func NewManager(api DisplayAPI, audio audioctx.Context, store persistence.Store, wa Workarounds) (Manager, error) {
	if api == nil {
		return nil, ferrors.ValidationError("display API is required").Build()
	}
	if store == nil {
		return nil, ferrors.ValidationError("persistence store is required").Build()
	}
	if audio == nil {
		audio = audioctx.Noop{}
	}
	return &settingsManager{api: api, audio: audio, store: store, wa: wa}, nil
}

func (m *settingsManager) EnumAvailableDevices() []DeviceInfo {
	return m.api.EnumAvailableDevices()
}

func (m *settingsManager) GetDisplayName(outputName string) string {
	return m.api.GetDisplayName(outputName)
}

func (m *settingsManager) ApplySettings(cfg display.SingleDisplayConfiguration) ApplyResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx := context.Background()

	// Persist the pre-change state before touching anything, unless an
	// earlier apply already recorded it (the revert target stays the state
	// before the FIRST change of this run).
	prior, err := m.store.Load(ctx)
	if err != nil {
		slog.Error("Failed to read persisted display state", logfields.Error(err))
		return ApplyFailed
	}
	if prior == nil {
		snapshot, err := m.api.Snapshot(cfg.DeviceID)
		if err != nil {
			if errors.Is(err, ErrApiTemporarilyUnavailable) {
				return ApplyApiTemporarilyUnavailable
			}
			slog.Error("Failed to snapshot current display state", logfields.DeviceID(cfg.DeviceID), logfields.Error(err))
			return ApplyFailed
		}
		payload, err := json.Marshal(snapshot)
		if err != nil {
			slog.Error("Failed to serialize display state snapshot", logfields.Error(err))
			return ApplyFailed
		}
		if err := m.store.Save(ctx, payload); err != nil {
			// Never mutate the display without a revert record.
			slog.Error("Failed to persist display state snapshot", logfields.Error(err))
			return ApplyFailed
		}
	}

	// Other displays may be deactivated; keep their audio session alive so
	// it can be restored on revert.
	if cfg.DevicePrep == display.PrepEnsureOnlyDisplay && !m.audio.IsCaptured() {
		if !m.audio.Capture() {
			slog.Warn("Failed to capture audio context before display deactivation")
		}
	}

	if err := m.api.Apply(cfg); err != nil {
		if errors.Is(err, ErrApiTemporarilyUnavailable) {
			slog.Warn("Display API temporarily unavailable, apply will be retried", logfields.DeviceID(cfg.DeviceID))
			return ApplyApiTemporarilyUnavailable
		}
		slog.Error("Failed to apply display settings", logfields.DeviceID(cfg.DeviceID), logfields.Error(err))
		return ApplyFailed
	}

	if m.wa.HdrBlankDelay > 0 {
		if _, ok := cfg.HdrState.Get(); ok {
			time.Sleep(m.wa.HdrBlankDelay)
		}
	}

	slog.Info("Applied display settings", logfields.DeviceID(cfg.DeviceID), logfields.Result(string(ApplySuccess)))
	return ApplySuccess
}

func (m *settingsManager) RevertSettings() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ctx := context.Background()

	payload, err := m.store.Load(ctx)
	if err != nil {
		slog.Error("Failed to read persisted display state", logfields.Error(err))
		return false
	}
	if payload == nil {
		// Nothing was changed; still drop any held audio capture.
		m.audio.Release()
		return true
	}

	var state DeviceState
	if err := json.Unmarshal(payload, &state); err != nil {
		// An unreadable record can never be restored; retrying forever
		// would never terminate. Discard it.
		slog.Error("Persisted display state is corrupted, discarding", logfields.Error(err))
		_ = m.store.Clear(ctx)
		m.audio.Release()
		return true
	}

	if err := m.api.Restore(state); err != nil {
		slog.Warn("Failed to restore display state, will retry", logfields.DeviceID(state.DeviceID), logfields.Error(err))
		return false
	}

	if err := m.store.Clear(ctx); err != nil {
		slog.Error("Failed to clear persisted display state", logfields.Error(err))
		return false
	}

	m.audio.Release()
	slog.Info("Reverted display settings", logfields.DeviceID(state.DeviceID))
	return true
}

func (m *settingsManager) ResetPersistence() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Clear(context.Background()); err != nil {
		slog.Error("Failed to reset display state persistence", logfields.Error(err))
		return false
	}
	return true
}
