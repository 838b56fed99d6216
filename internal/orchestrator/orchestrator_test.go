package orchestrator

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/displayctl/internal/config"
	"git.home.luguber.info/inful/displayctl/internal/display"
	"git.home.luguber.info/inful/displayctl/internal/settings"
)

// fakeManager scripts ApplySettings and RevertSettings outcomes and records
// call counts.
type fakeManager struct {
	mu sync.Mutex

	applyResults []settings.ApplyResult
	applyCalls   int

	revertResults []bool
	revertCalls   int

	resetResult bool
	resetCalls  int

	devices []settings.DeviceInfo
	names   map[string]string
}

func (f *fakeManager) EnumAvailableDevices() []settings.DeviceInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.devices
}

func (f *fakeManager) GetDisplayName(outputName string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.names[outputName]
}

func (f *fakeManager) ApplySettings(display.SingleDisplayConfiguration) settings.ApplyResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := settings.ApplySuccess
	if f.applyCalls < len(f.applyResults) {
		result = f.applyResults[f.applyCalls]
	}
	f.applyCalls++
	return result
}

func (f *fakeManager) RevertSettings() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := true
	if f.revertCalls < len(f.revertResults) {
		result = f.revertResults[f.revertCalls]
	}
	f.revertCalls++
	return result
}

func (f *fakeManager) ResetPersistence() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetCalls++
	return f.resetResult
}

func (f *fakeManager) counts() (applies, reverts, resets int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applyCalls, f.revertCalls, f.resetCalls
}

// recordingRecorder counts supersessions per task name and ignores the rest.
type recordingRecorder struct {
	mu         sync.Mutex
	superseded map[string]int
}

func (r *recordingRecorder) IncApplyResult(string)              {}
func (r *recordingRecorder) ObserveApplyDuration(time.Duration) {}
func (r *recordingRecorder) IncRevertAttempt(bool)              {}
func (r *recordingRecorder) IncParseFailure(string)             {}

func (r *recordingRecorder) IncTaskSuperseded(task string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.superseded == nil {
		r.superseded = map[string]int{}
	}
	r.superseded[task]++
}

func (r *recordingRecorder) supersededCount(task string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.superseded[task]
}

func newTestOrchestrator(t *testing.T, mgr *fakeManager, opts ...Option) *Orchestrator {
	t.Helper()

	opts = append([]Option{
		WithRetryInterval(5 * time.Millisecond),
		WithManagerFactory(func(string, *config.DisplayPolicy) (settings.Manager, error) {
			return mgr, nil
		}),
		WithStartupRecovery(false),
	}, opts...)

	o := New(opts...)
	deinit, err := o.Init("state.json", &config.DisplayPolicy{})
	require.NoError(t, err)
	t.Cleanup(deinit)
	return o
}

func testConfig() display.SingleDisplayConfiguration {
	return display.SingleDisplayConfiguration{DeviceID: "DP-1", DevicePrep: display.PrepEnsureActive}
}

func TestConfigureDisplaySucceedsFirstAttempt(t *testing.T) {
	mgr := &fakeManager{}
	o := newTestOrchestrator(t, mgr)

	require.NoError(t, o.ConfigureDisplay(testConfig()))

	time.Sleep(20 * time.Millisecond)
	applies, _, _ := mgr.counts()
	assert.Equal(t, 1, applies)
}

func TestConfigureDisplayRetriesWhileTemporarilyUnavailable(t *testing.T) {
	mgr := &fakeManager{applyResults: []settings.ApplyResult{
		settings.ApplyApiTemporarilyUnavailable,
		settings.ApplyApiTemporarilyUnavailable,
		settings.ApplySuccess,
	}}
	o := newTestOrchestrator(t, mgr)

	require.NoError(t, o.ConfigureDisplay(testConfig()))

	require.Eventually(t, func() bool {
		applies, _, _ := mgr.counts()
		return applies == 3
	}, time.Second, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	applies, _, _ := mgr.counts()
	assert.Equal(t, 3, applies)
}

func TestConfigureDisplayPermanentFailureStopsAndErrors(t *testing.T) {
	mgr := &fakeManager{applyResults: []settings.ApplyResult{settings.ApplyFailed}}
	o := newTestOrchestrator(t, mgr)

	assert.Error(t, o.ConfigureDisplay(testConfig()))

	time.Sleep(20 * time.Millisecond)
	applies, _, _ := mgr.counts()
	assert.Equal(t, 1, applies)
}

func TestConfigureDisplayForSession(t *testing.T) {
	t.Run("parsed configuration is applied", func(t *testing.T) {
		mgr := &fakeManager{}
		o := newTestOrchestrator(t, mgr)

		policy := &config.DisplayPolicy{DevicePrep: config.DevicePrepEnsureActive}
		require.NoError(t, o.ConfigureDisplayForSession(policy, display.NewSession(1920, 1080, 60, true, false)))

		applies, _, _ := mgr.counts()
		assert.Equal(t, 1, applies)
	})

	t.Run("disabled policy reverts", func(t *testing.T) {
		mgr := &fakeManager{}
		o := newTestOrchestrator(t, mgr)

		policy := &config.DisplayPolicy{DevicePrep: config.DevicePrepDisabled}
		require.NoError(t, o.ConfigureDisplayForSession(policy, display.NewSession(1920, 1080, 60, true, false)))

		applies, reverts, _ := mgr.counts()
		assert.Equal(t, 0, applies)
		assert.Equal(t, 1, reverts)
	})

	t.Run("parse failure touches nothing", func(t *testing.T) {
		mgr := &fakeManager{}
		o := newTestOrchestrator(t, mgr)

		policy := &config.DisplayPolicy{
			DevicePrep:       config.DevicePrepEnsureActive,
			ResolutionOption: config.ResolutionManual,
			ManualResolution: "garbage",
		}
		err := o.ConfigureDisplayForSession(policy, display.NewSession(1920, 1080, 60, true, false))
		assert.Error(t, err)

		applies, reverts, _ := mgr.counts()
		assert.Equal(t, 0, applies)
		assert.Equal(t, 0, reverts)
	})
}

func TestRevertConfigurationRetriesUntilSuccess(t *testing.T) {
	mgr := &fakeManager{revertResults: []bool{false, false, true}}
	o := newTestOrchestrator(t, mgr)

	o.RevertConfiguration()

	require.Eventually(t, func() bool {
		_, reverts, _ := mgr.counts()
		return reverts == 3
	}, time.Second, time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	_, reverts, _ := mgr.counts()
	assert.Equal(t, 3, reverts)
}

func TestRevertConfigurationHonorsRevertDelay(t *testing.T) {
	mgr := &fakeManager{}
	o := New(
		WithRetryInterval(5*time.Millisecond),
		WithManagerFactory(func(string, *config.DisplayPolicy) (settings.Manager, error) {
			return mgr, nil
		}),
		WithStartupRecovery(false),
	)
	deinit, err := o.Init("state.json", &config.DisplayPolicy{ConfigRevertDelay: config.Duration(30 * time.Millisecond)})
	require.NoError(t, err)
	t.Cleanup(deinit)

	o.RevertConfiguration()

	// The delayed first attempt must not run synchronously.
	_, reverts, _ := mgr.counts()
	assert.Equal(t, 0, reverts)

	require.Eventually(t, func() bool {
		_, reverts, _ := mgr.counts()
		return reverts == 1
	}, time.Second, time.Millisecond)
}

func TestInitStartupRecoveryRevertsImmediately(t *testing.T) {
	mgr := &fakeManager{}
	o := New(
		WithRetryInterval(5*time.Millisecond),
		WithManagerFactory(func(string, *config.DisplayPolicy) (settings.Manager, error) {
			return mgr, nil
		}),
	)
	deinit, err := o.Init("state.json", &config.DisplayPolicy{ConfigRevertDelay: config.Duration(10 * time.Second)})
	require.NoError(t, err)
	t.Cleanup(deinit)

	// Crash recovery ignores the session-end revert delay, so the first
	// revert attempt has already run when Init returns.
	_, reverts, _ := mgr.counts()
	assert.GreaterOrEqual(t, reverts, 1)
}

func TestInitLogsAvailableDevices(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	mgr := &fakeManager{devices: []settings.DeviceInfo{{ID: "DP-1", Active: true, Primary: true}}}
	newTestOrchestrator(t, mgr)

	assert.Contains(t, buf.String(), "Currently available display devices")
	assert.Contains(t, buf.String(), "DP-1")
}

func TestSupersededTasksAreRecorded(t *testing.T) {
	t.Run("configure supersedes pending revert", func(t *testing.T) {
		rec := &recordingRecorder{}
		mgr := &fakeManager{revertResults: []bool{false, false, false, false, false, false}}
		o := newTestOrchestrator(t, mgr, WithRecorder(rec))

		o.RevertConfiguration()
		require.NoError(t, o.ConfigureDisplay(testConfig()))

		assert.Equal(t, 1, rec.supersededCount("apply"))
		assert.Equal(t, 0, rec.supersededCount("revert"))
	})

	t.Run("revert supersedes pending apply", func(t *testing.T) {
		rec := &recordingRecorder{}
		mgr := &fakeManager{applyResults: []settings.ApplyResult{
			settings.ApplyApiTemporarilyUnavailable,
			settings.ApplyApiTemporarilyUnavailable,
			settings.ApplyApiTemporarilyUnavailable,
			settings.ApplyApiTemporarilyUnavailable,
			settings.ApplyApiTemporarilyUnavailable,
			settings.ApplyApiTemporarilyUnavailable,
		}}
		o := newTestOrchestrator(t, mgr, WithRecorder(rec))

		require.NoError(t, o.ConfigureDisplay(testConfig()))
		o.RevertConfiguration()

		assert.Equal(t, 1, rec.supersededCount("revert"))
	})

	t.Run("finished tasks are not counted", func(t *testing.T) {
		rec := &recordingRecorder{}
		mgr := &fakeManager{}
		o := newTestOrchestrator(t, mgr, WithRecorder(rec))

		require.NoError(t, o.ConfigureDisplay(testConfig()))
		o.RevertConfiguration()

		assert.Equal(t, 0, rec.supersededCount("apply"))
		assert.Equal(t, 0, rec.supersededCount("revert"))
	})
}

func TestRevertSupersededByNewConfiguration(t *testing.T) {
	mgr := &fakeManager{revertResults: []bool{false, false, false, false, false, false}}
	o := newTestOrchestrator(t, mgr)

	o.RevertConfiguration()
	require.NoError(t, o.ConfigureDisplay(testConfig()))

	_, frozen, _ := mgr.counts()
	time.Sleep(30 * time.Millisecond)
	_, reverts, _ := mgr.counts()
	assert.Equal(t, frozen, reverts)
}

func TestTryRevert(t *testing.T) {
	mgr := &fakeManager{revertResults: []bool{false}}
	o := newTestOrchestrator(t, mgr)

	assert.False(t, o.TryRevert())
	assert.True(t, o.TryRevert())
}

func TestResetPersistenceStopsPendingRevert(t *testing.T) {
	mgr := &fakeManager{resetResult: true, revertResults: []bool{false, false, false, false}}
	o := newTestOrchestrator(t, mgr)

	o.RevertConfiguration()
	assert.True(t, o.ResetPersistence())

	_, frozen, resets := mgr.counts()
	assert.Equal(t, 1, resets)
	time.Sleep(30 * time.Millisecond)
	_, reverts, _ := mgr.counts()
	assert.Equal(t, frozen, reverts)
}

func TestMapOutputName(t *testing.T) {
	mgr := &fakeManager{names: map[string]string{"OUTPUT-1": `\\.\DISPLAY1`}}
	o := newTestOrchestrator(t, mgr)

	assert.Equal(t, `\\.\DISPLAY1`, o.MapOutputName("OUTPUT-1"))
	assert.Equal(t, "OUTPUT-9", o.MapOutputName("OUTPUT-9"))
}

func TestUnsupportedPlatformPassThrough(t *testing.T) {
	o := New(WithManagerFactory(func(string, *config.DisplayPolicy) (settings.Manager, error) {
		return nil, settings.ErrPlatformUnsupported
	}))
	deinit, err := o.Init("state.json", &config.DisplayPolicy{})
	require.NoError(t, err)
	t.Cleanup(deinit)

	assert.NoError(t, o.ConfigureDisplay(testConfig()))
	o.RevertConfiguration()
	assert.True(t, o.TryRevert())
	assert.True(t, o.ResetPersistence())
	assert.Equal(t, "OUTPUT-1", o.MapOutputName("OUTPUT-1"))
	assert.Nil(t, o.EnumAvailableDevices())
}

func TestReinitCleansUpPreviousManager(t *testing.T) {
	mgr := &fakeManager{}
	o := newTestOrchestrator(t, mgr)
	require.NoError(t, o.ConfigureDisplay(testConfig()))

	deinit, err := o.Init("state.json", &config.DisplayPolicy{})
	require.NoError(t, err)
	t.Cleanup(deinit)

	// Cleanup reverts through the old manager before it is replaced.
	_, reverts, _ := mgr.counts()
	assert.Equal(t, 1, reverts)
}

func TestEnumAvailableDevices(t *testing.T) {
	mgr := &fakeManager{devices: []settings.DeviceInfo{{ID: "DP-1", Active: true, Primary: true}}}
	o := newTestOrchestrator(t, mgr)

	devices := o.EnumAvailableDevices()
	require.Len(t, devices, 1)
	assert.Equal(t, "DP-1", devices[0].ID)
}
