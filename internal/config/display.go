package config

import (
	"git.home.luguber.info/inful/displayctl/internal/foundation/normalization"
)

// DevicePrepOption selects how aggressively the target display is prepared
// before a stream starts. "disabled" turns display configuration off entirely.
type DevicePrepOption string

const (
	DevicePrepDisabled          DevicePrepOption = "disabled"
	DevicePrepVerifyOnly        DevicePrepOption = "verify_only"
	DevicePrepEnsureActive      DevicePrepOption = "ensure_active"
	DevicePrepEnsurePrimary     DevicePrepOption = "ensure_primary"
	DevicePrepEnsureOnlyDisplay DevicePrepOption = "ensure_only_display"
)

var devicePrepNormalizer = normalization.NewNormalizer(map[string]DevicePrepOption{
	"disabled":            DevicePrepDisabled,
	"verify_only":         DevicePrepVerifyOnly,
	"ensure_active":       DevicePrepEnsureActive,
	"ensure_primary":      DevicePrepEnsurePrimary,
	"ensure_only_display": DevicePrepEnsureOnlyDisplay,
}, DevicePrepDisabled)

// NormalizeDevicePrep converts arbitrary user input (case-insensitive) into a
// typed option, falling back to "disabled" for unknown values.
func NormalizeDevicePrep(raw string) DevicePrepOption {
	return devicePrepNormalizer.Normalize(raw)
}

// ResolutionOption selects how the target resolution is chosen.
type ResolutionOption string

const (
	ResolutionDisabled  ResolutionOption = "disabled"
	ResolutionAutomatic ResolutionOption = "automatic"
	ResolutionManual    ResolutionOption = "manual"
)

var resolutionNormalizer = normalization.NewNormalizer(map[string]ResolutionOption{
	"disabled":  ResolutionDisabled,
	"automatic": ResolutionAutomatic,
	"manual":    ResolutionManual,
}, ResolutionDisabled)

func NormalizeResolutionOption(raw string) ResolutionOption {
	return resolutionNormalizer.Normalize(raw)
}

// RefreshRateOption selects how the target refresh rate is chosen.
type RefreshRateOption string

const (
	RefreshRateDisabled  RefreshRateOption = "disabled"
	RefreshRateAutomatic RefreshRateOption = "automatic"
	RefreshRateManual    RefreshRateOption = "manual"
)

var refreshRateNormalizer = normalization.NewNormalizer(map[string]RefreshRateOption{
	"disabled":  RefreshRateDisabled,
	"automatic": RefreshRateAutomatic,
	"manual":    RefreshRateManual,
}, RefreshRateDisabled)

func NormalizeRefreshRateOption(raw string) RefreshRateOption {
	return refreshRateNormalizer.Normalize(raw)
}

// HdrOption selects whether HDR state follows the session request.
type HdrOption string

const (
	HdrDisabled  HdrOption = "disabled"
	HdrAutomatic HdrOption = "automatic"
)

var hdrNormalizer = normalization.NewNormalizer(map[string]HdrOption{
	"disabled":  HdrDisabled,
	"automatic": HdrAutomatic,
}, HdrDisabled)

func NormalizeHdrOption(raw string) HdrOption {
	return hdrNormalizer.Normalize(raw)
}

// DisplayPolicy is the user-facing display configuration policy.
// String-typed fields are normalized in place by Normalize before use.
type DisplayPolicy struct {
	// OutputName is the logical name of the display to configure.
	// Empty means "currently active device".
	OutputName string `yaml:"output_name,omitempty"`

	DevicePrep DevicePrepOption `yaml:"device_prep"`

	ResolutionOption ResolutionOption `yaml:"resolution_option"`
	ManualResolution string           `yaml:"manual_resolution,omitempty"` // e.g. "1920x1080"

	RefreshRateOption RefreshRateOption `yaml:"refresh_rate_option"`
	ManualRefreshRate string            `yaml:"manual_refresh_rate,omitempty"` // e.g. "59.95"

	HdrOption HdrOption `yaml:"hdr_option"`

	// ConfigRevertDelay postpones the first revert attempt after a session
	// ends, to avoid racing with the session's own teardown.
	ConfigRevertDelay Duration `yaml:"config_revert_delay,omitempty"`

	// HdrToggleWorkaround enables a short blank delay after HDR state
	// changes, for displays that need time to re-sync.
	HdrToggleWorkaround bool `yaml:"hdr_toggle_workaround,omitempty"`
}

// Normalize canonicalizes all enum fields, mapping unknown input to the
// documented defaults.
func (p *DisplayPolicy) Normalize() {
	p.DevicePrep = NormalizeDevicePrep(string(p.DevicePrep))
	p.ResolutionOption = NormalizeResolutionOption(string(p.ResolutionOption))
	p.RefreshRateOption = NormalizeRefreshRateOption(string(p.RefreshRateOption))
	p.HdrOption = NormalizeHdrOption(string(p.HdrOption))
	if p.ConfigRevertDelay < 0 {
		p.ConfigRevertDelay = 0
	}
}
