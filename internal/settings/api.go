// Package settings manages display device settings: applying a parsed
// configuration, persisting the pre-change state, and reverting to it.
package settings

import (
	"errors"

	"git.home.luguber.info/inful/displayctl/internal/display"
	"git.home.luguber.info/inful/displayctl/internal/foundation"
)

// DeviceInfo describes one enumerable display device.
type DeviceInfo struct {
	ID           string `json:"id"`
	FriendlyName string `json:"friendly_name"`
	Active       bool   `json:"active"`
	Primary      bool   `json:"primary"`
}

// ApplyResult classifies the outcome of ApplySettings. Only
// ApplyApiTemporarilyUnavailable is worth retrying.
type ApplyResult string

const (
	ApplySuccess                   ApplyResult = "success"
	ApplyApiTemporarilyUnavailable ApplyResult = "api_temporarily_unavailable"
	ApplyFailed                    ApplyResult = "failed"
)

// Manager is the settings capability consumed by the orchestrator.
type Manager interface {
	EnumAvailableDevices() []DeviceInfo
	GetDisplayName(outputName string) string
	ApplySettings(cfg display.SingleDisplayConfiguration) ApplyResult
	RevertSettings() bool
	ResetPersistence() bool
}

// ErrApiTemporarilyUnavailable is returned by a DisplayAPI when the OS
// display API cannot take changes right now (e.g. mid mode-switch) and the
// same call is expected to succeed shortly.
var ErrApiTemporarilyUnavailable = errors.New("display API temporarily unavailable")

// DeviceState is a restorable snapshot of a device's settings before a
// configuration was applied. It is what gets persisted for later revert.
type DeviceState struct {
	DeviceID      string                                `json:"device_id"`
	Resolution    foundation.Option[display.Resolution] `json:"resolution"`
	RefreshRate   foundation.Option[display.Rational]   `json:"refresh_rate"`
	HdrState      foundation.Option[display.HdrState]   `json:"hdr_state"`
	WasPrimary    bool                                  `json:"was_primary"`
	ActiveDevices []string                              `json:"active_devices"`
}

// DisplayAPI is the OS-level display capability the manager drives. The
// actual enumeration/mutation of physical displays lives behind this
// interface and is supplied per platform.
type DisplayAPI interface {
	EnumAvailableDevices() []DeviceInfo
	GetDisplayName(outputName string) string
	Snapshot(deviceID string) (DeviceState, error)
	Apply(cfg display.SingleDisplayConfiguration) error
	Restore(state DeviceState) error
}
