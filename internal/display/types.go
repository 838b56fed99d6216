package display

import (
	"fmt"

	"git.home.luguber.info/inful/displayctl/internal/foundation"
)

// Resolution is a display mode size in pixels. Width and height are always
// set together; a missing resolution is expressed as an empty Option at the
// configuration level, never as a half-filled value.
type Resolution struct {
	Width  uint32 `json:"width"`
	Height uint32 `json:"height"`
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Rational represents a refresh rate exactly as numerator/denominator,
// avoiding floating-point drift (59.995 Hz -> 59995/1000).
type Rational struct {
	Numerator   uint32 `json:"numerator"`
	Denominator uint32 `json:"denominator"`
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Numerator, r.Denominator)
}

// HdrState is the requested HDR switch position.
type HdrState string

const (
	HdrEnabled  HdrState = "enabled"
	HdrDisabled HdrState = "disabled"
)

// DevicePreparation selects how aggressively the target display must be
// brought into a usable state before streaming.
type DevicePreparation string

const (
	// PrepVerifyOnly only verifies that the device is active.
	PrepVerifyOnly DevicePreparation = "verify_only"
	// PrepEnsureActive activates the device if needed.
	PrepEnsureActive DevicePreparation = "ensure_active"
	// PrepEnsurePrimary activates the device and makes it primary.
	PrepEnsurePrimary DevicePreparation = "ensure_primary"
	// PrepEnsureOnlyDisplay deactivates all other devices.
	PrepEnsureOnlyDisplay DevicePreparation = "ensure_only_display"
)

// SingleDisplayConfiguration is one fully-resolved request to apply against
// the display subsystem.
type SingleDisplayConfiguration struct {
	// DeviceID identifies the target device. Empty means "currently active device".
	DeviceID string `json:"device_id"`

	DevicePrep DevicePreparation `json:"device_prep"`

	Resolution  foundation.Option[Resolution] `json:"resolution"`
	RefreshRate foundation.Option[Rational]   `json:"refresh_rate"`
	HdrState    foundation.Option[HdrState]   `json:"hdr_state"`
}

func (c SingleDisplayConfiguration) String() string {
	res := "unchanged"
	if v, ok := c.Resolution.Get(); ok {
		res = v.String()
	}
	rate := "unchanged"
	if v, ok := c.RefreshRate.Get(); ok {
		rate = v.String()
	}
	hdr := "unchanged"
	if v, ok := c.HdrState.Get(); ok {
		hdr = string(v)
	}
	return fmt.Sprintf("device=%q prep=%s resolution=%s refresh_rate=%s hdr=%s",
		c.DeviceID, c.DevicePrep, res, rate, hdr)
}
