package display

import (
	"log/slog"
	"math"
	"regexp"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/displayctl/internal/config"
	"git.home.luguber.info/inful/displayctl/internal/foundation"
	"git.home.luguber.info/inful/displayctl/internal/logfields"
)

// ParseResult is the outcome of parsing policy plus session data.
// Exactly one of the three variants is returned; callers must match
// exhaustively and treat unknown variants as an error, never as success.
type ParseResult interface {
	isParseResult()
}

// ConfigurationDisabled signals that display configuration is turned off in
// the policy; any active configuration should be reverted.
type ConfigurationDisabled struct{}

// FailedToParse signals invalid policy or session input. The caller must not
// touch any previously applied display configuration on this outcome.
type FailedToParse struct{}

// ParsedConfiguration carries a fully-resolved configuration to apply.
type ParsedConfiguration struct {
	Config SingleDisplayConfiguration
}

func (ConfigurationDisabled) isParseResult() {}
func (FailedToParse) isParseResult()         {}
func (ParsedConfiguration) isParseResult()   {}

var (
	resolutionRegex  = regexp.MustCompile(`^(\d+)x(\d+)$`)
	refreshRateRegex = regexp.MustCompile(`^(\d+)(?:\.(\d+))?$`)
)

// parseUint32 converts a decimal string, rejecting anything outside the
// unsigned 32-bit range instead of wrapping.
func parseUint32(value string) (uint32, error) {
	v, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// ParseResolutionString parses a "1920x1080" style string.
// The empty string (after trimming) is valid and yields None.
// Returns false on malformed input or out-of-range numbers.
func ParseResolutionString(input string) (foundation.Option[Resolution], bool) {
	trimmed := strings.TrimSpace(input)

	match := resolutionRegex.FindStringSubmatch(trimmed)
	if match == nil {
		if trimmed == "" {
			return foundation.None[Resolution](), true
		}
		slog.Error("Failed to parse resolution string, it must match a \"1920x1080\" pattern", logfields.Resolution(trimmed))
		return foundation.None[Resolution](), false
	}

	width, err := parseUint32(match[1])
	if err != nil {
		slog.Error("Failed to parse resolution width", logfields.Resolution(trimmed), logfields.Error(err))
		return foundation.None[Resolution](), false
	}
	height, err := parseUint32(match[2])
	if err != nil {
		slog.Error("Failed to parse resolution height", logfields.Resolution(trimmed), logfields.Error(err))
		return foundation.None[Resolution](), false
	}

	return foundation.Some(Resolution{Width: width, Height: height}), true
}

// ParseRefreshRateString parses a "60" or "59.995" style string into an exact
// rational: the decimal point is dropped from the numerator and the
// denominator becomes 10^(fractional digits), with trailing zeros trimmed
// first so "60.00" means the same as "60".
// The empty string (after trimming) is valid and yields None.
func ParseRefreshRateString(input string) (foundation.Option[Rational], bool) {
	trimmed := strings.TrimSpace(input)

	match := refreshRateRegex.FindStringSubmatch(trimmed)
	if match == nil {
		if trimmed == "" {
			return foundation.None[Rational](), true
		}
		slog.Error("Failed to parse refresh rate string, must have a pattern of \"123\" or \"123.456\"", logfields.RefreshRate(trimmed))
		return foundation.None[Rational](), false
	}

	// Trim leading zeros to reduce out-of-range cases; keep at least one digit.
	intPart := strings.TrimLeft(match[1], "0")
	if intPart == "" {
		intPart = "0"
	}
	fracPart := strings.TrimRight(match[2], "0")

	if fracPart == "" {
		numerator, err := parseUint32(intPart)
		if err != nil {
			slog.Error("Failed to parse refresh rate string (number out of range)", logfields.RefreshRate(trimmed))
			return foundation.None[Rational](), false
		}
		return foundation.Some(Rational{Numerator: numerator, Denominator: 1}), true
	}

	// 59.995 -> numerator 59995, denominator 1000.
	numerator, err := parseUint32(intPart + fracPart)
	if err != nil {
		slog.Error("Failed to parse refresh rate string (number out of range)", logfields.RefreshRate(trimmed))
		return foundation.None[Rational](), false
	}
	denominator := uint64(1)
	for range len(fracPart) {
		denominator *= 10
		if denominator > math.MaxUint32 {
			slog.Error("Failed to parse refresh rate string (denominator out of range)", logfields.RefreshRate(trimmed))
			return foundation.None[Rational](), false
		}
	}
	return foundation.Some(Rational{Numerator: numerator, Denominator: uint32(denominator)}), true
}

// parseDevicePrepOption maps the policy option to a DevicePreparation.
// The second return value is false when configuration is disabled entirely.
func parseDevicePrepOption(policy *config.DisplayPolicy) (DevicePreparation, bool) {
	switch policy.DevicePrep {
	case config.DevicePrepVerifyOnly:
		return PrepVerifyOnly, true
	case config.DevicePrepEnsureActive:
		return PrepEnsureActive, true
	case config.DevicePrepEnsurePrimary:
		return PrepEnsurePrimary, true
	case config.DevicePrepEnsureOnlyDisplay:
		return PrepEnsureOnlyDisplay, true
	default:
		return "", false
	}
}

// parseHdrOption mirrors the session's HDR request when the policy says
// "automatic"; otherwise HDR is left untouched.
func parseHdrOption(policy *config.DisplayPolicy, session Session) foundation.Option[HdrState] {
	if policy.HdrOption == config.HdrAutomatic {
		if session.EnableHDR {
			return foundation.Some(HdrEnabled)
		}
		return foundation.Some(HdrDisabled)
	}
	return foundation.None[HdrState]()
}

func parseResolutionOption(policy *config.DisplayPolicy, session Session, cfg *SingleDisplayConfiguration) bool {
	switch policy.ResolutionOption {
	case config.ResolutionAutomatic:
		if !session.EnableSOPS {
			slog.Warn("Configured to change resolution automatically, but the client did not opt into display optimization. Resolution will not be changed.",
				logfields.SessionID(session.ID.String()))
			return true
		}
		if session.Width < 0 || session.Height < 0 || uint64(session.Width) > math.MaxUint32 || uint64(session.Height) > math.MaxUint32 {
			slog.Error("Resolution provided by client session is invalid",
				logfields.SessionID(session.ID.String()),
				slog.Int("width", session.Width),
				slog.Int("height", session.Height))
			return false
		}
		cfg.Resolution = foundation.Some(Resolution{Width: uint32(session.Width), Height: uint32(session.Height)})

	case config.ResolutionManual:
		if !session.EnableSOPS {
			slog.Warn("Configured to change resolution manually, but the client did not opt into display optimization. Resolution will not be changed.",
				logfields.SessionID(session.ID.String()))
			return true
		}
		resolution, ok := ParseResolutionString(policy.ManualResolution)
		if !ok {
			slog.Error("Failed to parse manual resolution string")
			return false
		}
		if resolution.IsNone() {
			slog.Error("Manual resolution must be specified")
			return false
		}
		cfg.Resolution = resolution

	case config.ResolutionDisabled:
	}
	return true
}

func parseRefreshRateOption(policy *config.DisplayPolicy, session Session, cfg *SingleDisplayConfiguration) bool {
	switch policy.RefreshRateOption {
	case config.RefreshRateAutomatic:
		if session.FPS < 0 || uint64(session.FPS) > math.MaxUint32 {
			slog.Error("FPS value provided by client session is invalid",
				logfields.SessionID(session.ID.String()),
				slog.Int("fps", session.FPS))
			return false
		}
		cfg.RefreshRate = foundation.Some(Rational{Numerator: uint32(session.FPS), Denominator: 1})

	case config.RefreshRateManual:
		rate, ok := ParseRefreshRateString(policy.ManualRefreshRate)
		if !ok {
			slog.Error("Failed to parse manual refresh rate string")
			return false
		}
		if rate.IsNone() {
			slog.Error("Manual refresh rate must be specified")
			return false
		}
		cfg.RefreshRate = rate

	case config.RefreshRateDisabled:
	}
	return true
}

// ParseConfiguration turns policy plus session data into a validated display
// configuration. Each axis is validated independently; the first failure
// short-circuits with FailedToParse and the caller must leave any active
// configuration untouched.
func ParseConfiguration(policy *config.DisplayPolicy, session Session) ParseResult {
	devicePrep, enabled := parseDevicePrepOption(policy)
	if !enabled {
		return ConfigurationDisabled{}
	}

	cfg := SingleDisplayConfiguration{
		DeviceID:   policy.OutputName,
		DevicePrep: devicePrep,
		HdrState:   parseHdrOption(policy, session),
	}

	if !parseResolutionOption(policy, session, &cfg) {
		// Error already logged
		return FailedToParse{}
	}
	if !parseRefreshRateOption(policy, session, &cfg) {
		// Error already logged
		return FailedToParse{}
	}

	return ParsedConfiguration{Config: cfg}
}
