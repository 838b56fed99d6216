package settings

import (
	"time"

	"git.home.luguber.info/inful/displayctl/internal/audioctx"
	"git.home.luguber.info/inful/displayctl/internal/config"
	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
	"git.home.luguber.info/inful/displayctl/internal/persistence"
)

// ErrPlatformUnsupported signals that no display backend exists for this
// OS. Callers switch to an error-free pass-through mode, this is not a
// failure condition.
var ErrPlatformUnsupported = ferrors.PlatformError("no display backend for this platform").WithSeverity(ferrors.SeverityInfo).Build()

// hdrBlankDelay is applied when the HDR toggle workaround is enabled.
const hdrBlankDelay = 500 * time.Millisecond

// NewPlatformManager constructs the settings manager for the current
// platform, or ErrPlatformUnsupported where no display backend exists.
func NewPlatformManager(persistencePath string, policy *config.DisplayPolicy) (Manager, error) {
	api := platformDisplayAPI()
	if api == nil {
		return nil, ErrPlatformUnsupported
	}

	store, err := persistence.NewStore(persistencePath)
	if err != nil {
		return nil, err
	}

	wa := Workarounds{}
	if policy.HdrToggleWorkaround {
		wa.HdrBlankDelay = hdrBlankDelay
	}

	return NewManager(api, audioctx.NewStreamContext(0), store, wa)
}
