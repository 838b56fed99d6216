package display

import "github.com/google/uuid"

// Session carries the display-relevant parameters of a streaming session.
// Width, height and fps are signed on the wire; negative means unset/invalid.
type Session struct {
	ID uuid.UUID

	// EnableSOPS is the client's opt-in to server-side display optimization.
	// Without it, resolution changes are skipped with a warning.
	EnableSOPS bool

	Width  int
	Height int
	FPS    int

	EnableHDR bool
}

// NewSession assigns a fresh session ID to the given parameters.
func NewSession(width, height, fps int, enableSOPS, enableHDR bool) Session {
	return Session{
		ID:         uuid.New(),
		EnableSOPS: enableSOPS,
		Width:      width,
		Height:     height,
		FPS:        fps,
		EnableHDR:  enableHDR,
	}
}
