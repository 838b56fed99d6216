// Package audioctx provides the audio context capability used while display
// devices are reconfigured. Capturing keeps the audio session alive for a
// display that is about to be deactivated so it can be restored later.
package audioctx

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultReleaseGrace is how long Release waits for the audio device to
// become available again after a display change.
const DefaultReleaseGrace = 500 * time.Millisecond

// Context is the audio context capability contract.
type Context interface {
	Capture() bool
	IsCaptured() bool
	Release()
}

// StreamContext is the default Context implementation for streaming
// sessions. It is safe for concurrent use.
type StreamContext struct {
	mu           sync.Mutex
	captured     bool
	releaseGrace time.Duration
}

// NewStreamContext creates a stream audio context. A non-positive grace
// duration falls back to DefaultReleaseGrace.
func NewStreamContext(releaseGrace time.Duration) *StreamContext {
	if releaseGrace <= 0 {
		releaseGrace = DefaultReleaseGrace
	}
	return &StreamContext{releaseGrace: releaseGrace}
}

// Capture marks the audio session as held across the display change.
func (c *StreamContext) Capture() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captured = true
	return true
}

// IsCaptured reports whether a capture is active.
func (c *StreamContext) IsCaptured() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.captured
}

// Release drops the capture. The audio device may be briefly unavailable
// right after a display change, so wait a little before letting go.
func (c *StreamContext) Release() {
	c.mu.Lock()
	if !c.captured {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	time.Sleep(c.releaseGrace)

	c.mu.Lock()
	c.captured = false
	c.mu.Unlock()
	slog.Debug("Released audio context")
}

// Noop is a Context that does nothing, for platforms or tests where audio
// does not need to survive display changes.
type Noop struct{}

func (Noop) Capture() bool    { return true }
func (Noop) IsCaptured() bool { return false }
func (Noop) Release()         {}
