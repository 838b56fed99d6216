package metrics

import "time"

// Recorder defines observability hooks for apply/revert/parse activity.
// Implementations may forward to Prometheus, OpenTelemetry, etc. All methods
// must be safe on the NoopRecorder (allowing optional injection).
type Recorder interface {
	IncApplyResult(result string)
	ObserveApplyDuration(d time.Duration)
	IncRevertAttempt(success bool)
	IncParseFailure(axis string)
	IncTaskSuperseded(task string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncApplyResult(string)              {}
func (NoopRecorder) ObserveApplyDuration(time.Duration) {}
func (NoopRecorder) IncRevertAttempt(bool)              {}
func (NoopRecorder) IncParseFailure(string)             {}
func (NoopRecorder) IncTaskSuperseded(string)           {}
