// Package scheduler provides a generic retrying task scheduler that owns a
// single instance of a wrapped capability and runs at most one scheduled
// task against it at a time.
package scheduler

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/displayctl/internal/foundation/errors"
	"git.home.luguber.info/inful/displayctl/internal/logfields"
)

// ExecutionMode controls when the first invocation of a scheduled task runs.
type ExecutionMode string

const (
	// RunImmediatelyThenSchedule runs the first attempt synchronously on the
	// calling goroutine before any delay. This is the default.
	RunImmediatelyThenSchedule ExecutionMode = "immediate_then_scheduled"
	// ScheduledOnly defers even the first attempt by the first delay.
	ScheduledOnly ExecutionMode = "scheduled_only"
)

// Options is the retry policy for a scheduled task: an ordered delay
// sequence (the last delay repeats indefinitely once exhausted) plus an
// execution mode.
type Options struct {
	SleepDurations []time.Duration
	Execution      ExecutionMode
}

// Validate ensures the policy can drive a retry loop.
func (o Options) Validate() error {
	if len(o.SleepDurations) == 0 {
		return ferrors.SchedulerError("at least one sleep duration is required").Build()
	}
	for _, d := range o.SleepDurations {
		if d <= 0 {
			return ferrors.SchedulerError("sleep durations must be positive").Build()
		}
	}
	switch o.Execution {
	case "", RunImmediatelyThenSchedule, ScheduledOnly:
		return nil
	default:
		return ferrors.SchedulerError("unknown execution mode").WithContext("mode", string(o.Execution)).Build()
	}
}

// StopToken is the cooperative cancellation handle passed into a scheduled
// task. The task requests stop explicitly; there is no forced preemption
// mid-attempt.
type StopToken struct {
	stopped atomic.Bool
}

// RequestStop marks the task as finished; no further attempts will run.
func (t *StopToken) RequestStop() {
	t.stopped.Store(true)
}

// StopRequested reports whether stop has been requested.
func (t *StopToken) StopRequested() bool {
	return t.stopped.Load()
}

// Task is a repeatable unit of work run against the wrapped instance.
type Task[T any] func(instance T, stop *StopToken)

type scheduledTask struct {
	id     uuid.UUID
	token  *StopToken
	cancel chan struct{}
	done   chan struct{}
}

// RetryScheduler owns exactly one instance of T. Scheduled tasks run on a
// background goroutine; Execute runs one-shot work synchronously. Access to
// the instance is serialized, so a one-shot call never interleaves with a
// scheduled attempt.
type RetryScheduler[T any] struct {
	instance T

	// execMu serializes all access to instance (attempts and Execute).
	execMu sync.Mutex

	// mu guards the current task slot.
	mu   sync.Mutex
	task *scheduledTask
}

// New creates a scheduler owning the given instance.
func New[T any](instance T) *RetryScheduler[T] {
	return &RetryScheduler[T]{instance: instance}
}

// Schedule registers a repeatable task, superseding any task that is still
// pending: the previous task is stopped synchronously before the new one
// starts. Returns the new task's ID for log correlation.
func (s *RetryScheduler[T]) Schedule(fn Task[T], opts Options) (uuid.UUID, error) {
	if err := opts.Validate(); err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCurrentLocked()

	task := &scheduledTask{
		id:     uuid.New(),
		token:  &StopToken{},
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}

	if opts.Execution != ScheduledOnly {
		s.runAttempt(fn, task.token)
		if task.token.StopRequested() {
			// Finished on the first, synchronous attempt.
			close(task.done)
			return task.id, nil
		}
	}

	s.task = task
	go s.retryLoop(task, fn, opts)
	return task.id, nil
}

// HasPendingTask reports whether a scheduled task is still retrying. A task
// that finished on its own no longer counts as pending even before its slot
// is reclaimed.
func (s *RetryScheduler[T]) HasPendingTask() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.task != nil && !s.task.token.StopRequested()
}

// Stop synchronously stops any pending scheduled task. An attempt that is
// already executing finishes first; a sleeping task is woken and exits
// without another attempt.
func (s *RetryScheduler[T]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCurrentLocked()
}

// stopCurrentLocked requires s.mu to be held.
func (s *RetryScheduler[T]) stopCurrentLocked() {
	if s.task == nil {
		return
	}
	s.task.token.RequestStop()
	close(s.task.cancel)
	<-s.task.done
	s.task = nil
}

func (s *RetryScheduler[T]) runAttempt(fn Task[T], token *StopToken) {
	s.execMu.Lock()
	defer s.execMu.Unlock()
	fn(s.instance, token)
}

func (s *RetryScheduler[T]) retryLoop(task *scheduledTask, fn Task[T], opts Options) {
	defer close(task.done)

	idx := 0
	timer := time.NewTimer(opts.SleepDurations[idx])
	defer timer.Stop()

	for {
		select {
		case <-task.cancel:
			return
		case <-timer.C:
		}

		if task.token.StopRequested() {
			// Stop was requested from a one-shot call while we slept.
			return
		}

		s.runAttempt(fn, task.token)
		if task.token.StopRequested() {
			slog.Debug("Scheduled task finished", logfields.TaskID(task.id.String()))
			return
		}

		// Repeat the last delay once the sequence is exhausted.
		if idx < len(opts.SleepDurations)-1 {
			idx++
		}
		timer.Reset(opts.SleepDurations[idx])
	}
}

// Execute runs fn synchronously against the owned instance, with no retry,
// and returns its result. Scheduled attempts are held off while fn runs.
func Execute[T, R any](s *RetryScheduler[T], fn func(instance T) R) R {
	s.execMu.Lock()
	defer s.execMu.Unlock()
	return fn(s.instance)
}

// ExecuteWithStop is Execute with access to the pending scheduled task's
// stop token, so a one-shot operation can also terminate in-flight retrying.
// If fn requests stop, the pending task is torn down before returning.
func ExecuteWithStop[T, R any](s *RetryScheduler[T], fn func(instance T, stop *StopToken) R) R {
	s.mu.Lock()
	token := &StopToken{}
	if s.task != nil {
		token = s.task.token
	}
	s.mu.Unlock()

	s.execMu.Lock()
	result := fn(s.instance, token)
	s.execMu.Unlock()

	if token.StopRequested() {
		s.Stop()
	}
	return result
}
