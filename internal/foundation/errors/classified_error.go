package errors

import (
	stderrors "errors"
	"fmt"
)

// ClassifiedError is a structured error carrying category, severity,
// retry strategy and optional context. Fields are immutable after Build.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.category, e.severity, e.message, e.cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.category, e.severity, e.message)
}

// Unwrap supports errors.Is / errors.As chains.
func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

// Category returns the error category.
func (e *ClassifiedError) Category() ErrorCategory { return e.category }

// Severity returns the error severity.
func (e *ClassifiedError) Severity() ErrorSeverity { return e.severity }

// Retry returns the retry strategy.
func (e *ClassifiedError) Retry() RetryStrategy { return e.retry }

// Context returns the structured context (may be nil).
func (e *ClassifiedError) Context() ErrorContext { return e.context }

// IsRetryable reports whether the error may be retried at all.
func (e *ClassifiedError) IsRetryable() bool {
	return e.retry != RetryNever
}

// IsCategory checks if err (or anything it wraps) belongs to the category.
func IsCategory(err error, category ErrorCategory) bool {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce.category == category
	}
	return false
}

// GetCategory extracts the category from an error chain, defaulting to CategoryInternal.
func GetCategory(err error) ErrorCategory {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce.category
	}
	return CategoryInternal
}

// IsRetryable reports whether an arbitrary error is classified retryable.
func IsRetryable(err error) bool {
	var ce *ClassifiedError
	if stderrors.As(err, &ce) {
		return ce.IsRetryable()
	}
	return false
}
