package errors

// ErrorBuilder provides a fluent API for creating ClassifiedError instances.
// This makes error creation consistent and discoverable throughout the codebase.
type ErrorBuilder struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// NewError creates a new ErrorBuilder with the specified category and message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  make(ErrorContext),
	}
}

// WrapError creates a new ErrorBuilder that wraps an existing error.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		cause:    err,
		context:  make(ErrorContext),
	}
}

// WithSeverity sets the error severity.
func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.severity = severity
	return b
}

// WithRetry sets the retry strategy.
func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.retry = strategy
	return b
}

// WithContext adds a context key-value pair.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.context = b.context.Set(key, value)
	return b
}

// Fatal sets the severity to fatal.
func (b *ErrorBuilder) Fatal() *ErrorBuilder {
	return b.WithSeverity(SeverityFatal)
}

// Warning sets the severity to warning.
func (b *ErrorBuilder) Warning() *ErrorBuilder {
	return b.WithSeverity(SeverityWarning)
}

// Retryable sets the retry strategy to backoff.
func (b *ErrorBuilder) Retryable() *ErrorBuilder {
	return b.WithRetry(RetryBackoff)
}

// Build creates the final ClassifiedError.
func (b *ErrorBuilder) Build() *ClassifiedError {
	return &ClassifiedError{
		category: b.category,
		severity: b.severity,
		retry:    b.retry,
		message:  b.message,
		cause:    b.cause,
		context:  b.context,
	}
}

// ValidationError creates a builder for a validation error.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).WithSeverity(SeverityWarning)
}

// ConfigError creates a builder for a configuration error.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message)
}

// DisplayError creates a builder for a display subsystem error.
func DisplayError(message string) *ErrorBuilder {
	return NewError(CategoryDisplay, message)
}

// PlatformError creates a builder for a platform support error.
func PlatformError(message string) *ErrorBuilder {
	return NewError(CategoryPlatform, message)
}

// PersistenceError creates a builder for a persistence store error.
func PersistenceError(message string) *ErrorBuilder {
	return NewError(CategoryPersistence, message)
}

// SchedulerError creates a builder for a scheduler error.
func SchedulerError(message string) *ErrorBuilder {
	return NewError(CategoryScheduler, message)
}

// DaemonError creates a builder for a daemon runtime error.
func DaemonError(message string) *ErrorBuilder {
	return NewError(CategoryDaemon, message)
}
