package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderDefaults(t *testing.T) {
	err := NewError(CategoryDisplay, "apply failed").Build()

	assert.Equal(t, CategoryDisplay, err.Category())
	assert.Equal(t, SeverityError, err.Severity())
	assert.Equal(t, RetryNever, err.Retry())
	assert.False(t, err.IsRetryable())
	assert.Equal(t, "display (error): apply failed", err.Error())
}

func TestBuilderModifiers(t *testing.T) {
	err := SchedulerError("task stuck").
		Fatal().
		Retryable().
		WithContext("task_id", "abc").
		Build()

	assert.Equal(t, SeverityFatal, err.Severity())
	assert.Equal(t, RetryBackoff, err.Retry())
	assert.True(t, err.IsRetryable())

	v, ok := err.Context().Get("task_id")
	require.True(t, ok)
	assert.Equal(t, "abc", v)
}

func TestWrapErrorPreservesChain(t *testing.T) {
	cause := stderrors.New("disk full")
	err := WrapError(cause, CategoryPersistence, "save failed").Build()

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, err.Error(), "save failed")
}

func TestCategoryHelpers(t *testing.T) {
	err := ValidationError("bad input").Build()

	assert.True(t, IsCategory(err, CategoryValidation))
	assert.False(t, IsCategory(err, CategoryDisplay))
	assert.Equal(t, CategoryValidation, GetCategory(err))

	// Plain errors default to internal.
	plain := stderrors.New("plain")
	assert.False(t, IsCategory(plain, CategoryValidation))
	assert.Equal(t, CategoryInternal, GetCategory(plain))
	assert.False(t, IsRetryable(plain))
}

func TestCategoryDetectionThroughWrapping(t *testing.T) {
	inner := PlatformError("unsupported").WithSeverity(SeverityInfo).Build()
	outer := WrapError(inner, CategoryDisplay, "init failed").Build()

	// The outermost classification wins, but errors.Is still reaches the cause.
	assert.Equal(t, CategoryDisplay, GetCategory(outer))
	assert.ErrorIs(t, outer, inner)
}

func TestConvenienceConstructors(t *testing.T) {
	cases := map[ErrorCategory]*ErrorBuilder{
		CategoryValidation:  ValidationError("m"),
		CategoryConfig:      ConfigError("m"),
		CategoryDisplay:     DisplayError("m"),
		CategoryPlatform:    PlatformError("m"),
		CategoryPersistence: PersistenceError("m"),
		CategoryScheduler:   SchedulerError("m"),
		CategoryDaemon:      DaemonError("m"),
	}
	for want, builder := range cases {
		assert.Equal(t, want, builder.Build().Category())
	}
}

func TestErrorContextMerge(t *testing.T) {
	a := ErrorContext{"k1": 1, "k2": 2}
	b := ErrorContext{"k2": 22, "k3": 3}

	merged := a.Merge(b)
	v, _ := merged.Get("k2")
	assert.Equal(t, 22, v)
	v, _ = merged.Get("k1")
	assert.Equal(t, 1, v)

	var nilCtx ErrorContext
	assert.Equal(t, b, nilCtx.Merge(b))
	_, ok := nilCtx.Get("missing")
	assert.False(t, ok)
}
