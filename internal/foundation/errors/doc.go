// Package errors provides a structured error type (ClassifiedError) with
// category, severity and retry-strategy classification, plus a fluent
// builder for constructing them consistently across the codebase.
package errors
