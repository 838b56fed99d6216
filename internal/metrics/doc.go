// Package metrics defines the observability hooks for display configuration
// operations and a Prometheus-backed implementation.
package metrics
