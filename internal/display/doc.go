// Package display defines the display configuration value types and the
// parser that turns a user policy plus live session data into a validated
// SingleDisplayConfiguration.
package display
