// Package version exposes build-time version metadata.
package version

import "fmt"

// Version contains the application version information.
// This should be set via build-time ldflags in production:
// go build -ldflags "-X git.home.luguber.info/inful/displayctl/internal/version.Version=v1.2.0".
var Version = "unknown"

// BuildInfo contains additional build metadata.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String renders the version with commit metadata when available.
func String() string {
	if GitCommit == "unknown" {
		return Version
	}
	return fmt.Sprintf("%s (%s)", Version, GitCommit)
}
