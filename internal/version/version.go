// Package version holds build information injected at link time.
package version

import "fmt"

// Set via -ldflags "-X github.com/EmundoT/pkgguard/internal/version.Version=..." by GoReleaser.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// GetVersion returns the version string, "dev" for local builds.
func GetVersion() string {
	return Version
}

// GetFullVersion returns version with build information
// Format: "v0.1.0 (commit: abc123, built: 2026-01-02T10:30:00Z)"
func GetFullVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
