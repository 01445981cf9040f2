// Package version holds build-time identification set via ldflags.
package version

import "fmt"

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String returns a single-line rendering for the version subcommand and
// the /api/version endpoint.
func String() string {
	return fmt.Sprintf("crater-report %s (%s, built %s)", Version, GitSHA, BuildTime)
}
