package version

import "fmt"

// Build metadata, overridable at link time via -ldflags so released
// installer binaries report the tag and commit they were cut from.
var (
	// Version is the semantic version of the installer build.
	Version = "1.0.0"
	// Commit is the short git SHA the binary was built from (or "none").
	Commit = "none"
	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"
)

// Short returns only the semantic version, e.g. for User-Agent headers.
func Short() string {
	return Version
}

// Full returns the version together with commit and build time.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s", Version, Commit, BuildTime)
}
