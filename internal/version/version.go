// Package version carries build metadata injected at link time.
package version

import "fmt"

// Set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Info returns a one-line human-readable version string.
func Info() string {
	return fmt.Sprintf("gtahub %s (commit %s, built %s)", Version, Commit, Date)
}
