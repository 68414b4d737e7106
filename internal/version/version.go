// Package version holds build-time version information for the journal binary.
// The variables are populated at build time via -ldflags:
//
//	go build -ldflags="-X github.com/Badar25/Journal-backend/internal/version.Version=v1.2.3 \
//	                    -X github.com/Badar25/Journal-backend/internal/version.Commit=abc1234 \
//	                    -X github.com/Badar25/Journal-backend/internal/version.BuildDate=2026-01-01"
//
// Without ldflags (e.g. `go run`) the values fall back to placeholders.
package version

import "fmt"

// Version is the semantic version of the binary (e.g. "v1.2.3").
var Version = "dev"

// Commit is the short git SHA the binary was built from.
var Commit = "unknown"

// BuildDate is the UTC build date (RFC3339).
var BuildDate = "unknown"

// String renders all three fields on one line.
func String() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildDate)
}
