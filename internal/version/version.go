// Package version holds the build information stamped into jira-comments.
package version

import (
	"fmt"
	"runtime"
)

const binaryName = "jira-comments"

// Set with -ldflags, e.g.
// go build -ldflags="-X github.com/andywolf/jiracomments/internal/version.Version=v0.3.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Short returns the bare version, "dev" for local builds.
func Short() string {
	return Version
}

// Info is the one-line form printed by `jira-comments version`.
func Info() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s)",
		binaryName, Version, shortCommit(), BuildDate, runtime.Version())
}

// Full is the multi-line form printed by `jira-comments version -v`.
func Full() string {
	return fmt.Sprintf("%s %s\n  Commit:     %s\n  Built:      %s\n  Go version: %s\n  OS/Arch:    %s/%s",
		binaryName, Version, Commit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

func shortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}
