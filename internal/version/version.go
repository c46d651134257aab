package version

import "fmt"

// Version is set at build time:
// go build -ldflags "-X git.home.luguber.info/inful/classdoc/internal/version.Version=v1.0.0".
var Version = "dev"

// Build metadata, also set through ldflags.
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// String describes the running binary for --version output.
func String() string {
	return fmt.Sprintf("classdoc %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}
