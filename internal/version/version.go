package version

import (
	"fmt"

	"github.com/aatumaykin/housekeeper/internal/constants"
)

var (
	Version   = constants.DefaultVersion
	BuildTime = constants.DefaultBuildTime
	GitCommit = constants.DefaultGitCommit
	GoVersion = constants.DefaultGoVersion
)

// SetInfo overrides the build information. Empty values are ignored.
func SetInfo(v, bt, gc, gv string) {
	if v != "" {
		Version = v
	}
	if bt != "" {
		BuildTime = bt
	}
	if gc != "" {
		GitCommit = gc
	}
	if gv != "" {
		GoVersion = gv
	}
}

// FormatStartupMessage returns the one-line banner logged by long-running commands.
func FormatStartupMessage() string {
	return fmt.Sprintf("housekeeper %s (commit %s, built %s)", Version, GitCommit, BuildTime)
}

// FormatDetails returns the multi-line output of `housekeeper version`.
func FormatDetails() string {
	return fmt.Sprintf("Housekeeper - directory archive and cleanup tool\nVersion: %s\nBuild Time: %s\nGit Commit: %s\nGo Version: %s\n",
		Version, BuildTime, GitCommit, GoVersion)
}
