package main

import (
	"os"

	"github.com/aatumaykin/housekeeper/internal/version"
)

// Set via -ldflags "-X main.Version=..." at build time.
var (
	Version   string
	BuildTime string
	GitCommit string
	GoVersion string
)

func init() {
	version.SetInfo(Version, BuildTime, GitCommit, GoVersion)
}

func main() {
	rootCmd.Version = version.Version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
