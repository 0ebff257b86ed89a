// Package version carries build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the current application version
	Version = "dev"
	// GitSHA is the git commit SHA
	GitSHA = "unknown"
	// BuildTime is the build timestamp
	BuildTime = "unknown"
)

// String is the one-line version banner.
func String() string {
	return fmt.Sprintf("scadc version %s", Version)
}

// Info describes the build for --info.
func Info() string {
	return fmt.Sprintf("scadc %s\nGit SHA: %s\nBuilt: %s\nGo: %s %s/%s",
		Version, GitSHA, BuildTime, runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
