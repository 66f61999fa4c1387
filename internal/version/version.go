// Package version holds build metadata for apidump.
package version

import (
	"runtime"
	"runtime/debug"
)

// These variables can be overridden at build time using ldflags:
// go build -ldflags "-X apidump/internal/version.Version=1.0.0 -X apidump/internal/version.Commit=abc123"
var (
	// Version is the semantic version of apidump
	Version = "0.4.0"

	// Commit is the git commit hash (set at build time)
	Commit = "unknown"

	// BuildDate is the build timestamp (set at build time)
	BuildDate = "unknown"
)

// BuildInfo is the machine readable form printed by "apidump version --json".
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// Current returns the build metadata, falling back to the VCS stamp the Go
// toolchain embeds when no ldflags were given.
func Current() BuildInfo {
	info := BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				if info.Commit == "unknown" {
					info.Commit = s.Value
				}
			case "vcs.time":
				if info.BuildDate == "unknown" {
					info.BuildDate = s.Value
				}
			}
		}
	}
	return info
}

// Info returns a formatted version string
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns complete version information
func Full() string {
	info := Current()
	return "apidump version " + info.Version + "\n" +
		"Commit: " + info.Commit + "\n" +
		"Built: " + info.BuildDate + "\n" +
		"Go: " + info.GoVersion
}
