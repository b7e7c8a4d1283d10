// Package buildinfo reports the version of the attend binary.
package buildinfo

import (
	"runtime"
	"runtime/debug"
)

// These vars are set at build time via ldflags:
// -X github.com/otherjamesbrown/attend-cli/pkg/buildinfo.Version=v0.3.0
// -X github.com/otherjamesbrown/attend-cli/pkg/buildinfo.Commit=4c1d2e9
// -X github.com/otherjamesbrown/attend-cli/pkg/buildinfo.BuildTime=2026-10-01T09:00:00Z
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Info holds build information.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildTime string `json:"build_time" yaml:"build_time"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns build info. When Commit was not set by ldflags, the VCS
// revision embedded by the go command is used if present.
func Get() Info {
	info := Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if info.Commit == "unknown" {
		if rev, ok := vcsRevision(); ok {
			info.Commit = rev
		}
	}
	return info
}

func vcsRevision() (string, bool) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range bi.Settings {
		if s.Key == "vcs.revision" && s.Value != "" {
			if len(s.Value) > 7 {
				return s.Value[:7], true
			}
			return s.Value, true
		}
	}
	return "", false
}

// String returns a human-readable one-liner like "v0.3.0 (4c1d2e9, 2026-10-01T09:00:00Z)"
func String() string {
	i := Get()
	return i.Version + " (" + i.Commit + ", " + i.BuildTime + ")"
}
