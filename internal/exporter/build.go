package exporter

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// ArtifactLayout versions the column layout of the CSV artifacts. Bump it
// when a column is renamed, removed or changes meaning.
const ArtifactLayout = "v1"

// BuildInfo identifies the binary that produced a run.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuiltAt   string `json:"built_at,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// NewBuildInfo completes the values stamped at link time with the toolchain
// and platform. An empty commit falls back to the VCS revision recorded by
// the go command, suffixed "-dirty" for a modified tree.
func NewBuildInfo(version, commit, builtAt string) BuildInfo {
	b := BuildInfo{
		Version:   version,
		Commit:    commit,
		BuiltAt:   builtAt,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if b.Commit == "" {
		b.Commit = vcsRevision()
	}
	if b.Commit == "" {
		b.Commit = "unknown"
	}
	return b
}

func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev != "" && dirty {
		rev += "-dirty"
	}
	return rev
}

// String is the one-line form printed by -version.
func (b BuildInfo) String() string {
	s := fmt.Sprintf("football-proxies %s (commit %s", b.Version, b.Commit)
	if b.BuiltAt != "" {
		s += ", built " + b.BuiltAt
	}
	return s + fmt.Sprintf(", %s %s, artifacts %s)", b.GoVersion, b.Platform, ArtifactLayout)
}
