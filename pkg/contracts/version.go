package contracts

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

const (
	Version = "1.2.0"

	// DataFormatVersion identifies the set of CSV schemas the loader accepts.
	DataFormatVersion = "v1"

	APIVersion = "v1"
)

// Overridden with -ldflags "-X mktpulse/pkg/contracts.GitCommit=...".
var (
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// VersionInfo is served by /api/version and printed by datacheck --version.
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	DataFormat   string `json:"data_format"`
	APIVersion   string `json:"api_version"`
}

// GetVersionInfo falls back to the VCS revision stamped by the Go
// toolchain when GitCommit was not set at link time.
func GetVersionInfo() VersionInfo {
	commit := GitCommit
	if commit == "unknown" {
		if bi, ok := debug.ReadBuildInfo(); ok {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && s.Value != "" {
					commit = s.Value
				}
			}
		}
	}
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    commit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		DataFormat:   DataFormatVersion,
		APIVersion:   APIVersion,
	}
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("%s (data format %s, commit %s, %s %s/%s)",
		v.Version, v.DataFormat, v.GitCommit, v.GoVersion, v.OS, v.Architecture)
}
