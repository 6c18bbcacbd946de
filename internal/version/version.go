// Package version carries build metadata embedded at compile time via
// -ldflags, e.g.:
//
//	go build -ldflags "-X github.com/kbukum/kikitori/internal/version.Version=1.2.0"
package version

import "runtime/debug"

var (
	// Version is the release version, "dev" for local builds.
	Version = "dev"
	// GitCommit is the short commit hash of the build.
	GitCommit = ""
	// BuildTime is the RFC3339 build timestamp.
	BuildTime = ""
)

// Info is the serializable version payload.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit,omitempty"`
	BuildTime string `json:"build_time,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

// Get returns the build metadata, falling back to module build info for
// fields not set through ldflags.
func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.GoVersion = bi.GoVersion
		if info.GitCommit == "" {
			for _, s := range bi.Settings {
				if s.Key == "vcs.revision" && len(s.Value) >= 7 {
					info.GitCommit = s.Value[:7]
				}
			}
		}
	}
	return info
}
