package version

import (
	"fmt"
	"runtime/debug"
	"time"
)

// These variables are set at build time using -ldflags.
var (
	Version = "dev"
	Commit  = ""
)

// Info describes the running build.
type Info struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit,omitempty"`
	GoVersion string    `json:"go_version,omitempty"`
	BuildTime time.Time `json:"build_time,omitempty"`
	Dirty     bool      `json:"dirty,omitempty"`
}

// Get returns the build information, filling unset fields from the VCS
// metadata embedded by the Go toolchain.
func Get() Info {
	info := Info{
		Version: Version,
		Commit:  Commit,
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = buildInfo.GoVersion

	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			if info.Commit == "" {
				info.Commit = shortCommit(setting.Value)
			}
		case "vcs.time":
			if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
				info.BuildTime = t
			}
		case "vcs.modified":
			info.Dirty = setting.Value == "true"
		}
	}
	return info
}

// String returns a human-readable version line.
func (i Info) String() string {
	s := i.Version
	if i.Commit != "" {
		s = fmt.Sprintf("%s (%s)", s, i.Commit)
	}
	if i.Dirty {
		s += " [dirty]"
	}
	return s
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}
