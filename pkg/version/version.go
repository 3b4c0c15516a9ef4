// Package version reports the build of the running binary.
package version

import (
	"runtime"
	"runtime/debug"
)

// Version is overridden at build time with -ldflags "-X github.com/cbodonnell/angelreaper/pkg/version.Version=v1.2.3".
var Version = "dev"

type Info struct {
	Version   string `json:"version"`
	Revision  string `json:"revision,omitempty"`
	GoVersion string `json:"goVersion"`
}

// Get returns the version along with the VCS revision embedded by the go tool, if any.
func Get() Info {
	info := Info{
		Version:   Version,
		GoVersion: runtime.Version(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				info.Revision = s.Value
			}
		}
	}
	return info
}

func (i Info) String() string {
	if i.Revision == "" {
		return i.Version
	}
	rev := i.Revision
	if len(rev) > 7 {
		rev = rev[:7]
	}
	return i.Version + " (" + rev + ")"
}
