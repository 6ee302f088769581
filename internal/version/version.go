package version

import "runtime/debug"

// Version and Revision are set at build time via ldflags. When built without
// ldflags (e.g. `go install`), Revision falls back to VCS build info.
var (
	Version  = "0.1.0"
	Revision = "unknown"
)

func init() {
	if Revision != "unknown" {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, kv := range info.Settings {
		if kv.Key == "vcs.revision" {
			Revision = kv.Value
		}
	}
}
