// Package version reports the module build version for diagnostics.
package version

import (
	"runtime/debug"
	"strings"
)

// buildVersion is set via -ldflags "-X pkt.systems/shutdownmeta/internal/version.buildVersion=...".
var buildVersion = ""

// Current returns the best available version string.
func Current() string {
	if strings.TrimSpace(buildVersion) != "" {
		return buildVersion
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		if v := strings.TrimSpace(info.Main.Version); v != "" && v != "(devel)" {
			return v
		}
	}
	return "v0.0.0-unknown"
}
