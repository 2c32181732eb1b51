// Package version holds the build version, overridden with -ldflags.
package version

import "runtime/debug"

// Version is set at build time: -ldflags "-X .../pkg/version.Version=v1.2.3".
var Version = "dev"

// String returns Version, or the module version when built with go install.
func String() string {
	if Version != "dev" {
		return Version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return Version
}
