// Package misc keeps build identification used across the program.
package misc

import (
	"runtime/debug"
	"strings"
)

// Set at build time with -ldflags "-X ppx/misc.version=... -X ppx/misc.gitHash=...".
var (
	appName = "ppx"
	version = "development"
	gitHash = ""
)

// GetAppName returns short program name used in logs, reports and panic files.
func GetAppName() string {
	return appName
}

// GetVersion returns program version as set during build.
func GetVersion() string {
	return version
}

// GetGitHash returns VCS revision the program was built from. When not
// injected at build time it is read from the build info.
func GetGitHash() string {
	if len(gitHash) > 0 {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		var rev, dirty string
		for _, s := range bi.Settings {
			switch s.Key {
			case "vcs.revision":
				rev = s.Value
			case "vcs.modified":
				if s.Value == "true" {
					dirty = "*"
				}
			}
		}
		if len(rev) > 0 {
			if len(rev) > 12 {
				rev = rev[:12]
			}
			return rev + dirty
		}
	}
	return "unknown"
}

// GetEnvironment returns string suitable for version reporting.
func GetEnvironment() string {
	var sb strings.Builder
	sb.WriteString(GetVersion())
	if h := GetGitHash(); len(h) > 0 && h != "unknown" {
		sb.WriteString(" (")
		sb.WriteString(h)
		sb.WriteString(")")
	}
	return sb.String()
}
