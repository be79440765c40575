// Package buildinfo holds metadata stamped into the binary at build time.
package buildinfo

import (
	"runtime/debug"
	"strings"
)

const unknown = "unknown"

// Info describes the running binary.
type Info struct {
	Version   string
	BuildDate string
	Commit    string
}

// New returns Info for version and buildDate, as set with -ldflags. The
// commit is read from the embedded VCS stamp when present.
func New(version, buildDate string) Info {
	info := Info{Version: version, BuildDate: buildDate}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.Commit = commitFrom(bi.Settings)
	}
	return info
}

func commitFrom(settings []debug.BuildSetting) string {
	var revision string
	dirty := false
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	if revision != "" && dirty {
		revision += "-dirty"
	}
	return revision
}

// GetVersion returns the version, "unknown" when unset.
func (i Info) GetVersion() string {
	if i.Version == "" {
		return unknown
	}
	return i.Version
}

// GetBuildDate returns the build date, "unknown" when unset.
func (i Info) GetBuildDate() string {
	if i.BuildDate == "" {
		return unknown
	}
	return i.BuildDate
}

// String renders "version (commit, built date)" for --version output.
func (i Info) String() string {
	var details []string
	if i.Commit != "" {
		details = append(details, i.Commit)
	}
	details = append(details, "built "+i.GetBuildDate())
	return i.GetVersion() + " (" + strings.Join(details, ", ") + ")"
}
