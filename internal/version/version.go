/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version reports build information.
package version

import (
	"runtime"
	"runtime/debug"
)

// Version is the current version of panchangd.
// This is set at build time via ldflags:
//
//	-X github.com/friendsincode/panchangam/internal/version.Version=X.Y.Z
var Version = "0.4.0"

// BuildInfo describes the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Modified  bool   `json:"modified,omitempty"`
	GoVersion string `json:"go_version"`
}

// Info returns the version plus VCS details embedded by the toolchain.
func Info() BuildInfo {
	info := BuildInfo{Version: Version, GoVersion: runtime.Version()}
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Commit = s.Value
			if len(info.Commit) > 12 {
				info.Commit = info.Commit[:12]
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// String renders "X.Y.Z (commit)".
func (b BuildInfo) String() string {
	if b.Commit == "" {
		return b.Version
	}
	s := b.Version + " (" + b.Commit
	if b.Modified {
		s += "-dirty"
	}
	return s + ")"
}
