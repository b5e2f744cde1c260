/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"runtime"

	"github.com/go-openapi/strfmt"
)

// Set with -ldflags "-X github.com/suparena/itemstore.GitCommit=..." at release time.
var (
	Version   = "0.3.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// VersionInfo describes the running build.
type VersionInfo struct {
	Version   string           `json:"version"`
	GitCommit string           `json:"gitCommit"`
	BuildDate *strfmt.DateTime `json:"buildDate,omitempty"`
	GoVersion string           `json:"goVersion"`
}

// GetVersionInfo returns the version information. BuildDate is left nil unless the
// injected value is an RFC 3339 timestamp.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
	}
	if dt, err := strfmt.ParseDateTime(BuildDate); err == nil {
		info.BuildDate = &dt
	}
	return info
}
