/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package itemstore

import (
	"runtime"
	"testing"
	"time"
)

func TestGetVersionInfo(t *testing.T) {
	saved := BuildDate
	defer func() { BuildDate = saved }()

	BuildDate = "unknown"
	info := GetVersionInfo()
	if info.BuildDate != nil {
		t.Fatalf("Expected no build date, got %v", info.BuildDate)
	}
	if info.GoVersion != runtime.Version() || info.Version != Version {
		t.Fatalf("Unexpected version info: %+v", info)
	}

	BuildDate = "2026-10-01T08:00:00Z"
	info = GetVersionInfo()
	if info.BuildDate == nil {
		t.Fatal("Expected build date to be parsed")
	}
	want := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	if !time.Time(*info.BuildDate).Equal(want) {
		t.Fatalf("Expected %v, got %v", want, time.Time(*info.BuildDate))
	}
}
