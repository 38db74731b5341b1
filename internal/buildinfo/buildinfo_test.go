package buildinfo

import (
	"runtime/debug"
	"testing"
)

func TestSummary(t *testing.T) {
	oldV, oldC, oldD, oldRead := Version, Commit, Date, readBuildInfo
	defer func() { Version, Commit, Date, readBuildInfo = oldV, oldC, oldD, oldRead }()
	readBuildInfo = func() (*debug.BuildInfo, bool) { return nil, false }

	tests := []struct {
		version, commit, date string
		want                  string
	}{
		{"", "", "", "dev"},
		{"1.2.3", "", "", "1.2.3"},
		{"1.2.3", "abcdef0123", "2026-10-14", "1.2.3 (commit=abcdef0, date=2026-10-14)"},
	}
	for _, tt := range tests {
		Version, Commit, Date = tt.version, tt.commit, tt.date
		if got := Summary(); got != tt.want {
			t.Fatalf("Summary() = %q, want %q", got, tt.want)
		}
	}
}

func TestSummaryFallsBackToVCSRevision(t *testing.T) {
	oldV, oldC, oldD, oldRead := Version, Commit, Date, readBuildInfo
	defer func() { Version, Commit, Date, readBuildInfo = oldV, oldC, oldD, oldRead }()
	Version, Commit, Date = "dev", "", ""
	readBuildInfo = func() (*debug.BuildInfo, bool) {
		return &debug.BuildInfo{Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "feedfacecafe"}}}, true
	}

	if got := Summary(); got != "dev (commit=feedfac)" {
		t.Fatalf("Summary() = %q", got)
	}
}
