package buildinfo

import (
	"encoding/json"
	"runtime"
	"strings"
	"testing"
)

func TestGet_Defaults(t *testing.T) {
	info := Get()

	if info.Version != "dev" {
		t.Errorf("expected Version='dev', got %q", info.Version)
	}
	if info.BuildTime != "unknown" {
		t.Errorf("expected BuildTime='unknown', got %q", info.BuildTime)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("expected GoVersion=%q, got %q", runtime.Version(), info.GoVersion)
	}
	if info.Platform != runtime.GOOS+"/"+runtime.GOARCH {
		t.Errorf("unexpected Platform %q", info.Platform)
	}
	if info.Commit == "" {
		t.Error("Commit should never be empty")
	}
}

func TestGet_LdflagValues(t *testing.T) {
	origV, origC, origB := Version, Commit, BuildTime
	defer func() { Version, Commit, BuildTime = origV, origC, origB }()

	Version, Commit, BuildTime = "v0.3.0", "4c1d2e9", "2026-10-01T09:00:00Z"

	info := Get()
	if info.Commit != "4c1d2e9" {
		t.Errorf("ldflag commit should win, got %q", info.Commit)
	}
	if got := String(); got != "v0.3.0 (4c1d2e9, 2026-10-01T09:00:00Z)" {
		t.Errorf("String() = %q", got)
	}
}

func TestInfo_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(Get())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"version", "commit", "build_time", "go_version", "platform"} {
		if !strings.Contains(string(data), `"`+key+`"`) {
			t.Errorf("missing JSON key %q in %s", key, data)
		}
	}
}
