package tracker

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWindowDefaultsToLast24Hours(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	since, until := RunState{}.Window(now)

	if !until.Equal(now) {
		t.Errorf("until = %v, want %v", until, now)
	}

	if !since.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("since = %v, want now-24h", since)
	}
}

func TestWindowUsesWatermark(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	state := RunState{LastRunISO: "2024-02-20T08:30:00Z"}

	since, until := state.Window(now)

	if got := since.Format(time.RFC3339); got != "2024-02-20T08:30:00Z" {
		t.Errorf("since = %s, want watermark", got)
	}

	if !until.Equal(now) {
		t.Errorf("until = %v, want %v", until, now)
	}
}

func TestWindowIgnoresMalformedWatermark(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	since, _ := RunState{LastRunISO: "not-a-time"}.Window(now)

	if !since.Equal(now.Add(-24 * time.Hour)) {
		t.Errorf("since = %v, want now-24h fallback", since)
	}
}

func TestRunStateSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	err := RunState{LastRunISO: "2024-03-01T12:00:00Z"}.Save(dir)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	state := LoadRunState(dir)
	if state.LastRunISO != "2024-03-01T12:00:00Z" {
		t.Errorf("LastRunISO = %q", state.LastRunISO)
	}
}

func TestLoadRunStateMissingOrMalformedIsZero(t *testing.T) {
	dir := t.TempDir()

	if got := LoadRunState(dir); got.LastRunISO != "" {
		t.Errorf("missing state should be zero, got %+v", got)
	}

	err := os.WriteFile(filepath.Join(dir, StateFileName), []byte("{broken"), 0o600)
	if err != nil {
		t.Fatalf("writing state: %v", err)
	}

	if got := LoadRunState(dir); got.LastRunISO != "" {
		t.Errorf("malformed state should be zero, got %+v", got)
	}
}
