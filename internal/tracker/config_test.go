package tracker

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()

	err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o600)
	if err != nil {
		t.Fatalf("writing config: %v", err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(LoadConfigInput{WorkDirOverride: dir, Env: map[string]string{}})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.DataDir != ".ttrack" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}

	if cfg.Timezone != "UTC" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}

	if cfg.DataDirAbs != filepath.Join(dir, ".ttrack") {
		t.Errorf("DataDirAbs = %q", cfg.DataDirAbs)
	}

	if len(cfg.AllowSet()) != 0 {
		t.Error("default allow-list should be empty")
	}
}

func TestLoadConfigReadsJSONCProjectFile(t *testing.T) {
	dir := t.TempDir()

	writeConfigFile(t, dir, `{
		// lineages worth mirroring
		"allowed_root_task_ids": ["111", "222"],
		"timezone": "Europe/Berlin",
	}`)

	cfg, err := LoadConfig(LoadConfigInput{WorkDirOverride: dir, Env: map[string]string{}})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := []string{"111", "222"}
	if diff := cmp.Diff(want, cfg.AllowedRootTaskIDs); diff != "" {
		t.Errorf("allow-list mismatch (-want +got):\n%s", diff)
	}

	if cfg.Timezone != "Europe/Berlin" {
		t.Errorf("Timezone = %q", cfg.Timezone)
	}

	if cfg.Sources.Project == "" {
		t.Error("project source should be recorded")
	}
}

func TestEnvOverrideReplacesConfigAllowList(t *testing.T) {
	dir := t.TempDir()

	writeConfigFile(t, dir, `{"allowed_root_task_ids": ["from-file"]}`)

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: dir,
		Env:             map[string]string{AllowListEnvVar: " 333 ,444,, "},
	})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	want := []string{"333", "444"}
	if diff := cmp.Diff(want, cfg.AllowedRootTaskIDs); diff != "" {
		t.Errorf("env override mismatch (-want +got):\n%s", diff)
	}
}

func TestEnvOverrideSetEmptyDisablesAllowList(t *testing.T) {
	dir := t.TempDir()

	writeConfigFile(t, dir, `{"allowed_root_task_ids": ["from-file"]}`)

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: dir,
		Env:             map[string]string{AllowListEnvVar: ""},
	})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if len(cfg.AllowSet()) != 0 {
		t.Errorf("explicit empty override should clear the list, got %v", cfg.AllowedRootTaskIDs)
	}
}

func TestLoadConfigRejectsInvalidTimezone(t *testing.T) {
	dir := t.TempDir()

	writeConfigFile(t, dir, `{"timezone": "Mars/OlympusMons"}`)

	_, err := LoadConfig(LoadConfigInput{WorkDirOverride: dir, Env: map[string]string{}})
	if !errors.Is(err, ErrTimezoneInvalid) {
		t.Errorf("expected ErrTimezoneInvalid, got %v", err)
	}
}

func TestLoadConfigRejectsExplicitlyEmptyDataDir(t *testing.T) {
	dir := t.TempDir()

	writeConfigFile(t, dir, `{"data_dir": ""}`)

	_, err := LoadConfig(LoadConfigInput{WorkDirOverride: dir, Env: map[string]string{}})
	if !errors.Is(err, ErrDataDirEmpty) {
		t.Errorf("expected ErrDataDirEmpty, got %v", err)
	}
}

func TestLoadConfigExplicitPathMustExist(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: dir,
		ConfigPath:      "nope.json",
		Env:             map[string]string{},
	})
	if !errors.Is(err, ErrConfigFileNotFound) {
		t.Errorf("expected ErrConfigFileNotFound, got %v", err)
	}
}

func TestGlobalConfigIsOverriddenByProject(t *testing.T) {
	home := t.TempDir()
	work := t.TempDir()

	globalDir := filepath.Join(home, ".config", "ttrack")

	err := os.MkdirAll(globalDir, 0o750)
	if err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	err = os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(`{"timezone":"America/New_York","data_dir":"global-data"}`), 0o600)
	if err != nil {
		t.Fatalf("writing global config: %v", err)
	}

	writeConfigFile(t, work, `{"data_dir":"project-data"}`)

	cfg, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: work,
		Env:             map[string]string{"HOME": home},
	})
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.DataDir != "project-data" {
		t.Errorf("project config should win, got %q", cfg.DataDir)
	}

	if cfg.Timezone != "America/New_York" {
		t.Errorf("global timezone should survive, got %q", cfg.Timezone)
	}
}

func TestAllowSetSkipsEmptyIDs(t *testing.T) {
	cfg := Config{AllowedRootTaskIDs: []string{"1", "", "2"}}

	set := cfg.AllowSet()
	if len(set) != 2 || !set["1"] || !set["2"] {
		t.Errorf("AllowSet = %v", set)
	}
}
