package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wesm/kanbanpulse/internal/dashboard"
)

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KANBANPULSE_DATA_DIR", t.TempDir())

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("host = %q", cfg.Host)
	}
	if cfg.Port != 8090 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.DBPath != filepath.Join(cfg.DataDir, "kanban.db") {
		t.Errorf("db path = %q", cfg.DBPath)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KANBANPULSE_DATA_DIR", dir)
	writeConfigFile(t, dir, `{
		"host": "0.0.0.0",
		"port": 9000,
		"triage": {"stuck_after_minutes": 45, "inbox_limit": 10}
	}`)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Host != "0.0.0.0" || cfg.Port != 9000 {
		t.Errorf("file layer not applied: %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.Triage.StuckAfterMinutes != 45 {
		t.Errorf("triage override not applied: %+v", cfg.Triage)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KANBANPULSE_DATA_DIR", dir)
	t.Setenv("KANBANPULSE_HOST", "192.168.1.5")
	t.Setenv("KANBANPULSE_PORT", "7777")
	writeConfigFile(t, dir, `{"host": "0.0.0.0", "port": 9000}`)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Host != "192.168.1.5" {
		t.Errorf("env host not applied: %q", cfg.Host)
	}
	if cfg.Port != 7777 {
		t.Errorf("env port not applied: %d", cfg.Port)
	}
}

func TestLoadFlagsWinOverEverything(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KANBANPULSE_DATA_DIR", dir)
	t.Setenv("KANBANPULSE_PORT", "7777")
	writeConfigFile(t, dir, `{"port": 9000}`)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.String("host", "127.0.0.1", "")
	fs.Int("port", 8090, "")
	fs.String("data-dir", "", "")
	if err := fs.Parse([]string{"--port", "6000"}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != 6000 {
		t.Errorf("flag port not applied: %d", cfg.Port)
	}
	// Unset flags must not clobber lower layers with defaults.
	if cfg.Host != "127.0.0.1" {
		t.Errorf("host = %q", cfg.Host)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("KANBANPULSE_DATA_DIR", dir)
	writeConfigFile(t, dir, `{not json`)

	if _, err := Load(nil); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestReadTriage(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, `{
		"port": 9000,
		"triage": {
			"high_activity_threshold": 7,
			"at_risk_failure_ratio": 0.8
		}
	}`)

	tri, err := ReadTriage(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("ReadTriage failed: %v", err)
	}
	if tri.HighActivityThreshold != 7 {
		t.Errorf("threshold = %d", tri.HighActivityThreshold)
	}
	if tri.AtRiskFailureRatio != 0.8 {
		t.Errorf("ratio = %v", tri.AtRiskFailureRatio)
	}
}

func TestReadTriageMissingFile(t *testing.T) {
	tri, err := ReadTriage(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("ReadTriage failed: %v", err)
	}
	if tri != (TriageConfig{}) {
		t.Errorf("missing file should yield zero overrides: %+v", tri)
	}
}

func TestTriageThresholdsConversion(t *testing.T) {
	tri := TriageConfig{
		HighActivityThreshold: 4,
		AtRiskMinSample:       10,
		AtRiskFailureRatio:    0.6,
		StuckAfterMinutes:     15,
		InboxLimit:            5,
		RecentLimit:           5,
		ActiveLimit:           5,
	}
	th := tri.Thresholds()
	want := dashboard.Thresholds{
		HighActivity:       4,
		AtRiskMinSample:    10,
		AtRiskFailureRatio: 0.6,
		StuckAfter:         15 * time.Minute,
		InboxLimit:         5,
		RecentLimit:        5,
		ActiveLimit:        5,
	}
	if th != want {
		t.Errorf("Thresholds() = %+v, want %+v", th, want)
	}
}
