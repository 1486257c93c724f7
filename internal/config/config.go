// Package config loads application configuration by layering:
// defaults < config file < environment < flags. Only explicitly
// set flags override the lower layers.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wesm/kanbanpulse/internal/dashboard"
)

// Config holds all application configuration.
type Config struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	DataDir      string        `json:"data_dir"`
	DBPath       string        `json:"-"`
	WriteTimeout time.Duration `json:"-"`

	Triage TriageConfig `json:"triage"`
}

// TriageConfig overrides the triage heuristic thresholds. Zero
// values fall through to the dashboard defaults.
type TriageConfig struct {
	HighActivityThreshold int     `json:"high_activity_threshold"`
	AtRiskMinSample       int     `json:"at_risk_min_sample"`
	AtRiskFailureRatio    float64 `json:"at_risk_failure_ratio"`
	StuckAfterMinutes     int     `json:"stuck_after_minutes"`
	InboxLimit            int     `json:"inbox_limit"`
	RecentLimit           int     `json:"recent_limit"`
	ActiveLimit           int     `json:"active_limit"`
}

// Thresholds converts the overrides into dashboard thresholds.
func (t TriageConfig) Thresholds() dashboard.Thresholds {
	return dashboard.Thresholds{
		HighActivity:       t.HighActivityThreshold,
		AtRiskMinSample:    t.AtRiskMinSample,
		AtRiskFailureRatio: t.AtRiskFailureRatio,
		StuckAfter: time.Duration(t.StuckAfterMinutes) *
			time.Minute,
		InboxLimit:  t.InboxLimit,
		RecentLimit: t.RecentLimit,
		ActiveLimit: t.ActiveLimit,
	}
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	dataDir := filepath.Join(home, ".kanbanpulse")
	return Config{
		Host:         "127.0.0.1",
		Port:         8090,
		DataDir:      dataDir,
		DBPath:       filepath.Join(dataDir, "kanban.db"),
		WriteTimeout: 30 * time.Second,
	}, nil
}

// Load builds a Config by layering: defaults < config file < env
// < flags. The provided FlagSet must already be parsed by the
// caller.
func Load(fs *flag.FlagSet) (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	// The data dir decides where the config file lives, so that
	// env var has to apply before the file is read.
	if v := os.Getenv("KANBANPULSE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	cfg.loadEnv()
	applyFlags(&cfg, fs)
	cfg.DBPath = filepath.Join(cfg.DataDir, "kanban.db")
	return cfg, nil
}

// ConfigPath returns the path of the JSON config file inside the
// data directory.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.DataDir, "config.json")
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.ConfigPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file struct {
		Host   string        `json:"host"`
		Port   int           `json:"port"`
		Triage *TriageConfig `json:"triage"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if file.Host != "" {
		c.Host = file.Host
	}
	if file.Port != 0 {
		c.Port = file.Port
	}
	if file.Triage != nil {
		c.Triage = *file.Triage
	}
	return nil
}

func (c *Config) loadEnv() {
	if v := os.Getenv("KANBANPULSE_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("KANBANPULSE_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("KANBANPULSE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
}

// applyFlags copies explicitly set flags onto the config.
func applyFlags(c *Config, fs *flag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			c.Host = f.Value.String()
		case "port":
			if port, err := strconv.Atoi(f.Value.String()); err == nil {
				c.Port = port
			}
		case "data-dir":
			c.DataDir = f.Value.String()
		}
	})
}

// ReadTriage re-reads only the triage section of the config file,
// for hot reload. A missing file yields the zero overrides (all
// defaults).
func ReadTriage(path string) (TriageConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return TriageConfig{}, nil
	}
	if err != nil {
		return TriageConfig{}, err
	}

	var file struct {
		Triage TriageConfig `json:"triage"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return TriageConfig{}, fmt.Errorf("parsing config: %w", err)
	}
	return file.Triage, nil
}
