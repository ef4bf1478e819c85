// Package config provides configuration loading for vigil.
// Settings come from a YAML file with defaults applied for anything unset.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DutyKillPolicy controls how a kill between two on-duty enforcers is
// handled. The source rules leave this administratively ambiguous, so it
// is a configuration hook rather than a fixed rule.
type DutyKillPolicy string

const (
	// KillPolicyLogOnly records the event but applies no alert effect.
	KillPolicyLogOnly DutyKillPolicy = "log_only"
	// KillPolicyPenalize raises the killer's alert level.
	KillPolicyPenalize DutyKillPolicy = "penalize"
	// KillPolicyIgnore records nothing.
	KillPolicyIgnore DutyKillPolicy = "ignore"
)

// IsValid returns true if the policy is one of the known values.
func (p DutyKillPolicy) IsValid() bool {
	return p == KillPolicyLogOnly || p == KillPolicyPenalize || p == KillPolicyIgnore
}

// Config represents the complete vigil configuration.
type Config struct {
	DataDir          string         `yaml:"data_dir"`
	DatabaseFile     string         `yaml:"database_file"`
	Workers          int            `yaml:"workers"`
	PursuitRetention time.Duration  `yaml:"pursuit_retention"`
	CacheTTL         time.Duration  `yaml:"cache_ttl"`
	PursuitDuration  time.Duration  `yaml:"pursuit_duration"`
	TransitionDelay  time.Duration  `yaml:"transition_delay"`
	DutyKillPolicy   DutyKillPolicy `yaml:"duty_kill_policy"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir:          defaultDataDir(),
		DatabaseFile:     "vigil.db",
		Workers:          4,
		PursuitRetention: 24 * time.Hour,
		CacheTTL:         7 * 24 * time.Hour,
		PursuitDuration:  5 * time.Minute,
		TransitionDelay:  3 * time.Second,
		DutyKillPolicy:   KillPolicyLogOnly,
	}
}

// Load reads a YAML config file and overlays it on the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the engine cannot run with.
func (c *Config) Validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.PursuitRetention <= 0 {
		return fmt.Errorf("pursuit_retention must be positive, got %s", c.PursuitRetention)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache_ttl must be positive, got %s", c.CacheTTL)
	}
	if !c.DutyKillPolicy.IsValid() {
		return fmt.Errorf("unknown duty_kill_policy %q", c.DutyKillPolicy)
	}
	return nil
}

// DatabasePath returns the full path of the SQLite database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".vigil"
	}
	return filepath.Join(home, ".vigil")
}
