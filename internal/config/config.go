package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// HTTPAddr is the HTTP listen address.
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	// DataDir is the root data directory; the store lives beneath it.
	DataDir string `json:"dataDir" yaml:"dataDir"`

	// QuorumSize is the number of distinct voters that forces a survey
	// closed.
	QuorumSize int `json:"quorumSize" yaml:"quorumSize"`
	// SweepIntervalSeconds is how often the deadline sweeper looks for
	// past-due open surveys.
	SweepIntervalSeconds int `json:"sweepIntervalSeconds" yaml:"sweepIntervalSeconds"`

	// AllowInsecureAuth replaces signature verification with an
	// unconditional accept. Development only; never the default.
	AllowInsecureAuth bool `json:"allowInsecureAuth" yaml:"allowInsecureAuth"`

	Log LogConfig `json:"log" yaml:"log"`
}

// LogConfig captures logging tunables.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		HTTPAddr:             ":8080",
		QuorumSize:           3,
		SweepIntervalSeconds: 15,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SweepInterval returns the sweep period as a duration, falling back to the
// default when unset or nonsensical.
func (c Config) SweepInterval() time.Duration {
	if c.SweepIntervalSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// Load reads configuration from a JSON or YAML file (by extension). If path
// is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}
