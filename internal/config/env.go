package config

import (
	"os"
	"strconv"
)

// FromEnv overlays CANVASS_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("CANVASS_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("CANVASS_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("CANVASS_QUORUM_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QuorumSize = n
		}
	}
	if v := os.Getenv("CANVASS_SWEEP_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SweepIntervalSeconds = n
		}
	}
	if v := os.Getenv("CANVASS_ALLOW_INSECURE_AUTH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.AllowInsecureAuth = b
		}
	}
	if v := os.Getenv("CANVASS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CANVASS_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}
