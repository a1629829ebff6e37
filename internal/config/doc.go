// Package config provides loading and environment overlay for Canvass
// server configuration. It exposes a Default() baseline, file loading from
// JSON or YAML, and a CANVASS_* environment overlay.
//
// Example:
//
//	cfg := config.Default()
//	if fileCfg, err := config.Load("/etc/canvass.yaml"); err == nil {
//	    cfg = fileCfg
//	}
//	config.FromEnv(&cfg)
package config
