package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.QuorumSize != 3 {
		t.Fatalf("default quorum should be 3, got %d", cfg.QuorumSize)
	}
	if cfg.SweepInterval() != 15*time.Second {
		t.Fatalf("default sweep interval should be 15s, got %v", cfg.SweepInterval())
	}
	if cfg.AllowInsecureAuth {
		t.Fatalf("insecure auth must be opt-in")
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "canvass.json")
	data := []byte(`{"httpAddr":":9090","quorumSize":5,"sweepIntervalSeconds":2,"log":{"level":"debug"}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("expected :9090, got %q", cfg.HTTPAddr)
	}
	if cfg.QuorumSize != 5 {
		t.Fatalf("expected quorum 5, got %d", cfg.QuorumSize)
	}
	if cfg.SweepInterval() != 2*time.Second {
		t.Fatalf("expected 2s sweep, got %v", cfg.SweepInterval())
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected debug level")
	}
	// untouched fields keep defaults
	if cfg.Log.Format != "text" {
		t.Fatalf("expected default format text, got %q", cfg.Log.Format)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "canvass.yaml")
	data := []byte("httpAddr: \":7070\"\nquorumSize: 4\nallowInsecureAuth: true\n")
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":7070" || cfg.QuorumSize != 4 || !cfg.AllowInsecureAuth {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("CANVASS_HTTP_ADDR", ":6060")
	t.Setenv("CANVASS_QUORUM_SIZE", "7")
	t.Setenv("CANVASS_SWEEP_INTERVAL_SECONDS", "3")
	t.Setenv("CANVASS_LOG_FORMAT", "json")
	FromEnv(&cfg)
	if cfg.HTTPAddr != ":6060" {
		t.Fatalf("env override addr")
	}
	if cfg.QuorumSize != 7 {
		t.Fatalf("env override quorum")
	}
	if cfg.SweepInterval() != 3*time.Second {
		t.Fatalf("env override sweep")
	}
	if cfg.Log.Format != "json" {
		t.Fatalf("env override log format")
	}
}

func TestFromEnvRejectsGarbage(t *testing.T) {
	cfg := Default()
	t.Setenv("CANVASS_QUORUM_SIZE", "zero")
	t.Setenv("CANVASS_SWEEP_INTERVAL_SECONDS", "-4")
	FromEnv(&cfg)
	if cfg.QuorumSize != 3 {
		t.Fatalf("garbage quorum should keep default")
	}
	if cfg.SweepInterval() != 15*time.Second {
		t.Fatalf("negative sweep should keep default")
	}
}
