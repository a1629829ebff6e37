package serverrun

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	cfgpkg "github.com/rzbill/canvass/internal/config"
	pebblestore "github.com/rzbill/canvass/internal/storage/pebble"
)

func TestOptionsDataDirFallback(t *testing.T) {
	tests := []struct {
		name     string
		dataDir  string
		expected string
	}{
		{
			name:     "empty data dir uses default",
			dataDir:  "",
			expected: "", // Will be set to DefaultDataDir() in the function
		},
		{
			name:     "provided data dir is preserved",
			dataDir:  "/custom/data",
			expected: "/custom/data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Options{
				DataDir:  tt.dataDir,
				HTTPAddr: ":8080",
				Fsync:    pebblestore.FsyncModeAlways,
				Config:   cfgpkg.Default(),
			}

			if opts.DataDir == "" {
				opts.DataDir = cfgpkg.DefaultDataDir()
			}

			if tt.expected == "" {
				if opts.DataDir == "" {
					t.Error("Expected DataDir to be set after fallback")
				}
			} else {
				if opts.DataDir != tt.expected {
					t.Errorf("Expected DataDir %s, got %s", tt.expected, opts.DataDir)
				}
			}
		})
	}
}

func TestDataDirStoreSubdirectory(t *testing.T) {
	baseDir := "/tmp/canvass"
	expectedStoreDir := filepath.Join(baseDir, "store")

	opts := Options{DataDir: baseDir}

	storeDir := filepath.Join(opts.DataDir, "store")
	if storeDir != expectedStoreDir {
		t.Errorf("Expected store dir %s, got %s", expectedStoreDir, storeDir)
	}
}

// TestRunIntegration is a basic integration test that verifies Run can be called
// without immediately failing. This is a minimal test since Run starts actual servers.
func TestRunIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tempDir := t.TempDir()

	cfg := cfgpkg.Default()
	cfg.Log.Level = "error"
	opts := Options{
		DataDir:  tempDir,
		HTTPAddr: ":0", // automatic port selection
		Fsync:    pebblestore.FsyncModeNever,
		Config:   cfg,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := Run(ctx, opts)
	if err != nil && err != context.DeadlineExceeded && err != context.Canceled {
		t.Errorf("Expected context cancellation error, got %v", err)
	}
}
