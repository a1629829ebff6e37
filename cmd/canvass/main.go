package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	clientcmd "github.com/rzbill/canvass/internal/cmd/client"
	serverrun "github.com/rzbill/canvass/internal/cmd/server"
	cfgpkg "github.com/rzbill/canvass/internal/config"
	pebblestore "github.com/rzbill/canvass/internal/storage/pebble"
	logpkg "github.com/rzbill/canvass/pkg/log"
)

func main() {
	// Local .env is convenient in dev; absence is not an error.
	_ = godotenv.Load()

	// Respect CANVASS_LOG_LEVEL for both CLI and server start output
	level := os.Getenv("CANVASS_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by Pebble) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "canvass",
		Short: "Canvass survey server CLI",
		Long:  "Canvass is a single-binary survey server. This CLI manages the server and talks to it as a client.",
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start canvass server",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			fsyncMode, _ := cmd.Flags().GetString("fsync")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")
			quorum, _ := cmd.Flags().GetInt("quorum")
			sweepSeconds, _ := cmd.Flags().GetInt("sweep-interval-s")
			insecureAuth, _ := cmd.Flags().GetBool("allow-insecure-auth")

			mode := pebblestore.FsyncModeAlways
			switch fsyncMode {
			case "never":
				mode = pebblestore.FsyncModeNever
			case "interval":
				mode = pebblestore.FsyncModeInterval
			case "always":
				mode = pebblestore.FsyncModeAlways
			default:
				return fmt.Errorf("invalid --fsync; use always|interval|never")
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg := cfgpkg.Default()
			if configFile != "" {
				loaded, err := cfgpkg.Load(configFile)
				if err != nil {
					return fmt.Errorf("config %s: %w", configFile, err)
				}
				cfg = loaded
			}
			cfgpkg.FromEnv(&cfg)
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			if logFormat != "" {
				cfg.Log.Format = logFormat
			}
			if quorum > 0 {
				cfg.QuorumSize = quorum
			}
			if sweepSeconds > 0 {
				cfg.SweepIntervalSeconds = sweepSeconds
			}
			if insecureAuth {
				cfg.AllowInsecureAuth = true
			}
			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:  dataDir,
				HTTPAddr: httpAddr,
				Fsync:    mode,
				Config:   cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("config", "", "Config file (JSON or YAML)")
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("http", "", "HTTP listen address (default :8080)")
	serverStartCmd.Flags().String("fsync", "always", "Fsync mode: always|interval|never")
	serverStartCmd.Flags().String("log-level", os.Getenv("CANVASS_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("CANVASS_LOG_FORMAT"), "Log format: text|json (default text)")
	serverStartCmd.Flags().Int("quorum", 0, "Distinct voters that close a survey (default 3)")
	serverStartCmd.Flags().Int("sweep-interval-s", 0, "Deadline sweep interval in seconds (default 15)")
	serverStartCmd.Flags().Bool("allow-insecure-auth", false, "Accept requests without verifying signatures (dev only)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// client command groups
	rootCmd.AddCommand(clientcmd.NewAccountCommand(apiURL))
	rootCmd.AddCommand(clientcmd.NewSurveyCommand(apiURL))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("CANVASS_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
