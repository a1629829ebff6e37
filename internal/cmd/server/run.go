package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/rzbill/canvass/internal/auth"
	cfgpkg "github.com/rzbill/canvass/internal/config"
	"github.com/rzbill/canvass/internal/ledger"
	"github.com/rzbill/canvass/internal/mailbox"
	"github.com/rzbill/canvass/internal/notify"
	"github.com/rzbill/canvass/internal/runtime"
	"github.com/rzbill/canvass/internal/scheduler"
	httpserver "github.com/rzbill/canvass/internal/server/http"
	clientsvc "github.com/rzbill/canvass/internal/services/clients"
	surveysvc "github.com/rzbill/canvass/internal/services/surveys"
	pebblestore "github.com/rzbill/canvass/internal/storage/pebble"
	logpkg "github.com/rzbill/canvass/pkg/log"
)

type Options struct {
	DataDir  string
	HTTPAddr string
	Fsync    pebblestore.FsyncMode
	Config   cfgpkg.Config
}

// Run starts the HTTP server and the deadline sweeper and blocks until
// ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	// Be robust to callers that don't pass a signal-aware context
	// or if signal delivery needs to be observed here. We layer a
	// local signal context over the provided one.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := opts.Config
	if opts.DataDir == "" {
		opts.DataDir = cfg.DataDir
	}
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if opts.HTTPAddr == "" {
		opts.HTTPAddr = cfg.HTTPAddr
	}

	procLogger, err := logpkg.ApplyConfig(&logpkg.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Log.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}

	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	storeDir := filepath.Join(opts.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{DataDir: storeDir, Fsync: opts.Fsync, Config: cfg})
	if err != nil {
		return err
	}
	defer rt.Close()

	var verifier auth.Verifier = auth.Ed25519Verifier{}
	if cfg.AllowInsecureAuth {
		procLogger.Warn("signature verification disabled, accepting all callers")
		verifier = auth.AcceptAll{}
	}

	reg := mailbox.NewRegistry()
	bus := notify.NewBus(rt.Repo(), notify.NewMailboxTransport(reg), procLogger)
	clientsSvc := clientsvc.New(rt.Repo(), verifier, procLogger.With(logpkg.Component("clients")))
	surveysSvc := surveysvc.New(rt.Repo(), ledger.New(rt.Repo(), cfg.QuorumSize), bus, verifier, procLogger.With(logpkg.Component("surveys")))
	sweeper := scheduler.NewSweeper(rt.Repo(), surveysSvc, cfg.SweepInterval(), procLogger)

	procLogger.Info("Starting canvass server",
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Int("quorum", cfg.QuorumSize),
		logpkg.Duration("sweep_interval", cfg.SweepInterval()),
		logpkg.Str("level", cfg.Log.Level),
		logpkg.Str("format", cfg.Log.Format),
	)

	hsrv := httpserver.New(rt, httpserver.Deps{
		Clients:  clientsSvc,
		Surveys:  surveysSvc,
		Bus:      bus,
		Registry: reg,
	}, procLogger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		sweeper.Run(sctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("http server error", logpkg.Err(err))
		}
	}()

	<-sctx.Done()
	// Shut servers down before closing the runtime/DB to avoid races.
	hsrv.Close()
	wg.Wait()
	return nil
}
