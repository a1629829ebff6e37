package runtime

import (
	"context"
	"errors"

	cfgpkg "github.com/rzbill/canvass/internal/config"
	"github.com/rzbill/canvass/internal/repo"
	pebblestore "github.com/rzbill/canvass/internal/storage/pebble"
)

// Options for building the Runtime.
type Options struct {
	DataDir string
	Fsync   pebblestore.FsyncMode
	Config  cfgpkg.Config
}

// Runtime wires storage, config, and the repository for a single-node instance.
type Runtime struct {
	db     *pebblestore.DB
	config cfgpkg.Config
	repo   *repo.Repository
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: opts.DataDir, Fsync: opts.Fsync})
	if err != nil {
		return nil, err
	}
	rt := &Runtime{db: db, config: opts.Config, repo: repo.New(db)}
	return rt, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// Repo returns the shared repository backed by this runtime's storage.
func (r *Runtime) Repo() *repo.Repository { return r.repo }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }
