package runtime

import (
	"context"
	"testing"

	cfgpkg "github.com/rzbill/canvass/internal/config"
	pebblestore "github.com/rzbill/canvass/internal/storage/pebble"
)

func TestOpenCloseHealth(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer rt.Close()
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestRepoSharesStorage(t *testing.T) {
	dir := t.TempDir()
	rt, err := Open(Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	c, err := rt.Repo().CreateClient("alice", "pk")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := rt.Repo().FindClient(c.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Name != "alice" {
		t.Fatalf("unexpected client: %+v", got)
	}
}
