package clientsvc

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/rzbill/canvass/internal/auth"
	"github.com/rzbill/canvass/internal/repo"
	pebblestore "github.com/rzbill/canvass/internal/storage/pebble"
	"github.com/rzbill/canvass/pkg/log"
)

func newService(t *testing.T, verifier auth.Verifier) (*Service, *repo.Repository) {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	r := repo.New(db)
	return New(r, verifier, log.NewLogger(log.WithLevel(log.FatalLevel))), r
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService(t, auth.AcceptAll{})
	if _, err := svc.Register("", "pk"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank name: %v", err)
	}
	if _, err := svc.Register("alice", " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank key: %v", err)
	}
	c, err := svc.Register("alice", "pk")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if c.ID == "" || !c.Logged {
		t.Fatalf("registered client should be live with an id: %+v", c)
	}
}

func TestLoginVerifiesSignatureOverClientID(t *testing.T) {
	svc, r := newService(t, auth.Ed25519Verifier{})

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	c, err := svc.Register("alice", base64.StdEncoding.EncodeToString(pub))
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.SetClientLiveness(c.ID, false); err != nil {
		t.Fatalf("liveness: %v", err)
	}

	if err := svc.Login(c.ID, []byte("bogus")); !errors.Is(err, auth.ErrUnauthorized) {
		t.Fatalf("bad signature: %v", err)
	}
	if err := svc.Login(c.ID, ed25519.Sign(priv, []byte(c.ID))); err != nil {
		t.Fatalf("login: %v", err)
	}
	got, err := r.FindClient(c.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.Logged {
		t.Fatalf("login should turn liveness on")
	}
}

func TestLoginUnknownClient(t *testing.T) {
	svc, _ := newService(t, auth.AcceptAll{})
	if err := svc.Login("ghost", nil); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestConnectedDisconnected(t *testing.T) {
	svc, r := newService(t, auth.AcceptAll{})
	c, err := svc.Register("alice", "pk")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := svc.Disconnected(c.ID); err != nil {
		t.Fatalf("disconnected: %v", err)
	}
	if got, _ := r.FindClient(c.ID); got.Logged {
		t.Fatalf("should be not live after Disconnected")
	}
	if err := svc.Connected(c.ID); err != nil {
		t.Fatalf("connected: %v", err)
	}
	if got, _ := r.FindClient(c.ID); !got.Logged {
		t.Fatalf("should be live after Connected")
	}
}
