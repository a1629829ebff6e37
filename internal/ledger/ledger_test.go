package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/rzbill/canvass/internal/repo"
	pebblestore "github.com/rzbill/canvass/internal/storage/pebble"
)

func newTestLedger(t *testing.T) (*Ledger, *repo.Repository) {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	r := repo.New(db)
	return New(r, 3), r
}

func openSurvey(t *testing.T, r *repo.Repository) repo.Survey {
	t.Helper()
	s, err := r.CreateSurvey("lunch", "creator", "hq", time.Now().Add(time.Hour), []string{"x", "y"})
	if err != nil {
		t.Fatalf("create survey: %v", err)
	}
	return s
}

func TestSubmitVoteAccepted(t *testing.T) {
	l, r := newTestLedger(t)
	s := openSurvey(t, r)

	res, err := l.SubmitVote("c1", s.ID, "x")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Duplicate || res.QuorumReached || res.VoterCount != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestSubmitVoteDuplicateIsNotAnError(t *testing.T) {
	l, r := newTestLedger(t)
	s := openSurvey(t, r)

	if _, err := l.SubmitVote("c1", s.ID, "x"); err != nil {
		t.Fatalf("first: %v", err)
	}
	res, err := l.SubmitVote("c1", s.ID, "y")
	if err != nil {
		t.Fatalf("duplicate must not fail: %v", err)
	}
	if !res.Duplicate {
		t.Fatalf("expected duplicate flag")
	}
	if res.VoterCount != 1 {
		t.Fatalf("duplicate must not change voter count: %d", res.VoterCount)
	}
	if res.QuorumReached {
		t.Fatalf("duplicate must not trigger quorum")
	}
}

func TestSubmitVoteQuorum(t *testing.T) {
	l, r := newTestLedger(t)
	s := openSurvey(t, r)

	for i, clientID := range []string{"c1", "c2"} {
		res, err := l.SubmitVote(clientID, s.ID, "x")
		if err != nil {
			t.Fatalf("vote %d: %v", i, err)
		}
		if res.QuorumReached {
			t.Fatalf("quorum should not fire at %d voters", res.VoterCount)
		}
	}
	res, err := l.SubmitVote("c3", s.ID, "y")
	if err != nil {
		t.Fatalf("third vote: %v", err)
	}
	if !res.QuorumReached || res.VoterCount != 3 {
		t.Fatalf("third distinct voter should reach quorum: %+v", res)
	}
}

func TestSubmitVoteClosedSurvey(t *testing.T) {
	l, r := newTestLedger(t)
	s := openSurvey(t, r)
	if _, err := r.CloseSurvey(s.ID); err != nil {
		t.Fatalf("close: %v", err)
	}

	_, err := l.SubmitVote("c1", s.ID, "x")
	if !errors.Is(err, ErrSurveyClosed) {
		t.Fatalf("want ErrSurveyClosed, got %v", err)
	}
	if n, _ := r.CountVoters(s.ID); n != 0 {
		t.Fatalf("voter count must be unchanged, got %d", n)
	}
}

func TestSubmitVoteUnknownOption(t *testing.T) {
	l, r := newTestLedger(t)
	s := openSurvey(t, r)

	_, err := l.SubmitVote("c1", s.ID, "z")
	if !errors.Is(err, ErrOptionNotFound) {
		t.Fatalf("want ErrOptionNotFound, got %v", err)
	}
}

func TestSubmitVoteUnknownSurvey(t *testing.T) {
	l, _ := newTestLedger(t)
	_, err := l.SubmitVote("c1", "ghost", "x")
	if !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestQuorumIsConfigurable(t *testing.T) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	r := repo.New(db)
	l := New(r, 2)
	s := openSurvey(t, r)

	if _, err := l.SubmitVote("c1", s.ID, "x"); err != nil {
		t.Fatalf("vote: %v", err)
	}
	res, err := l.SubmitVote("c2", s.ID, "x")
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if !res.QuorumReached {
		t.Fatalf("quorum of 2 should fire on the second voter")
	}
}
