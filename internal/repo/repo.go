package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	pebblestore "github.com/rzbill/canvass/internal/storage/pebble"
)

// ErrNotFound is returned when a client or survey does not exist.
var ErrNotFound = errors.New("not found")

// Repository persists clients, surveys, and votes in Pebble.
//
// Two operations are read-modify-write and carry their own lock: vote
// insertion (voteMu serializes the check-then-insert per process) and
// client/survey document updates (docMu). Reads are lock-free.
type Repository struct {
	db *pebblestore.DB

	voteMu sync.Mutex
	docMu  sync.Mutex
}

// New creates a Repository over an open store.
func New(db *pebblestore.DB) *Repository { return &Repository{db: db} }

// CreateClient persists a new client with a fresh id and liveness on.
func (r *Repository) CreateClient(name, publicKey string) (Client, error) {
	c := Client{
		ID:        uuid.NewString(),
		Name:      name,
		PublicKey: publicKey,
		Logged:    true,
	}
	if err := r.putClient(c); err != nil {
		return Client{}, err
	}
	return c, nil
}

// FindClient loads a client by id.
func (r *Repository) FindClient(clientID string) (Client, error) {
	b, err := r.db.Get(keyClient(clientID))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return Client{}, fmt.Errorf("client %s: %w", clientID, ErrNotFound)
		}
		return Client{}, err
	}
	var c Client
	if err := json.Unmarshal(b, &c); err != nil {
		return Client{}, fmt.Errorf("client %s: decode: %w", clientID, err)
	}
	return c, nil
}

// SetClientLiveness flips the client's push-delivery liveness flag.
func (r *Repository) SetClientLiveness(clientID string, live bool) error {
	r.docMu.Lock()
	defer r.docMu.Unlock()
	c, err := r.FindClient(clientID)
	if err != nil {
		return err
	}
	if c.Logged == live {
		return nil
	}
	c.Logged = live
	return r.putClient(c)
}

// ListLiveClients returns every client whose liveness flag is on, in id order.
func (r *Repository) ListLiveClients() ([]Client, error) {
	var out []Client
	err := r.db.ScanPrefix(clientPrefix, func(_, value []byte) bool {
		var c Client
		if json.Unmarshal(value, &c) == nil && c.Logged {
			out = append(out, c)
		}
		return true
	})
	return out, err
}

func (r *Repository) putClient(c Client) error {
	b, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.db.Set(keyClient(c.ID), b)
}

// CreateSurvey persists a new open survey with a fresh id.
func (r *Repository) CreateSurvey(title, createdBy, location string, dueDate time.Time, options []string) (Survey, error) {
	s := Survey{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedBy: createdBy,
		Location:  location,
		DueDate:   dueDate,
		Closed:    false,
		Options:   append([]string(nil), options...),
	}
	if err := r.putSurvey(s); err != nil {
		return Survey{}, err
	}
	return s, nil
}

// FindSurvey loads a survey by id.
func (r *Repository) FindSurvey(surveyID string) (Survey, error) {
	b, err := r.db.Get(keySurvey(surveyID))
	if err != nil {
		if errors.Is(err, pebblestore.ErrNotFound) {
			return Survey{}, fmt.Errorf("survey %s: %w", surveyID, ErrNotFound)
		}
		return Survey{}, err
	}
	var s Survey
	if err := json.Unmarshal(b, &s); err != nil {
		return Survey{}, fmt.Errorf("survey %s: decode: %w", surveyID, err)
	}
	return s, nil
}

// ListSurveys returns every survey, in id order.
func (r *Repository) ListSurveys() ([]Survey, error) {
	var out []Survey
	err := r.db.ScanPrefix(surveyPrefix, func(_, value []byte) bool {
		var s Survey
		if json.Unmarshal(value, &s) == nil {
			out = append(out, s)
		}
		return true
	})
	return out, err
}

// ListOpenSurveysPastDue returns open surveys whose due date is at or before now.
func (r *Repository) ListOpenSurveysPastDue(now time.Time) ([]Survey, error) {
	all, err := r.ListSurveys()
	if err != nil {
		return nil, err
	}
	var out []Survey
	for _, s := range all {
		if !s.Closed && !s.DueDate.After(now) {
			out = append(out, s)
		}
	}
	return out, nil
}

// CloseSurvey sets closed=true. It reports whether this call actually changed
// state; a close of an already-closed survey is a no-op and returns false.
// The changed flag is the single serialization point for close triggers:
// whoever observes the flip owns the follow-up notification.
func (r *Repository) CloseSurvey(surveyID string) (bool, error) {
	r.docMu.Lock()
	defer r.docMu.Unlock()
	s, err := r.FindSurvey(surveyID)
	if err != nil {
		return false, err
	}
	if s.Closed {
		return false, nil
	}
	s.Closed = true
	if err := r.putSurvey(s); err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) putSurvey(s Survey) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.db.Set(keySurvey(s.ID), b)
}

// RecordVoteIfAbsent inserts a vote unless the client already voted on the
// survey. Returns true iff a new vote was written. The check and the insert
// run under the vote lock, so two racing votes from the same client cannot
// both be admitted.
func (r *Repository) RecordVoteIfAbsent(clientID, surveyID, option string) (bool, error) {
	r.voteMu.Lock()
	defer r.voteMu.Unlock()

	key := keyVote(surveyID, clientID)
	exists, err := r.db.Has(key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	b, err := json.Marshal(Vote{ClientID: clientID, SurveyID: surveyID, Option: option})
	if err != nil {
		return false, err
	}
	if err := r.db.Set(key, b); err != nil {
		return false, err
	}
	return true, nil
}

// CountVoters returns the number of distinct clients that voted on a survey.
func (r *Repository) CountVoters(surveyID string) (int, error) {
	n := 0
	err := r.db.ScanPrefix(keyVoteScan(surveyID), func(_, _ []byte) bool {
		n++
		return true
	})
	return n, err
}

// ListVotersOf returns the client ids that voted on a survey, in key order.
func (r *Repository) ListVotersOf(surveyID string) ([]string, error) {
	var out []string
	err := r.db.ScanPrefix(keyVoteScan(surveyID), func(_, value []byte) bool {
		var v Vote
		if json.Unmarshal(value, &v) == nil {
			out = append(out, v.ClientID)
		}
		return true
	})
	return out, err
}

// ListVotes returns every vote cast on a survey.
func (r *Repository) ListVotes(surveyID string) ([]Vote, error) {
	var out []Vote
	err := r.db.ScanPrefix(keyVoteScan(surveyID), func(_, value []byte) bool {
		var v Vote
		if json.Unmarshal(value, &v) == nil {
			out = append(out, v)
		}
		return true
	})
	return out, err
}
