// Package ledger enforces one-vote-per-client-per-survey and quorum counting.
//
// The ledger validates and records votes but never touches survey state;
// whether a quorum result closes the survey is the lifecycle's decision.
package ledger

import (
	"errors"
	"fmt"

	"github.com/rzbill/canvass/internal/repo"
)

var (
	// ErrSurveyClosed rejects votes on a survey that already closed.
	ErrSurveyClosed = errors.New("survey already closed")
	// ErrOptionNotFound rejects options outside the survey's declared set.
	ErrOptionNotFound = errors.New("option not found")
)

// Result is the outcome of an accepted (or repeated) vote.
type Result struct {
	// Duplicate is true when this client had already voted on the survey.
	// A duplicate changes nothing: same voter count, no quorum trigger.
	Duplicate bool
	// VoterCount is the number of distinct voters after this submission.
	VoterCount int
	// QuorumReached is true when the post-vote voter count reached the
	// configured quorum. Only a freshly accepted vote can set it; it is
	// the sole trigger for the lifecycle's quorum-close path.
	QuorumReached bool
}

// Ledger validates and records votes.
type Ledger struct {
	repo   *repo.Repository
	quorum int
}

// New creates a ledger with the given quorum size (minimum distinct voters
// that forces a survey closed).
func New(r *repo.Repository, quorum int) *Ledger {
	if quorum <= 0 {
		quorum = 3
	}
	return &Ledger{repo: r, quorum: quorum}
}

// Quorum returns the configured quorum size.
func (l *Ledger) Quorum() int { return l.quorum }

// SubmitVote validates the preconditions and records the vote. A repeated
// vote from the same client is reported via Result.Duplicate and is not an
// error. Caller identity must already be verified.
func (l *Ledger) SubmitVote(clientID, surveyID, option string) (Result, error) {
	s, err := l.repo.FindSurvey(surveyID)
	if err != nil {
		return Result{}, err
	}
	if s.Closed {
		return Result{}, fmt.Errorf("survey %s: %w", surveyID, ErrSurveyClosed)
	}
	if !s.HasOption(option) {
		return Result{}, fmt.Errorf("survey %s option %q: %w", surveyID, option, ErrOptionNotFound)
	}

	inserted, err := l.repo.RecordVoteIfAbsent(clientID, surveyID, option)
	if err != nil {
		return Result{}, err
	}
	count, err := l.repo.CountVoters(surveyID)
	if err != nil {
		return Result{}, err
	}
	if !inserted {
		return Result{Duplicate: true, VoterCount: count}, nil
	}
	return Result{VoterCount: count, QuorumReached: count >= l.quorum}, nil
}
