package surveysvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rzbill/canvass/internal/auth"
	"github.com/rzbill/canvass/internal/ledger"
	"github.com/rzbill/canvass/internal/mailbox"
	"github.com/rzbill/canvass/internal/notify"
	"github.com/rzbill/canvass/internal/repo"
	"github.com/rzbill/canvass/pkg/log"
)

var (
	// ErrInvalidInput rejects creation requests with missing fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotVoted rejects a consult from a client that has not voted on
	// the survey.
	ErrNotVoted = errors.New("client has not voted on this survey")
)

// Service drives the survey lifecycle.
type Service struct {
	repo     *repo.Repository
	ledger   *ledger.Ledger
	bus      *notify.Bus
	verifier auth.Verifier
	logger   log.Logger
}

// New creates the survey service.
func New(r *repo.Repository, l *ledger.Ledger, bus *notify.Bus, verifier auth.Verifier, logger log.Logger) *Service {
	return &Service{repo: r, ledger: l, bus: bus, verifier: verifier, logger: logger}
}

// verifyClient resolves the client and checks the signature over message.
func (s *Service) verifyClient(clientID string, message, signature []byte) (repo.Client, error) {
	c, err := s.repo.FindClient(clientID)
	if err != nil {
		return repo.Client{}, err
	}
	if err := s.verifier.Verify(c.PublicKey, message, signature); err != nil {
		return repo.Client{}, fmt.Errorf("client %s: %w", clientID, auth.ErrUnauthorized)
	}
	return c, nil
}

// Create validates and persists a new survey, then publishes a new-survey
// event to every live client. The outbound payload carries the creator's
// display name, never the raw id.
func (s *Service) Create(ctx context.Context, clientID string, signature []byte, in CreateInput) (View, error) {
	creator, err := s.verifyClient(clientID, []byte(clientID), signature)
	if err != nil {
		return View{}, err
	}

	if strings.TrimSpace(in.Title) == "" {
		return View{}, fmt.Errorf("title: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Location) == "" {
		return View{}, fmt.Errorf("location: %w", ErrInvalidInput)
	}
	if in.DueDate.IsZero() {
		return View{}, fmt.Errorf("dueDate: %w", ErrInvalidInput)
	}
	if len(in.Options) == 0 {
		return View{}, fmt.Errorf("options: %w", ErrInvalidInput)
	}
	for _, o := range in.Options {
		if strings.TrimSpace(o) == "" {
			return View{}, fmt.Errorf("options: blank option: %w", ErrInvalidInput)
		}
	}

	sv, err := s.repo.CreateSurvey(in.Title, creator.ID, in.Location, in.DueDate, in.Options)
	if err != nil {
		return View{}, err
	}
	s.logger.Info("survey created",
		log.Str("survey_id", sv.ID),
		log.Str("created_by", creator.ID),
		log.Time("due", sv.DueDate),
	)

	outbound := viewOf(sv, creator.Name)
	payload, err := json.Marshal(outbound)
	if err != nil {
		return View{}, err
	}
	if err := s.bus.PublishToAll(ctx, mailbox.TypeNewSurvey, string(payload)); err != nil {
		s.logger.Error("new-survey fan-out failed", log.Str("survey_id", sv.ID), log.Err(err))
	}
	return outbound, nil
}

// List returns every survey with creator names resolved. Requires a valid
// signature over the caller's id.
func (s *Service) List(clientID string, signature []byte) ([]View, error) {
	if _, err := s.verifyClient(clientID, []byte(clientID), signature); err != nil {
		return nil, err
	}
	surveys, err := s.repo.ListSurveys()
	if err != nil {
		return nil, err
	}
	views := make([]View, 0, len(surveys))
	for _, sv := range surveys {
		views = append(views, viewOf(sv, s.resolveName(sv.CreatedBy)))
	}
	return views, nil
}

// Consult returns one survey with per-option voter names. Only clients that
// voted on the survey may consult it.
func (s *Service) Consult(clientID, surveyID string, signature []byte) (Tally, error) {
	caller, err := s.verifyClient(clientID, []byte(clientID), signature)
	if err != nil {
		return Tally{}, err
	}
	sv, err := s.repo.FindSurvey(surveyID)
	if err != nil {
		return Tally{}, err
	}
	votes, err := s.repo.ListVotes(surveyID)
	if err != nil {
		return Tally{}, err
	}

	voted := false
	byOption := make(map[string][]string, len(sv.Options))
	for _, v := range votes {
		if v.ClientID == caller.ID {
			voted = true
		}
		byOption[v.Option] = append(byOption[v.Option], s.resolveName(v.ClientID))
	}
	if !voted {
		return Tally{}, fmt.Errorf("survey %s: %w", surveyID, ErrNotVoted)
	}
	return Tally{View: viewOf(sv, s.resolveName(sv.CreatedBy)), Votes: byOption}, nil
}

// Vote records a vote and, when the ledger reports quorum, closes the survey
// and notifies its voters before returning.
func (s *Service) Vote(ctx context.Context, clientID, surveyID, option string, signature []byte) (VoteStatus, error) {
	if _, err := s.verifyClient(clientID, []byte(option), signature); err != nil {
		return "", err
	}

	res, err := s.ledger.SubmitVote(clientID, surveyID, option)
	if err != nil {
		return "", err
	}
	if res.Duplicate {
		s.logger.Info("duplicate vote", log.Str("client_id", clientID), log.Str("survey_id", surveyID))
		return VoteStatusAlreadyVoted, nil
	}
	s.logger.Info("vote recorded",
		log.Str("client_id", clientID),
		log.Str("survey_id", surveyID),
		log.Int("voters", res.VoterCount),
	)

	if res.QuorumReached {
		if err := s.closeAndNotify(ctx, surveyID, "quorum"); err != nil {
			return "", err
		}
	}
	return VoteStatusOK, nil
}

// CloseDue closes a past-due survey through the deadline path.
func (s *Service) CloseDue(ctx context.Context, surveyID string) error {
	return s.closeAndNotify(ctx, surveyID, "deadline")
}

// closeAndNotify performs the single Open to Closed transition. The
// repository's changed flag decides the race between quorum and deadline:
// only the caller that actually flipped the flag publishes, so a survey is
// never notified twice. An empty voter set skips the publish entirely.
func (s *Service) closeAndNotify(ctx context.Context, surveyID, trigger string) error {
	changed, err := s.repo.CloseSurvey(surveyID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	s.logger.Info("survey closed", log.Str("survey_id", surveyID), log.Str("trigger", trigger))

	voters, err := s.repo.ListVotersOf(surveyID)
	if err != nil {
		return err
	}
	if len(voters) == 0 {
		return nil
	}
	sv, err := s.repo.FindSurvey(surveyID)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(viewOf(sv, sv.CreatedBy))
	if err != nil {
		return err
	}
	return s.bus.PublishToSubset(ctx, mailbox.TypeClosedSurvey, string(payload), voters)
}

// resolveName maps a client id to its display name, falling back to the raw
// id when the client is unknown.
func (s *Service) resolveName(clientID string) string {
	c, err := s.repo.FindClient(clientID)
	if err != nil {
		return clientID
	}
	return c.Name
}
