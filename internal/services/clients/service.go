// Package clientsvc implements client registration and session liveness.
package clientsvc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rzbill/canvass/internal/auth"
	"github.com/rzbill/canvass/internal/repo"
	"github.com/rzbill/canvass/pkg/log"
)

// ErrInvalidInput rejects registrations with missing fields.
var ErrInvalidInput = errors.New("invalid input")

// Service handles client identity.
type Service struct {
	repo     *repo.Repository
	verifier auth.Verifier
	logger   log.Logger
}

// New creates the client service.
func New(r *repo.Repository, verifier auth.Verifier, logger log.Logger) *Service {
	return &Service{repo: r, verifier: verifier, logger: logger}
}

// Register persists a new client. The client starts live: registration is
// the one entry point that needs no signature, since the key material is
// being introduced here.
func (s *Service) Register(name, publicKey string) (repo.Client, error) {
	if strings.TrimSpace(name) == "" {
		return repo.Client{}, fmt.Errorf("name: %w", ErrInvalidInput)
	}
	if strings.TrimSpace(publicKey) == "" {
		return repo.Client{}, fmt.Errorf("publicKey: %w", ErrInvalidInput)
	}
	c, err := s.repo.CreateClient(name, publicKey)
	if err != nil {
		return repo.Client{}, err
	}
	s.logger.Info("client registered", log.Str("client_id", c.ID), log.Str("name", c.Name))
	return c, nil
}

// Login verifies a signature over the client's own id and turns its
// liveness on.
func (s *Service) Login(clientID string, signature []byte) error {
	c, err := s.repo.FindClient(clientID)
	if err != nil {
		return err
	}
	if err := s.verifier.Verify(c.PublicKey, []byte(clientID), signature); err != nil {
		s.logger.Info("login rejected", log.Str("client_id", clientID), log.Err(err))
		return fmt.Errorf("login %s: %w", clientID, auth.ErrUnauthorized)
	}
	if err := s.repo.SetClientLiveness(clientID, true); err != nil {
		return err
	}
	s.logger.Info("login", log.Str("client_id", clientID))
	return nil
}

// Connected marks the client live again after a successful stream attach.
func (s *Service) Connected(clientID string) error {
	return s.repo.SetClientLiveness(clientID, true)
}

// Disconnected marks the client not live after a failed delivery on its
// stream.
func (s *Service) Disconnected(clientID string) error {
	return s.repo.SetClientLiveness(clientID, false)
}
