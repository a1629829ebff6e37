package httpserver

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rzbill/canvass/internal/auth"
	"github.com/rzbill/canvass/internal/ledger"
	"github.com/rzbill/canvass/internal/mailbox"
	"github.com/rzbill/canvass/internal/repo"
	clientsvc "github.com/rzbill/canvass/internal/services/clients"
	surveysvc "github.com/rzbill/canvass/internal/services/surveys"
	"github.com/rzbill/canvass/pkg/log"
)

const (
	headerUserID    = "X-User-ID"
	headerSignature = "X-Signature"
)

// identity pulls the caller id and decoded signature from the request
// headers. A missing signature is passed through empty so the configured
// verifier decides whether that is acceptable.
func identity(r *http.Request) (string, []byte, error) {
	clientID := r.Header.Get(headerUserID)
	if clientID == "" {
		return "", nil, fmt.Errorf("%s header: %w", headerUserID, auth.ErrUnauthorized)
	}
	raw := r.Header.Get(headerSignature)
	if raw == "" {
		return clientID, nil, nil
	}
	sig, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", nil, fmt.Errorf("%s header: %w", headerSignature, clientsvc.ErrInvalidInput)
	}
	return clientID, sig, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repo.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, auth.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, surveysvc.ErrNotVoted):
		status = http.StatusForbidden
	case errors.Is(err, ledger.ErrSurveyClosed),
		errors.Is(err, ledger.ErrOptionNotFound),
		errors.Is(err, clientsvc.ErrInvalidInput),
		errors.Is(err, surveysvc.ErrInvalidInput):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", log.Err(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type registerReq struct {
	Name      string `json:"name"`
	PublicKey string `json:"publicKey"`
}

type clientResp struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Logged bool   `json:"logged"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	c, err := s.deps.Clients.Register(req.Name, req.PublicKey)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, clientResp{ID: c.ID, Name: c.Name, Logged: c.Logged})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	clientID, sig, err := identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.deps.Clients.Login(clientID, sig); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListSurveys(w http.ResponseWriter, r *http.Request) {
	clientID, sig, err := identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	views, err := s.deps.Surveys.List(clientID, sig)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if views == nil {
		views = []surveysvc.View{}
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleCreateSurvey(w http.ResponseWriter, r *http.Request) {
	clientID, sig, err := identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		Title    string   `json:"title"`
		Location string   `json:"location"`
		DueDate  string   `json:"dueDate"`
		Options  []string `json:"options"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	due, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dueDate: want RFC3339"})
		return
	}
	view, err := s.deps.Surveys.Create(r.Context(), clientID, sig, surveysvc.CreateInput{
		Title:    req.Title,
		Location: req.Location,
		DueDate:  due,
		Options:  req.Options,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (s *Server) handleConsultSurvey(w http.ResponseWriter, r *http.Request) {
	clientID, sig, err := identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	tally, err := s.deps.Surveys.Consult(clientID, chi.URLParam(r, "surveyID"), sig)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tally)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	clientID, sig, err := identity(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req struct {
		SurveyID string `json:"surveyId"`
		Option   string `json:"chosenOption"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed body"})
		return
	}
	status, err := s.deps.Surveys.Vote(r.Context(), clientID, req.SurveyID, req.Option, sig)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": string(status)})
}

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	data := fmt.Sprintf("pong %d", time.Now().Unix())
	if err := s.deps.Bus.PublishToAll(r.Context(), mailbox.TypePing, data); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.rt.CheckHealth(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not_serving"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
