package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rzbill/canvass/internal/mailbox"
	"github.com/rzbill/canvass/internal/notify"
	"github.com/rzbill/canvass/pkg/log"
)

// handleEvents attaches the caller to its delivery queue and streams
// frames until the client goes away. An optional ?filter= CEL expression
// drops non-matching events from this stream without consuming order
// guarantees for the rest.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	if _, err := s.rt.Repo().FindClient(clientID); err != nil {
		s.writeError(w, err)
		return
	}
	filter, err := notify.NewFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "filter: " + err.Error()})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming unsupported"})
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	logger := s.logger.With(log.Str("client_id", clientID))
	welcome := mailbox.Event{Type: mailbox.TypeWelcome, Data: "connected"}
	if _, err := w.Write(welcome.Frame()); err != nil {
		return
	}
	flusher.Flush()

	// The stream is the liveness signal: attached means deliverable.
	if err := s.deps.Clients.Connected(clientID); err != nil {
		logger.Warn("liveness update failed", log.Err(err))
	}
	logger.Info("stream attached")

	box := s.deps.Registry.Ensure(clientID)
	for {
		ev, err := box.Dequeue(r.Context())
		if err != nil {
			if !errors.Is(err, r.Context().Err()) {
				logger.Warn("dequeue failed", log.Err(err))
			}
			logger.Info("stream detached")
			return
		}
		if !filter.Match(ev) {
			continue
		}
		if _, err := w.Write(ev.Frame()); err != nil {
			if derr := s.deps.Clients.Disconnected(clientID); derr != nil {
				logger.Warn("liveness update failed", log.Err(derr))
			}
			logger.Info("stream write failed, marked not live", log.Err(err))
			return
		}
		flusher.Flush()
	}
}
