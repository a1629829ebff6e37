package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/rzbill/canvass/internal/mailbox"
	"github.com/rzbill/canvass/internal/notify"
	"github.com/rzbill/canvass/internal/runtime"
	clientsvc "github.com/rzbill/canvass/internal/services/clients"
	surveysvc "github.com/rzbill/canvass/internal/services/surveys"
	"github.com/rzbill/canvass/pkg/id"
	"github.com/rzbill/canvass/pkg/log"
)

// Deps carries the services the HTTP surface is built on.
type Deps struct {
	Clients  *clientsvc.Service
	Surveys  *surveysvc.Service
	Bus      *notify.Bus
	Registry *mailbox.Registry
}

type Server struct {
	rt     *runtime.Runtime
	deps   Deps
	srv    *http.Server
	lis    net.Listener
	logger log.Logger
	ids    *id.Generator
}

func New(rt *runtime.Runtime, deps Deps, logger log.Logger) *Server {
	s := &Server{
		rt:     rt,
		deps:   deps,
		logger: logger.With(log.Component("http")),
		ids:    id.NewGenerator(),
	}

	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-User-ID", "X-Signature"},
	}).Handler)
	r.Use(s.requestID)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Get("/surveys", s.handleListSurveys)
		r.Post("/surveys", s.handleCreateSurvey)
		r.Get("/surveys/{surveyID}", s.handleConsultSurvey)
		r.Post("/vote", s.handleVote)
		r.Get("/events/{clientID}", s.handleEvents)
		r.Get("/ping", s.handlePing)
		r.Get("/healthz", s.handleHealth)
	})

	s.srv = &http.Server{Handler: r}
	return s
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.lis = l
	s.logger.Info("http listening", log.Str("addr", l.Addr().String()))
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(l) }()
	select {
	case <-ctx.Done():
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(cctx)
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Close() {
	if s.lis != nil {
		_ = s.lis.Close()
	}
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := s.ids.Next().String()
		w.Header().Set("X-Request-ID", rid)
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("request",
			log.Str("request_id", rid),
			log.Str("method", r.Method),
			log.Str("path", r.URL.Path),
			log.Duration("elapsed", time.Since(start)))
	})
}
