// Package httpapi exposes the session workflow as a JSON API. Each
// route loads the session, applies one transition, and returns the new
// snapshot; the answer key never leaves the server while a quiz is in
// progress.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jswider/quizforge/internal/workflow"
)

// Options tunes request handling.
type Options struct {
	// ChunkSize and ChunkCount control how submitted documents are cut
	// into excerpts for topic extraction.
	ChunkSize  int
	ChunkCount int

	// DefaultQuestionCount applies when a create request omits the
	// count.
	DefaultQuestionCount int
}

// DefaultOptions returns the standard request-handling settings.
func DefaultOptions() Options {
	return Options{ChunkSize: 1200, ChunkCount: 8, DefaultQuestionCount: 10}
}

// Server handles the API routes over the orchestrator.
type Server struct {
	orch *workflow.Orchestrator
	opts Options
}

// NewServer creates a Server.
func NewServer(orch *workflow.Orchestrator, opts Options) *Server {
	return &Server{orch: orch, opts: opts}
}

// Router builds the chi router with all routes mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.createSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getSession)
				r.Post("/feedback", s.submitFeedback)
				r.Post("/confirm", s.confirmTopics)
				r.Post("/answer", s.submitAnswer)
			})
		})
	})

	return r
}
