// Package server implements the picforge HTTP API.
//
// The API exposes the same pipeline as the build command, without touching
// the file system: the GDS stream is returned base64-encoded in the JSON
// response.
//
//	GET  /api/v1/health
//	GET  /api/v1/cells
//	GET  /api/v1/waveguides
//	POST /api/v1/build
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/picforge/pkg/buildinfo"
	"github.com/matzehuels/picforge/pkg/pipeline"
	"github.com/matzehuels/picforge/pkg/tech"
)

// maxBodyBytes bounds build request bodies.
const maxBodyBytes = 1 << 20

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	tech   *tech.Technology
	logger *log.Logger
	router chi.Router
}

// New creates a server that builds with runner and t.
func New(runner *pipeline.Runner, t *tech.Technology, logger *log.Logger) *Server {
	if t == nil {
		t = tech.Default()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{runner: runner, tech: t, logger: logger}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)
	r.Use(s.observe)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/cells", s.handleCells)
		r.Get("/waveguides", s.handleWaveguides)
		r.Post("/build", s.handleBuild)
	})
	return r
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("serving API", "addr", addr, "version", buildinfo.Version)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
