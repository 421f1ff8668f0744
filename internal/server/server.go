// Package server exposes the job runner over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alnah/go-chapters/internal/jobs"
	"github.com/alnah/go-chapters/internal/logger"
)

// maxBodySize bounds request bodies; uploaded transcripts are the largest.
const maxBodySize = 5 << 20

// Shutdown grace period for in-flight requests.
const shutdownTimeout = 10 * time.Second

// jobStore is the slice of *jobs.Manager the handlers need.
type jobStore interface {
	Submit(req jobs.Request) (string, error)
	Get(id string) (jobs.Job, error)
}

var _ jobStore = (*jobs.Manager)(nil)

// Server holds dependencies for HTTP handlers.
type Server struct {
	jobs   jobStore
	router *chi.Mux
	log    *slog.Logger
}

// New creates a Server with all routes configured. A nil logger discards.
func New(store jobStore, log *slog.Logger) *Server {
	if log == nil {
		log = logger.Discard()
	}
	s := &Server{jobs: store, router: chi.NewRouter(), log: log}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/v1/jobs", func(r chi.Router) {
		r.Post("/", s.handleSubmit)
		r.Get("/{id}", s.handleGetJob)
	})
}

// requestLogger logs each request through slog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// handleHealth reports liveness.
// GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.log)
}

// handleSubmit starts a job.
// POST /v1/jobs
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req jobs.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", s.log)
		return
	}

	id, err := s.jobs.Submit(req)
	switch {
	case errors.Is(err, jobs.ErrBusy):
		writeError(w, http.StatusConflict, "A job is already running. Try again when it finishes.", s.log)
		return
	case errors.Is(err, jobs.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, "Provide a YouTube video or a transcript, and a valid language.", s.log)
		return
	case err != nil:
		s.log.Error("submit job", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to start job", s.log)
		return
	}

	w.Header().Set("Location", "/v1/jobs/"+id)
	writeJSON(w, http.StatusAccepted, map[string]string{"id": id}, s.log)
}

// handleGetJob returns a job's status.
// GET /v1/jobs/{id}
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.jobs.Get(chi.URLParam(r, "id"))
	if errors.Is(err, jobs.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Job not found", s.log)
		return
	}
	if err != nil {
		s.log.Error("get job", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load job", s.log)
		return
	}
	writeJSON(w, http.StatusOK, job, s.log)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}
