// Package server exposes the session editor over HTTP: FIT upload, edit
// operations on stored sessions, analysis views and FIT export.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/PeterK-end/swim-data-analyser/config"
	"github.com/PeterK-end/swim-data-analyser/store"
)

// Server serves the editor API.
type Server struct {
	cfg    config.ServerConfig
	tmp    string
	ttl    time.Duration
	store  *store.Client
	locks  *locks
	logger *slog.Logger
	now    func() time.Time
}

// New returns a Server backed by st.
func New(cfg *config.Config, st *store.Client, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		cfg:    cfg.Server,
		tmp:    cfg.Storage.TempDir,
		ttl:    cfg.Storage.SessionTTL,
		store:  st,
		locks:  newLocks(),
		logger: logger,
		now:    time.Now,
	}
}

type errorHandler func(w http.ResponseWriter, r *http.Request) error

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	route := func(pattern string, h errorHandler) {
		mux.Handle(pattern, s.wrap(h))
	}

	route("GET /healthz", s.healthz)
	route("GET /getDefaultData", s.defaultData)
	route("POST /upload", s.upload)
	route("POST /encode_js_object_to_fit", s.encodeObject)
	route("POST /sessions", s.createSession)
	route("GET /sessions/{id}", s.getSession)
	route("DELETE /sessions/{id}", s.deleteSession)
	route("POST /sessions/{id}/merge", s.merge)
	route("POST /sessions/{id}/split", s.split)
	route("POST /sessions/{id}/restroke", s.restroke)
	route("POST /sessions/{id}/delete", s.deleteLengths)
	route("POST /sessions/{id}/undo", s.undo)
	route("GET /sessions/{id}/summary", s.summary)
	route("GET /sessions/{id}/export", s.export)

	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// wrap turns a handler error into a JSON error body and logs every request.
func (s *Server) wrap(h errorHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		err := h(rec, r)
		if err != nil {
			writeError(rec, err)
		}

		attrs := []any{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)),
		}
		if id := r.PathValue("id"); id != "" {
			attrs = append(attrs, slog.String("session_id", id))
		}

		switch {
		case rec.status >= http.StatusInternalServerError:
			s.logger.Error("request failed", append(attrs, slog.Any("error", err))...)
		case err != nil:
			s.logger.Warn("request rejected", append(attrs, slog.Any("error", err))...)
		default:
			s.logger.Info("request", attrs...)
		}
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errc := make(chan error, 1)

	go s.pruneLoop(ctx, time.Hour)

	go func() {
		s.logger.Info("listening", slog.String("addr", s.cfg.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	}
}

// pruneLoop drops expired sessions once at start and then every interval
// until ctx is done.
func (s *Server) pruneLoop(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.pruneExpired()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) pruneExpired() {
	if s.ttl <= 0 {
		return
	}

	n, err := s.store.Prune(s.now().Add(-s.ttl))
	if err != nil {
		s.logger.Error("prune sessions", slog.String("error", err.Error()))
		return
	}

	if n > 0 {
		s.logger.Info("pruned expired sessions", slog.Int("count", n), slog.Duration("ttl", s.ttl))
	}
}
