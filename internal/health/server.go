package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	"ledgerbot/internal/log"
)

// Check reports whether one dependency is usable.
type Check func(ctx context.Context) error

// Server exposes liveness and readiness probes.
type Server struct {
	srv     *http.Server
	started time.Time
	logger  *log.Logger

	mu     sync.RWMutex
	checks map[string]Check
}

func NewServer(addr string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		started: time.Now(),
		logger:  logger.WithComponent(log.ComponentHealth),
		checks:  make(map[string]Check),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.withLogging(s.handleHealth))
	mux.HandleFunc("/readyz", s.withLogging(s.handleReady))

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the probe routes, for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// AddCheck registers a readiness dependency.
func (s *Server) AddCheck(name string, check Check) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "Health server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	checks := make(map[string]Check, len(s.checks))
	for name, c := range s.checks {
		checks[name] = c
	}
	s.mu.RUnlock()
	sort.Strings(names)

	status := "ready"
	httpStatus := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			results[name] = "failed: " + err.Error()
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			s.logger.WarnContext(ctx, "Readiness check failed", "check", name, log.FieldError, err)
			continue
		}
		results[name] = "ok"
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": results,
	})
}

func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)
		s.logger.DebugContext(r.Context(), "Probe served",
			"url", r.URL.Path,
			"status", rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
