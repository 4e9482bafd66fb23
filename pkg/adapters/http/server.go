// Package http exposes a read-only introspection API over the live graph.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/weft/internal/presentation/graph"
	"github.com/aretw0/weft/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StatusSource publishes the latest graph status. Safe for concurrent use.
type StatusSource interface {
	Status() *domain.GraphStatus
}

// Server serves the introspection routes.
type Server struct {
	Source  StatusSource
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewHandler creates the HTTP handler. metrics may be nil.
func NewHandler(src StatusSource, metrics http.Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{Source: src, Metrics: metrics, Logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/healthz", s.GetHealth)
	r.Get("/status", s.GetStatus)
	r.Get("/nodes", s.ListNodes)
	r.Get("/nodes/{guid}", s.GetNode)
	r.Get("/signals", s.ListSignals)
	r.Get("/graph", s.GetGraph)
	if metrics != nil {
		r.Handle("/metrics", metrics)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if st := s.Source.Status(); st != nil {
		resp["tick"] = st.Tick
	}
	s.writeJSON(w, resp)
}

// GetStatus handles GET /status.
func (s *Server) GetStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := s.status(w)
	if !ok {
		return
	}
	s.writeJSON(w, st)
}

// ListNodes handles GET /nodes.
func (s *Server) ListNodes(w http.ResponseWriter, r *http.Request) {
	st, ok := s.status(w)
	if !ok {
		return
	}
	s.writeJSON(w, st.Nodes)
}

// GetNode handles GET /nodes/{guid}.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request) {
	st, ok := s.status(w)
	if !ok {
		return
	}
	n, found := st.NodeByGUID(chi.URLParam(r, "guid"))
	if !found {
		http.Error(w, "node not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, n)
}

// ListSignals handles GET /signals.
func (s *Server) ListSignals(w http.ResponseWriter, r *http.Request) {
	st, ok := s.status(w)
	if !ok {
		return
	}
	s.writeJSON(w, st.Signals)
}

// GetGraph handles GET /graph, answering with a Mermaid flowchart.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	st, ok := s.status(w)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/vnd.mermaid; charset=utf-8")
	if _, err := w.Write([]byte(graph.GenerateMermaid(st))); err != nil {
		s.Logger.Error("graph response write failed", "error", err)
	}
}

func (s *Server) status(w http.ResponseWriter) (*domain.GraphStatus, bool) {
	st := s.Source.Status()
	if st == nil {
		http.Error(w, "runtime not started", http.StatusServiceUnavailable)
		return nil, false
	}
	return st, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "error", err)
	}
}

// Serve runs an HTTP server on addr until ctx is done.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("introspection server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
