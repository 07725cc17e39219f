// Package gateway exposes the agent's action surface over HTTP and
// WebSocket.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/actonlabs/acton/internal/history"
	"github.com/actonlabs/acton/internal/orchestrator"
	"github.com/actonlabs/acton/internal/security"
)

// Server is the HTTP gateway server.
type Server struct {
	port       int
	orch       *orchestrator.Orchestrator
	hist       *history.Store // optional, nil disables the history endpoint
	logger     *slog.Logger
	jwtSecret  []byte
	httpServer *http.Server
}

// NewServer creates a gateway server. The JWT secret comes from the
// ACTON_JWT_SECRET environment variable; when unset the server runs
// unauthenticated.
func NewServer(port int, orch *orchestrator.Orchestrator, hist *history.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		port:      port,
		orch:      orch,
		hist:      hist,
		logger:    logger.With("component", "gateway"),
		jwtSecret: security.GetJWTSecret(),
	}
}

// Handler builds the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)

	auth := security.AuthMiddleware(s.jwtSecret)
	mux.Handle("/v1/prompt", auth(http.HandlerFunc(s.handlePrompt)))
	mux.Handle("/v1/actions", auth(http.HandlerFunc(s.handleActions)))
	mux.Handle("/v1/history", auth(http.HandlerFunc(s.handleHistory)))
	mux.Handle("/v1/invoke", auth(http.HandlerFunc(s.handleInvoke)))
	mux.Handle("/v1/ws", auth(http.HandlerFunc(s.handleWS)))

	return s.corsMiddleware(s.loggingMiddleware(mux))
}

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("gateway starting", "port", s.port, "auth", s.jwtSecret != nil)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// corsMiddleware adds CORS headers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, map[string]any{"status": "ok"})
}

// handlePrompt returns the assembled LLM prompt for the loaded actions.
func (s *Server) handlePrompt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, s.orch.Prompt())
}

// handleActions lists the loaded actions.
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.respondJSON(w, s.orch.Actions())
}

// handleHistory returns recent invocations plus aggregate stats.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.hist == nil {
		http.Error(w, `{"error":"history disabled"}`, http.StatusNotFound)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}

	invs, err := s.hist.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		http.Error(w, `{"error":"history query failed"}`, http.StatusInternalServerError)
		return
	}
	stats, err := s.hist.ActionStats(r.Context())
	if err != nil {
		s.logger.Error("history stats failed", "error", err)
		http.Error(w, `{"error":"history query failed"}`, http.StatusInternalServerError)
		return
	}

	s.respondJSON(w, map[string]any{
		"invocations": invs,
		"stats":       stats,
	})
}

// handleInvoke dispatches one command synchronously and returns its result.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var cmd orchestrator.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if cmd.Action == "" {
		http.Error(w, `{"error":"action required"}`, http.StatusBadRequest)
		return
	}
	if cmd.Source == "" {
		cmd.Source = "api"
	}

	results := s.orch.Dispatch(r.Context(), []orchestrator.Command{cmd})
	s.respondJSON(w, results[0])
}

// respondJSON writes v as a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}
