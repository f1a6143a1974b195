package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Server exposes the webhook endpoint and the operational routes around
// it.
type Server struct {
	pipeline *Pipeline
	srv      *http.Server
	log      *slog.Logger
	doneCh   chan struct{}
}

// NewServer builds the HTTP server for addr.
func NewServer(addr string, p *Pipeline, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{pipeline: p, log: log}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", p.HandleWebhook)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /getLatestStories", s.handleLatestStories)
	mux.HandleFunc("GET /getLatestTitle", s.handleLatestTitle)
	mux.HandleFunc("GET /sendTodayStories", s.handleSendTodayStories)
	mux.HandleFunc("GET /broadcastDailySummary", s.handleBroadcastDailySummary)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start begins serving. It returns once the listener is bound; serving
// continues on a background goroutine until Stop.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}
	s.doneCh = make(chan struct{})
	s.log.Info("webhook server started", "addr", s.srv.Addr)

	go func() {
		defer close(s.doneCh)
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("webhook server error", "error", err)
		}
	}()
	return nil
}

// Stop shuts the server down gracefully. In-flight background pipeline
// continuations are abandoned, not awaited.
func (s *Server) Stop(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown webhook server: %w", err)
	}
	if s.doneCh != nil {
		<-s.doneCh
	}
	s.log.Info("webhook server stopped")
	return nil
}

func (s *Server) handleLatestStories(w http.ResponseWriter, r *http.Request) {
	all, err := s.pipeline.stories.Fetch(r.Context())
	if err != nil {
		s.log.Error("failed to fetch stories", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse("failed to retrieve stories"))
		return
	}
	respondJSON(w, http.StatusOK, all)
}

func (s *Server) handleLatestTitle(w http.ResponseWriter, r *http.Request) {
	all, err := s.pipeline.stories.Fetch(r.Context())
	if err != nil {
		s.log.Error("failed to fetch stories", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse("failed to retrieve stories"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "title": all[0].Title})
}

func (s *Server) handleSendTodayStories(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.BroadcastTodayStories(r.Context()); err != nil {
		s.log.Error("broadcast failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse("failed to broadcast stories"))
		return
	}
	respondJSON(w, http.StatusOK, successResponse())
}

func (s *Server) handleBroadcastDailySummary(w http.ResponseWriter, r *http.Request) {
	if err := s.pipeline.BroadcastDailyDigest(r.Context()); err != nil {
		s.log.Error("digest broadcast failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse("failed to broadcast summary"))
		return
	}
	respondJSON(w, http.StatusOK, successResponse())
}

type statusResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func successResponse() statusResponse {
	return statusResponse{Success: true}
}

func errorResponse(msg string) statusResponse {
	return statusResponse{Success: false, Error: msg}
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
