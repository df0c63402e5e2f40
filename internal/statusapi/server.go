// Package statusapi exposes a session's load status over HTTP so editors and
// scripts can drive show selection without the terminal UI.
package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/concepto-studio/concepto/internal/session"
	"github.com/concepto-studio/concepto/internal/showsync"
	"github.com/concepto-studio/concepto/pkg/catalog"
)

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server serves the status endpoints:
//
//	GET  /healthz   store connectivity
//	GET  /status    loading flag, current error, loaded show and view decision
//	GET  /shows     the catalog
//	POST /select    select a show (query: showId, episodeId, assetId, category, wait)
//	POST /retry     retry the failed load (query: wait)
type Server struct {
	store  Pinger
	sess   *session.Session
	logger *log.Logger
	server *http.Server
}

// New creates a status server. logger may be nil.
func New(store Pinger, sess *session.Session, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{store: store, sess: sess, logger: logger}
}

// Handler returns the HTTP handler with every endpoint registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.healthCheckHandler)
	mux.HandleFunc("/status", s.statusHandler)
	mux.HandleFunc("/shows", s.showsHandler)
	mux.HandleFunc("/select", s.selectHandler)
	mux.HandleFunc("/retry", s.retryHandler)
	return mux
}

// Start listens on addr and serves in the background. It returns the bound
// address, which differs from addr when addr asks for port 0.
func (s *Server) Start(addr string) (string, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("[StatusAPI] Server error: %v", err)
		}
	}()

	bound := listener.Addr().String()
	s.logger.Printf("[StatusAPI] Listening on %s", bound)
	return bound, nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// HealthResponse is the JSON response structure for health checks.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store,omitempty"`
	Error  string `json:"error,omitempty"`
}

// ViewResponse describes the gate decision.
type ViewResponse struct {
	Kind   string                     `json:"kind"`
	Label  string                     `json:"label,omitempty"`
	Reason string                     `json:"reason,omitempty"`
	ShowID string                     `json:"showId,omitempty"`
	Counts map[catalog.Collection]int `json:"counts,omitempty"`
}

// StatusResponse is the body of /status, /select and /retry.
type StatusResponse struct {
	IsLoading    bool         `json:"isLoading"`
	CurrentError string       `json:"currentError,omitempty"`
	LoadedShowID string       `json:"loadedShowId,omitempty"`
	Route        string       `json:"route"`
	View         ViewResponse `json:"view"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// healthCheckHandler returns 200 if the store is reachable, 503 otherwise.
func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{Status: "healthy", Store: "connected"}
	if err := s.store.Ping(ctx); err != nil {
		response = HealthResponse{Status: "unhealthy", Store: "disconnected", Error: err.Error()}
		writeJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.status(r.Context()))
}

func (s *Server) showsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	shows := s.sess.Shows()
	if shows == nil {
		shows = []catalog.Show{}
	}
	writeJSON(w, http.StatusOK, shows)
}

func (s *Server) selectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	route, err := session.ParseRoute(&url.URL{RawQuery: r.URL.RawQuery})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "INVALID_ROUTE"})
		return
	}
	wait, err := parseWait(r.URL.Query().Get("wait"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "INVALID_WAIT"})
		return
	}

	req, err := s.sess.ApplyRoute(r.Context(), route)
	if err != nil {
		status := http.StatusBadRequest
		code := "INVALID_ROUTE"
		if errors.Is(err, session.ErrUnknownShow) {
			status = http.StatusNotFound
			code = "UNKNOWN_SHOW"
		}
		writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
		return
	}
	s.logger.Printf("[StatusAPI] Selected %s", route.Path())

	s.respondAfter(w, r, req, wait)
}

func (s *Server) retryHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	wait, err := parseWait(r.URL.Query().Get("wait"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "INVALID_WAIT"})
		return
	}

	req, err := s.sess.Retry(r.Context())
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error(), Code: "CATALOG_UNAVAILABLE"})
		return
	}
	s.respondAfter(w, r, req, wait)
}

// respondAfter optionally waits for req to settle, then writes the status.
// 202 means the load was still running when the response was written.
func (s *Server) respondAfter(w http.ResponseWriter, r *http.Request, req *showsync.LoadRequest, wait time.Duration) {
	code := http.StatusOK
	if req != nil {
		if wait > 0 {
			ctx, cancel := context.WithTimeout(r.Context(), wait)
			_, _ = req.Wait(ctx)
			cancel()
		}
		if _, settled := req.Outcome(); !settled {
			code = http.StatusAccepted
		}
	}
	writeJSON(w, code, s.status(r.Context()))
}

func (s *Server) status(ctx context.Context) StatusResponse {
	d := s.sess.View(ctx)
	resp := StatusResponse{
		IsLoading:    s.sess.IsLoading(),
		LoadedShowID: s.sess.LoadedShowID(),
		Route:        s.sess.Route().Path(),
		View: ViewResponse{
			Kind:   d.Kind.String(),
			Label:  d.Label,
			Reason: d.Reason,
			ShowID: d.ShowID,
		},
	}
	if err := s.sess.CurrentError(); err != nil {
		resp.CurrentError = showsync.Reason(err)
	}
	if d.Kind == showsync.DecisionRender && d.Data != nil {
		resp.View.Counts = d.Data.Counts()
	}
	return resp
}

func parseWait(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	wait, err := time.ParseDuration(raw)
	if err != nil || wait < 0 {
		return 0, fmt.Errorf("invalid wait duration %q", raw)
	}
	return wait, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
