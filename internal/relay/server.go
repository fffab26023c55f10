// Package relay serves verification runs to HTTP observers: run
// submission, live server-sent event streaming with poll-based
// tailing, and burst replay of completed runs from the result store.
package relay

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/claimstream/internal/eventlog"
	"github.com/ppiankov/claimstream/internal/logging"
	"github.com/ppiankov/claimstream/internal/model"
	"github.com/ppiankov/claimstream/internal/store"
)

// Launcher starts the verification pipeline for a submitted run. The
// pipeline runs in the background; the submission response never waits
// for it.
type Launcher interface {
	Launch(runID, text string)
}

// Server is the HTTP relay. Each client connection gets an independent
// drain-then-poll sequence; connections never share cursor state.
type Server struct {
	log          *eventlog.Log
	store        *store.Store
	launcher     Launcher
	pollInterval time.Duration
	maxInput     int64

	httpServer *http.Server
}

// NewServer wires the relay against its stores and pipeline launcher.
func NewServer(log *eventlog.Log, st *store.Store, launcher Launcher, cfg model.ServerConfig, pollInterval time.Duration) *Server {
	s := &Server{
		log:          log,
		store:        st,
		launcher:     launcher,
		pollInterval: pollInterval,
		maxInput:     cfg.MaxInputBytes,
	}
	s.httpServer = &http.Server{
		Addr:        cfg.Addr,
		Handler:     s.Handler(),
		ReadTimeout: cfg.ReadTimeout,
		IdleTimeout: cfg.IdleTimeout,
		// WriteTimeout stays zero: SSE connections are long-lived.
	}
	return s
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/checks", s.handleSubmit)
	mux.HandleFunc("GET /api/checks/{id}", s.handleLookup)
	mux.HandleFunc("GET /api/checks/{id}/stream", s.handleStream)
	mux.HandleFunc("GET /health", s.handleHealth)
	return mux
}

// ListenAndServe runs the HTTP server until Shutdown.
func (s *Server) ListenAndServe() error {
	logging.Info("Relay listening", "addr", s.httpServer.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type submitRequest struct {
	Text    string `json:"text"`
	CheckID string `json:"check_id"`
}

type submitResponse struct {
	CheckID string `json:"check_id"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, s.maxInput+1))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "unreadable body")
		return
	}
	if int64(len(body)) > s.maxInput {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "input too large")
		return
	}

	var req submitRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeJSONError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.CheckID == "" {
		req.CheckID = newRunID()
	}
	if len(req.CheckID) > 100 {
		writeJSONError(w, http.StatusBadRequest, "check_id too long")
		return
	}

	if _, err := s.store.CreateRun(req.CheckID); err != nil {
		writeJSONError(w, http.StatusConflict, "check_id already in use")
		return
	}

	s.launcher.Launch(req.CheckID, req.Text)
	logging.Info("Run submitted", "run", req.CheckID, "bytes", len(req.Text))

	writeJSON(w, http.StatusOK, submitResponse{CheckID: req.CheckID})
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.store.GetRun(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeJSONError(w, http.StatusNotFound, "run not found")
			return
		}
		logging.Error("Run lookup failed", "run", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Write response failed", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func newRunID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("chk-%d", time.Now().UnixNano())
	}
	return "chk-" + hex.EncodeToString(b[:])
}
