package relay

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ppiankov/claimstream/internal/logging"
	"github.com/ppiankov/claimstream/internal/model"
	"github.com/ppiankov/claimstream/internal/store"
)

// handleStream is the per-connection relay state machine: replay check,
// live check, drain, then poll loop until a terminal event or client
// abort. Events are forwarded strictly in sequence order; the cursor is
// the last forwarded sequence ID, never wall-clock.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	// Replay check: a completed run streams its persisted result and
	// never touches the live log.
	run, err := s.store.GetRun(id)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logging.Error("Replay lookup failed", "run", id, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	if run != nil && run.Status == model.StatusCompleted && len(run.Result) > 0 {
		s.replay(w, id, run.Result)
		return
	}

	// Live check: no stream is opened for an unknown run.
	if !s.log.Exists(id) {
		writeJSONError(w, http.StatusNotFound, "stream not found")
		return
	}

	flusher, ok := beginSSE(w)
	if !ok {
		return
	}
	sendMarker(w, flusher, id)

	// Drain everything currently logged.
	events, err := s.log.ReadAll(id)
	if err != nil {
		logging.Error("Drain failed", "run", id, "error", err)
		return
	}
	lastSeq, terminal := forward(w, flusher, events)
	if terminal {
		logging.Debug("Stream closed during drain", "run", id)
		return
	}

	// Poll loop. The subscription gives low-latency wake-ups; the
	// interval timeout keeps polling authoritative even when
	// notifications are missed.
	notify, cancel := s.log.Subscribe(id)
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			logging.Debug("Client aborted stream", "run", id)
			return
		case <-notify:
		case <-time.After(s.pollInterval):
		}

		events, err := s.log.ReadAfter(id, lastSeq)
		if err != nil {
			// The log expired or the store failed; fatal for this
			// connection only. The client recovers via reconnect.
			logging.Error("Poll failed", "run", id, "error", err)
			return
		}
		seq, terminal := forward(w, flusher, events)
		if seq != "" {
			lastSeq = seq
		}
		if terminal {
			logging.Debug("Stream closed on terminal event", "run", id)
			return
		}
	}
}

// replay streams a persisted result set once, in order, then closes.
// Burst by design: no pacing, no polling.
func (s *Server) replay(w http.ResponseWriter, id string, events []model.Event) {
	flusher, ok := beginSSE(w)
	if !ok {
		return
	}
	sendMarker(w, flusher, id)
	forward(w, flusher, events)
	logging.Debug("Replayed persisted run", "run", id, "events", len(events))
}

// forward writes events in order and reports the last written sequence
// ID and whether a terminal event was reached. Events after a terminal
// one are not forwarded.
func forward(w http.ResponseWriter, flusher http.Flusher, events []model.Event) (lastSeq string, terminal bool) {
	for _, ev := range events {
		writeSSE(w, ev.Kind, ev.Payload)
		flusher.Flush()
		lastSeq = ev.SequenceID
		if ev.Kind.Terminal() {
			return lastSeq, true
		}
	}
	return lastSeq, false
}

func beginSSE(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	return flusher, true
}

// sendMarker emits the connection-established marker. Transport-level:
// it is never part of the run's log.
func sendMarker(w http.ResponseWriter, flusher http.Flusher, runID string) {
	payload := fmt.Sprintf(`{"message":"SSE connection established","run_id":%q}`, runID)
	writeSSE(w, model.KindConnected, []byte(payload))
	flusher.Flush()
}

// writeSSE frames one event: `event:`/`data:` lines, blank-line
// delimited, payload forwarded byte-for-byte.
func writeSSE(w http.ResponseWriter, kind model.EventKind, data []byte) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", kind, data)
}
