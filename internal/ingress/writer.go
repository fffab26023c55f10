// Package ingress normalizes raw pipeline-driver output into the event
// taxonomy and appends it to the event log. This is the seam between
// the external driver and the core: malformed input becomes a synthetic
// error event so consumers always see a terminal signal instead of
// silence.
package ingress

import (
	"encoding/json"
	"fmt"

	"github.com/ppiankov/claimstream/internal/eventlog"
	"github.com/ppiankov/claimstream/internal/logging"
	"github.com/ppiankov/claimstream/internal/model"
)

// Writer appends validated events for a run.
type Writer struct {
	log *eventlog.Log
}

// NewWriter creates an ingress writer backed by the given event log.
func NewWriter(log *eventlog.Log) *Writer {
	return &Writer{log: log}
}

// Write validates the {kind, payload} pair and appends it. Structural
// validation only: kind must be non-empty and payload present; deeper
// payload shape is the producer's concern. Invalid input is converted
// into a synthetic error event rather than dropped.
func (w *Writer) Write(runID string, kind model.EventKind, payload json.RawMessage) error {
	if kind == "" || len(payload) == 0 || !json.Valid(payload) {
		logging.Error("Malformed pipeline event", "run", runID, "kind", string(kind))
		return w.writeError(runID, "server received malformed event data", "validation-error")
	}
	if !kind.Known() {
		// The taxonomy is open: unrecognized kinds pass through to the
		// log untouched, they just get noted.
		logging.Debug("Passing through unknown event kind", "run", runID, "kind", string(kind))
	}
	if _, err := w.log.Append(runID, kind, payload); err != nil {
		return fmt.Errorf("append %s: %w", kind, err)
	}
	return nil
}

// WriteValue marshals a typed payload and appends it.
func (w *Writer) WriteValue(runID string, kind model.EventKind, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Unmarshalable pipeline event", "run", runID, "kind", string(kind), "error", err)
		return w.writeError(runID, "server received malformed event data", "validation-error")
	}
	return w.Write(runID, kind, raw)
}

// Complete appends the terminal success marker.
func (w *Writer) Complete(runID string) error {
	return w.WriteValue(runID, model.KindComplete, model.CompletePayload{Completed: true})
}

// Fail appends the terminal failure marker.
func (w *Writer) Fail(runID, message string) error {
	return w.writeError(runID, message, runID)
}

func (w *Writer) writeError(runID, message, errRunID string) error {
	raw, err := json.Marshal(model.ErrorPayload{Message: message, RunID: errRunID})
	if err != nil {
		return fmt.Errorf("marshal error payload: %w", err)
	}
	if _, err := w.log.Append(runID, model.KindError, raw); err != nil {
		return fmt.Errorf("append error event: %w", err)
	}
	return nil
}
