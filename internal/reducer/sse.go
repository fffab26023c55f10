package reducer

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"

	"github.com/ppiankov/claimstream/internal/logging"
	"github.com/ppiankov/claimstream/internal/model"
)

// ReadStream consumes a server-sent event byte stream, parsing
// blank-line-delimited messages and invoking fn for each complete one.
// Malformed messages are logged and skipped; the stream keeps going.
// Returns nil on EOF (the relay closing after a terminal event is the
// normal end of stream).
func ReadStream(r io.Reader, fn func(Message)) error {
	br := bufio.NewReader(r)
	var kind, data string

	flush := func() {
		if kind == "" || data == "" {
			kind, data = "", ""
			return
		}
		if !json.Valid([]byte(data)) {
			logging.Warn("Skipping malformed SSE payload", "kind", kind)
			kind, data = "", ""
			return
		}
		fn(Message{Kind: model.EventKind(kind), Data: json.RawMessage(data)})
		kind, data = "", ""
	}

	for {
		line, err := br.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")

		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "event:"):
			kind = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		}

		if err != nil {
			flush()
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// Reducer couples a State snapshot with stream ingestion. Not safe for
// concurrent use; feed it from a single goroutine and hand snapshots
// out freely.
type Reducer struct {
	state *State
}

// New returns a reducer at the initial state.
func New() *Reducer {
	return &Reducer{state: NewState()}
}

// Ingest applies one message and returns the resulting snapshot.
func (r *Reducer) Ingest(msg Message) *State {
	r.state = r.state.Apply(msg)
	return r.state
}

// State returns the current snapshot.
func (r *Reducer) State() *State {
	return r.state
}

// Run consumes the whole stream, applying every message, and returns
// the final snapshot. The observe callback, when non-nil, sees every
// intermediate snapshot.
func (r *Reducer) Run(stream io.Reader, observe func(*State)) (*State, error) {
	err := ReadStream(stream, func(msg Message) {
		s := r.Ingest(msg)
		if observe != nil {
			observe(s)
		}
	})
	return r.state, err
}
