package reducer

import (
	"strings"
	"testing"

	"github.com/ppiankov/claimstream/internal/model"
)

const sampleStream = "event: connected\n" +
	"data: {\"status\":\"connected\"}\n" +
	"\n" +
	"event: start\n" +
	"data: {\"runId\":\"chk-1\"}\n" +
	"\n" +
	"event: ContextualSentenceAdded\n" +
	"data: {\"id\":0,\"text\":\"The sky is blue.\"}\n" +
	"\n" +
	"event: complete\n" +
	"data: {\"runId\":\"chk-1\"}\n" +
	"\n"

func TestReadStreamParsesMessages(t *testing.T) {
	var got []Message
	err := ReadStream(strings.NewReader(sampleStream), func(m Message) {
		got = append(got, m)
	})
	if err != nil {
		t.Fatalf("ReadStream: %v", err)
	}

	want := []model.EventKind{model.KindConnected, model.KindStart, model.KindContextualSentenceAdded, model.KindComplete}
	if len(got) != len(want) {
		t.Fatalf("parsed %d messages, want %d", len(got), len(want))
	}
	for i, kind := range want {
		if got[i].Kind != kind {
			t.Errorf("message %d kind = %q, want %q", i, got[i].Kind, kind)
		}
	}
	if string(got[2].Data) != `{"id":0,"text":"The sky is blue."}` {
		t.Errorf("payload not passed through verbatim: %s", got[2].Data)
	}
}

func TestReadStreamCRLFAndTruncation(t *testing.T) {
	// CRLF line endings, and a final message missing its trailing blank
	// line (connection cut mid-stream).
	stream := "event: start\r\ndata: {\"runId\":\"chk-2\"}\r\n\r\n" +
		"event: complete\r\ndata: {\"runId\":\"chk-2\"}"

	var got []Message
	if err := ReadStream(strings.NewReader(stream), func(m Message) {
		got = append(got, m)
	}); err != nil {
		t.Fatalf("ReadStream: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("parsed %d messages, want 2", len(got))
	}
	if got[1].Kind != model.KindComplete {
		t.Errorf("final message kind = %q", got[1].Kind)
	}
}

func TestReadStreamSkipsMalformedPayload(t *testing.T) {
	stream := "event: metadata\ndata: {not json\n\n" +
		"event: complete\ndata: {}\n\n"

	var got []Message
	if err := ReadStream(strings.NewReader(stream), func(m Message) {
		got = append(got, m)
	}); err != nil {
		t.Fatalf("ReadStream: %v", err)
	}
	if len(got) != 1 || got[0].Kind != model.KindComplete {
		t.Fatalf("got %+v, want only the complete message", got)
	}
}

func TestReducerRunReachesTerminalState(t *testing.T) {
	r := New()
	var snapshots int
	final, err := r.Run(strings.NewReader(sampleStream), func(*State) { snapshots++ })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if snapshots != 4 {
		t.Errorf("observed %d snapshots, want 4", snapshots)
	}
	if final.Loading || final.Terminal != model.KindComplete {
		t.Errorf("final state: Loading=%v Terminal=%q", final.Loading, final.Terminal)
	}
	if len(final.Sentences) != 1 {
		t.Errorf("final state sentences = %d", len(final.Sentences))
	}
}

func TestReducerRunIdempotentOnReplay(t *testing.T) {
	// Feeding the same stream twice, as a client that reconnects and
	// replays would, must end in the same domain state.
	r := New()
	if _, err := r.Run(strings.NewReader(sampleStream), nil); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	final, err := r.Run(strings.NewReader(sampleStream), nil)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}

	if len(final.Sentences) != 1 {
		t.Errorf("replay duplicated sentences: %d", len(final.Sentences))
	}
	if final.Terminal != model.KindComplete {
		t.Errorf("Terminal = %q", final.Terminal)
	}
}
