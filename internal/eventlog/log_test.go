package eventlog

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ppiankov/claimstream/internal/model"
)

func newTestLog() *Log {
	return New(time.Minute, time.Minute)
}

func mustAppend(t *testing.T, l *Log, runID string, kind model.EventKind, payload string) model.Event {
	t.Helper()
	ev, err := l.Append(runID, kind, json.RawMessage(payload))
	if err != nil {
		t.Fatalf("append %s: %v", kind, err)
	}
	return ev
}

func TestCreate_EmitsSyntheticStart(t *testing.T) {
	l := newTestLog()
	if err := l.Create("run-1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	events, err := l.ReadAll("run-1")
	if err != nil {
		t.Fatalf("readAll: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event after create, got %d", len(events))
	}
	if events[0].Kind != model.KindStart {
		t.Errorf("expected start event, got %s", events[0].Kind)
	}

	var payload model.StartPayload
	if err := json.Unmarshal(events[0].Payload, &payload); err != nil {
		t.Fatalf("unmarshal start payload: %v", err)
	}
	if payload.RunID != "run-1" {
		t.Errorf("expected run_id run-1, got %s", payload.RunID)
	}
}

func TestCreate_Duplicate(t *testing.T) {
	l := newTestLog()
	if err := l.Create("run-1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := l.Create("run-1"); err != ErrExists {
		t.Errorf("expected ErrExists, got %v", err)
	}
}

func TestAppend_OrderAndSequenceIDs(t *testing.T) {
	l := newTestLog()
	if err := l.Create("run-1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	const n = 50
	for i := 0; i < n; i++ {
		mustAppend(t, l, "run-1", model.KindContextualSentenceAdded,
			fmt.Sprintf(`{"id":%d,"text":"s%d"}`, i, i))
	}

	events, err := l.ReadAll("run-1")
	if err != nil {
		t.Fatalf("readAll: %v", err)
	}
	if len(events) != n+1 { // +1 for synthetic start
		t.Fatalf("expected %d events, got %d", n+1, len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].SequenceID <= events[i-1].SequenceID {
			t.Fatalf("sequence not strictly increasing at %d: %s <= %s",
				i, events[i].SequenceID, events[i-1].SequenceID)
		}
	}
}

func TestAppend_UnknownRun(t *testing.T) {
	l := newTestLog()
	if _, err := l.Append("nope", model.KindComplete, json.RawMessage(`{}`)); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReadAfter_PartitionsWithoutGapsOrOverlap(t *testing.T) {
	l := newTestLog()
	if err := l.Create("run-1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 10; i++ {
		mustAppend(t, l, "run-1", model.KindSearchQueryGenerated, `{"query":"q"}`)
	}

	all, err := l.ReadAll("run-1")
	if err != nil {
		t.Fatalf("readAll: %v", err)
	}

	// Split at every boundary; the two halves must reassemble to all.
	for split := 0; split < len(all); split++ {
		rest, err := l.ReadAfter("run-1", all[split].SequenceID)
		if err != nil {
			t.Fatalf("readAfter: %v", err)
		}
		if len(rest) != len(all)-split-1 {
			t.Fatalf("split at %d: expected %d events, got %d", split, len(all)-split-1, len(rest))
		}
		for i, ev := range rest {
			if ev.SequenceID != all[split+1+i].SequenceID {
				t.Fatalf("split at %d: event %d out of order", split, i)
			}
		}
	}

	// Empty cursor returns the full log.
	fromStart, err := l.ReadAfter("run-1", "")
	if err != nil {
		t.Fatalf("readAfter empty: %v", err)
	}
	if len(fromStart) != len(all) {
		t.Errorf("expected %d events from empty cursor, got %d", len(all), len(fromStart))
	}
}

func TestExists(t *testing.T) {
	l := newTestLog()
	if l.Exists("run-1") {
		t.Error("expected Exists false before create")
	}
	if err := l.Create("run-1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !l.Exists("run-1") {
		t.Error("expected Exists true after create")
	}
}

func TestTTL_Expiry(t *testing.T) {
	l := New(20*time.Millisecond, 10*time.Millisecond)
	if err := l.Create("run-1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if l.Exists("run-1") {
		t.Error("expected run to expire")
	}
	if _, err := l.ReadAll("run-1"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestSubscribe_NotifiesOnAppend(t *testing.T) {
	l := newTestLog()
	if err := l.Create("run-1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	ch, cancel := l.Subscribe("run-1")
	defer cancel()

	mustAppend(t, l, "run-1", model.KindComplete, `{"completed":true}`)

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("expected notification after append")
	}
}

func TestSubscribe_CancelStopsDelivery(t *testing.T) {
	l := newTestLog()
	if err := l.Create("run-1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	ch, cancel := l.Subscribe("run-1")
	cancel()

	mustAppend(t, l, "run-1", model.KindComplete, `{"completed":true}`)

	select {
	case <-ch:
		t.Fatal("expected no notification after cancel")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConcurrentReadersSingleWriter(t *testing.T) {
	l := newTestLog()
	if err := l.Create("run-1"); err != nil {
		t.Fatalf("create: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			if _, err := l.Append("run-1", model.KindSearchQueryGenerated, json.RawMessage(`{"query":"q"}`)); err != nil {
				t.Errorf("append: %v", err)
				return
			}
		}
	}()

	// Readers must always observe a prefix in order.
	for i := 0; i < 50; i++ {
		events, err := l.ReadAll("run-1")
		if err != nil {
			t.Fatalf("readAll: %v", err)
		}
		for j := 1; j < len(events); j++ {
			if events[j].SequenceID <= events[j-1].SequenceID {
				t.Fatalf("reader observed out-of-order events")
			}
		}
	}
	<-done
}
