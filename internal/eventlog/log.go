// Package eventlog is the TTL-bounded, append-only event log, one
// ordered list per run. A single writer appends; any number of relay
// connections read suffixes. Entries expire as a whole run after the
// configured TTL, so abandoned runs need no explicit cleanup.
package eventlog

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ppiankov/claimstream/internal/model"
)

// ErrNotFound is returned when a run has no log, either because it was
// never created or because its TTL elapsed.
var ErrNotFound = errors.New("eventlog: run not found")

// ErrExists is returned by Create for an already-initialized run.
var ErrExists = errors.New("eventlog: run already exists")

const keyPrefix = "events:"

// runLog holds one run's ordered events. Appends hold the write lock;
// readers copy under the read lock and never observe partial appends.
type runLog struct {
	mu      sync.RWMutex
	events  []model.Event
	nextSeq uint64
}

// Log is the store. Backed by an expiring in-memory cache keyed by
// "events:{runId}", plus per-run notification channels for low-latency
// wake-up of pollers.
type Log struct {
	cache *gocache.Cache
	ttl   time.Duration

	subMu sync.Mutex
	subs  map[string][]chan struct{}
}

// New creates an event log with the given retention TTL and expired
// entry sweep interval.
func New(ttl, cleanupInterval time.Duration) *Log {
	return &Log{
		cache: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
		subs:  make(map[string][]chan struct{}),
	}
}

// Create initializes an empty, TTL-stamped log for the run and appends
// the synthetic start event.
func (l *Log) Create(runID string) error {
	key := keyPrefix + runID
	if _, found := l.cache.Get(key); found {
		return ErrExists
	}
	l.cache.Set(key, &runLog{}, l.ttl)

	payload, err := json.Marshal(model.StartPayload{
		RunID:     runID,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal start payload: %w", err)
	}
	_, err = l.Append(runID, model.KindStart, payload)
	return err
}

// Append assigns the next sequence ID, stores the event, refreshes the
// run's TTL and notifies subscribers. The caller is the run's sole
// writer, so append order is total.
func (l *Log) Append(runID string, kind model.EventKind, payload json.RawMessage) (model.Event, error) {
	key := keyPrefix + runID
	v, found := l.cache.Get(key)
	if !found {
		return model.Event{}, ErrNotFound
	}
	rl := v.(*runLog)

	rl.mu.Lock()
	rl.nextSeq++
	ev := model.Event{
		Kind:       kind,
		Payload:    payload,
		SequenceID: formatSeq(rl.nextSeq),
		EmittedAt:  time.Now().UTC(),
	}
	rl.events = append(rl.events, ev)
	rl.mu.Unlock()

	// Re-set to extend the TTL while the run is still producing.
	l.cache.Set(key, rl, l.ttl)

	l.notify(runID)
	return ev, nil
}

// ReadAll returns every stored event in append order.
func (l *Log) ReadAll(runID string) ([]model.Event, error) {
	rl, err := l.get(runID)
	if err != nil {
		return nil, err
	}
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	out := make([]model.Event, len(rl.events))
	copy(out, rl.events)
	return out, nil
}

// ReadAfter returns events with a sequence ID strictly greater than
// after, in append order. An empty after returns everything.
func (l *Log) ReadAfter(runID, after string) ([]model.Event, error) {
	rl, err := l.get(runID)
	if err != nil {
		return nil, err
	}
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	i := sort.Search(len(rl.events), func(i int) bool {
		return rl.events[i].SequenceID > after
	})
	out := make([]model.Event, len(rl.events)-i)
	copy(out, rl.events[i:])
	return out, nil
}

// Exists reports whether the run currently has a log.
func (l *Log) Exists(runID string) bool {
	_, found := l.cache.Get(keyPrefix + runID)
	return found
}

// Subscribe returns a channel that receives a signal whenever an event
// is appended to the run, and a cancel func that must be called when
// the subscriber goes away. Signals are best-effort: a slow subscriber
// may coalesce several appends into one wake-up, and correctness never
// depends on receiving them (pollers re-read by sequence ID).
func (l *Log) Subscribe(runID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	l.subMu.Lock()
	l.subs[runID] = append(l.subs[runID], ch)
	l.subMu.Unlock()

	cancel := func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		chans := l.subs[runID]
		for i, c := range chans {
			if c == ch {
				l.subs[runID] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
		if len(l.subs[runID]) == 0 {
			delete(l.subs, runID)
		}
	}
	return ch, cancel
}

func (l *Log) notify(runID string) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, ch := range l.subs[runID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (l *Log) get(runID string) (*runLog, error) {
	v, found := l.cache.Get(keyPrefix + runID)
	if !found {
		return nil, ErrNotFound
	}
	return v.(*runLog), nil
}

// formatSeq renders a per-run counter as a fixed-width decimal so that
// lexicographic order equals append order.
func formatSeq(n uint64) string {
	return fmt.Sprintf("%012d", n)
}
