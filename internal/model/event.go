package model

import (
	"encoding/json"
	"time"
)

// EventKind tags one unit of pipeline progress on the wire.
// The taxonomy is open for extension: kinds this package does not know
// about still round-trip through the log and the relay untouched, and
// consumers treat them as passthrough.
type EventKind string

const (
	KindStart     EventKind = "start"     // log initialized
	KindConnected EventKind = "connected" // connection established
	KindMetadata  EventKind = "metadata"  // run metadata, no ordering dependency

	KindContextualSentenceAdded   EventKind = "ContextualSentenceAdded"
	KindSelectedContentAdded      EventKind = "SelectedContentAdded"
	KindDisambiguatedContentAdded EventKind = "DisambiguatedContentAdded"
	KindPotentialClaimAdded       EventKind = "PotentialClaimAdded"
	KindValidatedClaimAdded       EventKind = "ValidatedClaimAdded"
	KindSearchQueryGenerated      EventKind = "SearchQueryGenerated"
	KindEvidenceRetrieved         EventKind = "EvidenceRetrieved"
	KindClaimVerificationResult   EventKind = "ClaimVerificationResult"
	KindFactCheckReportGenerated  EventKind = "FactCheckReportGenerated"

	KindComplete EventKind = "complete" // terminal success marker
	KindError    EventKind = "error"    // terminal failure marker
)

// Terminal reports whether the kind ends a run and every relay
// connection observing it.
func (k EventKind) Terminal() bool {
	return k == KindComplete || k == KindError
}

// Known reports whether the kind belongs to the documented taxonomy.
func (k EventKind) Known() bool {
	switch k {
	case KindStart, KindConnected, KindMetadata,
		KindContextualSentenceAdded, KindSelectedContentAdded,
		KindDisambiguatedContentAdded, KindPotentialClaimAdded,
		KindValidatedClaimAdded, KindSearchQueryGenerated,
		KindEvidenceRetrieved, KindClaimVerificationResult,
		KindFactCheckReportGenerated, KindComplete, KindError:
		return true
	}
	return false
}

// Event is one immutable entry in a run's append-only log.
// SequenceID is assigned at append time; within one run, sequence IDs
// compare strictly greater in append order.
type Event struct {
	Kind       EventKind       `json:"event"`
	Payload    json.RawMessage `json:"data"`
	SequenceID string          `json:"id"`
	EmittedAt  time.Time       `json:"emitted_at"`
}

// StartPayload is carried by the synthetic start event.
type StartPayload struct {
	RunID     string `json:"run_id"`
	Timestamp int64  `json:"timestamp"`
}

// ConnectedPayload is carried by the connected marker.
type ConnectedPayload struct {
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

// ErrorPayload is carried by the terminal error event.
type ErrorPayload struct {
	Message string `json:"message"`
	RunID   string `json:"run_id"`
}

// CompletePayload is carried by the terminal complete event.
type CompletePayload struct {
	Completed bool `json:"completed"`
}
