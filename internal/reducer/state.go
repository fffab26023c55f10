// Package reducer reconstructs run progress from the relayed event
// stream: parsing, deduplication, per-sentence bucketing and the
// active-unit derivation that drives progress display.
//
// The reducer is single-threaded and cooperative: Apply is invoked once
// per received message and returns a fresh snapshot, so renders working
// off an older snapshot never race an update.
package reducer

import (
	"encoding/json"
	"sort"

	"github.com/ppiankov/claimstream/internal/logging"
	"github.com/ppiankov/claimstream/internal/model"
)

// Message is one parsed relay message: a kind tag plus its raw payload.
type Message struct {
	Kind model.EventKind
	Data json.RawMessage
}

// State is an immutable snapshot of everything reconstructed from the
// stream so far. Apply returns a new snapshot; existing ones are never
// mutated.
type State struct {
	Loading  bool
	Err      string
	Terminal model.EventKind // zero until complete/error observed
	Received int             // messages ingested, including ignored ones

	Metadata *model.RunMetadata
	Report   *model.FactCheckReport

	Sentences       []model.ContextualSentence // sorted by id
	Selected        []model.SelectedContent
	Disambiguated   []model.DisambiguatedContent
	PotentialClaims []model.PotentialClaim
	ValidatedClaims []model.ValidatedClaim
	SearchQueries   []string
	EvidenceBatches [][]model.Evidence
	Verdicts        []model.Verdict
}

// NewState returns the initial snapshot for a run being observed.
func NewState() *State {
	return &State{Loading: true}
}

// Apply ingests one message and returns the next snapshot. Unknown
// kinds and undecodable payloads are logged and ignored; the reducer
// never fails on input.
func (s *State) Apply(msg Message) *State {
	ns := s.clone()
	ns.Received++

	switch msg.Kind {
	case model.KindStart, model.KindConnected:
		// markers carry no domain data

	case model.KindMetadata:
		var md model.RunMetadata
		if decode(msg, &md) {
			ns.Metadata = &md
		}

	case model.KindContextualSentenceAdded:
		var sentence model.ContextualSentence
		if decode(msg, &sentence) {
			ns.addSentence(sentence)
		}

	case model.KindSelectedContentAdded:
		var content model.SelectedContent
		if decode(msg, &content) {
			ns.Selected = append(ns.Selected, content)
		}

	case model.KindDisambiguatedContentAdded:
		var content model.DisambiguatedContent
		if decode(msg, &content) {
			ns.Disambiguated = append(ns.Disambiguated, content)
		}

	case model.KindPotentialClaimAdded:
		var claim model.PotentialClaim
		if decode(msg, &claim) {
			ns.PotentialClaims = append(ns.PotentialClaims, claim)
		}

	case model.KindValidatedClaimAdded:
		var claim model.ValidatedClaim
		if decode(msg, &claim) {
			ns.addValidatedClaim(claim)
		}

	case model.KindSearchQueryGenerated:
		var q struct {
			Query string `json:"query"`
		}
		if decode(msg, &q) {
			ns.SearchQueries = append(ns.SearchQueries, q.Query)
		}

	case model.KindEvidenceRetrieved:
		var e struct {
			Evidence []model.Evidence `json:"evidence"`
		}
		if decode(msg, &e) {
			ns.EvidenceBatches = append(ns.EvidenceBatches, e.Evidence)
		}

	case model.KindClaimVerificationResult:
		var verdict model.Verdict
		if decode(msg, &verdict) {
			ns.addVerdict(verdict)
		}

	case model.KindFactCheckReportGenerated:
		var report model.FactCheckReport
		if decode(msg, &report) {
			ns.Report = &report
		}

	case model.KindComplete:
		ns.Loading = false
		ns.Terminal = model.KindComplete

	case model.KindError:
		var payload model.ErrorPayload
		if decode(msg, &payload) {
			ns.Err = payload.Message
		}
		ns.Loading = false
		ns.Terminal = model.KindError

	default:
		logging.Warn("Ignoring unknown event kind", "kind", string(msg.Kind))
	}

	return ns
}

// addSentence accepts a sentence only if its id is not already present,
// keeping the collection sorted by id.
func (s *State) addSentence(sentence model.ContextualSentence) {
	for _, existing := range s.Sentences {
		if existing.ID == sentence.ID {
			return
		}
	}
	s.Sentences = append(s.Sentences, sentence)
	sort.Slice(s.Sentences, func(i, j int) bool {
		return s.Sentences[i].ID < s.Sentences[j].ID
	})
}

// addValidatedClaim drops claims whose (text, originating id) pair is
// already present.
func (s *State) addValidatedClaim(claim model.ValidatedClaim) {
	for _, existing := range s.ValidatedClaims {
		if existing.ClaimText == claim.ClaimText && existing.OriginalIndex == claim.OriginalIndex {
			return
		}
	}
	s.ValidatedClaims = append(s.ValidatedClaims, claim)
}

// addVerdict drops a second verdict for the same claim text rather than
// overwriting the first. Pipeline re-verdicts are silently discarded;
// see the dedup notes in DESIGN.md.
func (s *State) addVerdict(verdict model.Verdict) {
	for _, existing := range s.Verdicts {
		if existing.ClaimText == verdict.ClaimText {
			return
		}
	}
	s.Verdicts = append(s.Verdicts, verdict)
}

func decode(msg Message, v any) bool {
	if err := json.Unmarshal(msg.Data, v); err != nil {
		logging.Warn("Undecodable event payload", "kind", string(msg.Kind), "error", err)
		return false
	}
	return true
}

// clone deep-copies the slice collections so snapshots never share
// backing arrays.
func (s *State) clone() *State {
	ns := *s
	ns.Sentences = append([]model.ContextualSentence(nil), s.Sentences...)
	ns.Selected = append([]model.SelectedContent(nil), s.Selected...)
	ns.Disambiguated = append([]model.DisambiguatedContent(nil), s.Disambiguated...)
	ns.PotentialClaims = append([]model.PotentialClaim(nil), s.PotentialClaims...)
	ns.ValidatedClaims = append([]model.ValidatedClaim(nil), s.ValidatedClaims...)
	ns.SearchQueries = append([]string(nil), s.SearchQueries...)
	ns.EvidenceBatches = append([][]model.Evidence(nil), s.EvidenceBatches...)
	ns.Verdicts = append([]model.Verdict(nil), s.Verdicts...)
	return &ns
}
