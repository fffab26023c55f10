package model

// ContextualSentence is one input sentence identified by the pipeline.
// IDs are assigned server-side, 0-based, and key the per-sentence
// progress buckets on the client.
type ContextualSentence struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// SelectedContent is the checkworthy fragment selected from a sentence.
// OriginalSentence carries the exact text of the originating sentence;
// consumers match on it to bucket the fragment.
type SelectedContent struct {
	ID               int    `json:"id"`
	ProcessedText    string `json:"processed_text"`
	OriginalSentence string `json:"original_sentence"`
}

// DisambiguatedContent is a fragment with pronouns and ambiguous
// references resolved.
type DisambiguatedContent struct {
	ID                int    `json:"id"`
	DisambiguatedText string `json:"disambiguated_text"`
	OriginalSentence  string `json:"original_sentence"`
}

// PotentialClaim is a candidate factual assertion extracted from a
// disambiguated fragment, not yet validated.
type PotentialClaim struct {
	ClaimText        string `json:"claim_text"`
	OriginalSentence string `json:"original_sentence"`
	SourceText       string `json:"source_text,omitempty"` // disambiguated fragment the claim came from
	Heuristic        string `json:"heuristic,omitempty"`   // which extraction rule matched
}

// ValidatedClaim is a claim that passed validation and is queued for
// verification. OriginalIndex is the explicit back-reference to the
// originating sentence id.
type ValidatedClaim struct {
	ClaimText        string `json:"claim_text"`
	OriginalIndex    int    `json:"original_index"`
	OriginalSentence string `json:"original_sentence,omitempty"`
}

// VerdictResult is the outcome of verifying a single claim.
type VerdictResult string

const (
	VerdictSupported           VerdictResult = "Supported"
	VerdictRefuted             VerdictResult = "Refuted"
	VerdictInsufficientInfo    VerdictResult = "Insufficient Information"
	VerdictConflictingEvidence VerdictResult = "Conflicting Evidence"
)

// Verdict is the terminal domain item for a claim. A run never carries
// two verdicts for the same claim text; consumers drop repeats.
// OriginalSentence back-references the originating sentence by exact
// text, for consumers that cannot resolve the claim through the
// validated-claim collection.
type Verdict struct {
	ClaimText        string        `json:"claim_text"`
	Result           VerdictResult `json:"result"`
	Reasoning        string        `json:"reasoning"`
	Sources          []Source      `json:"sources,omitempty"`
	OriginalSentence string        `json:"original_sentence,omitempty"`
}
