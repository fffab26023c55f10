package model

import "time"

// Source is a reference cited by a verdict.
type Source struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// AuthorityTier ranks how authoritative a source host is.
type AuthorityTier string

const (
	TierPrimary   AuthorityTier = "primary"   // government, academic, standards bodies
	TierSecondary AuthorityTier = "secondary" // established press, encyclopedias
	TierTertiary  AuthorityTier = "tertiary"  // everything else
)

// SourceCheck is the result of probing a verdict source for
// accessibility. Checks are best-effort: a source that cannot be
// probed is reported, never dropped.
type SourceCheck struct {
	URL          string        `json:"url"`
	IsAccessible bool          `json:"is_accessible"`
	StatusCode   int           `json:"status_code,omitempty"`
	LastModified *time.Time    `json:"last_modified,omitempty"`
	IsDead       bool          `json:"is_dead"` // 404, 410, or timeout
	Authority    AuthorityTier `json:"authority,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// Evidence is one retrieved snippet supporting or refuting a claim,
// carried by EvidenceRetrieved events.
type Evidence struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}
