package model

import "time"

// FactCheckReport is the final aggregate emitted once per run, after
// every claim has a verdict.
type FactCheckReport struct {
	Answer         string    `json:"answer"`
	ClaimsVerified int       `json:"claims_verified"`
	VerifiedClaims []Verdict `json:"verified_claims"`
	Summary        string    `json:"summary"`
	Timestamp      time.Time `json:"timestamp"`
}

// RunMetadata is carried by the metadata event, right after the
// connected marker. It has no ordering dependency on domain events.
type RunMetadata struct {
	RunID     string    `json:"run_id"`
	Text      string    `json:"text"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
