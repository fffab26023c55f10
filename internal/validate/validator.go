// Package validate filters potential claims down to the validated set
// queued for verification.
package validate

import (
	"strings"

	"github.com/ppiankov/claimstream/internal/model"
)

const (
	minClaimLen = 10
	maxClaimLen = 300
)

// rejectedMarkers disqualify a candidate outright: self-reference and
// hedging produce assertions that cannot be verified.
var rejectedMarkers = []string{
	"i think", "i believe", "in my opinion", "we believe",
	"probably", "perhaps", "maybe", "might", "could be", "it seems",
}

// Validator decides which potential claims are well-formed enough to
// verify. Validation is deterministic and purely lexical.
type Validator struct{}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate filters candidates and resolves each survivor to its
// originating sentence. Duplicate (text, sentence) pairs collapse to
// one validated claim. Candidates whose originating sentence is not in
// the given set are dropped: a claim that cannot be attributed cannot
// be displayed or verified meaningfully.
func (v *Validator) Validate(candidates []model.PotentialClaim, sentences []model.ContextualSentence) []model.ValidatedClaim {
	byText := make(map[string]model.ContextualSentence, len(sentences))
	for _, s := range sentences {
		byText[s.Text] = s
	}

	seen := make(map[string]bool)
	var validated []model.ValidatedClaim

	for _, candidate := range candidates {
		if !v.acceptable(candidate.ClaimText) {
			continue
		}
		origin, ok := byText[candidate.OriginalSentence]
		if !ok {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(candidate.ClaimText)) + "\x00" + origin.Text
		if seen[key] {
			continue
		}
		seen[key] = true

		validated = append(validated, model.ValidatedClaim{
			ClaimText:        candidate.ClaimText,
			OriginalIndex:    origin.ID,
			OriginalSentence: origin.Text,
		})
	}

	return validated
}

// acceptable applies the lexical rules: length bounds, no questions,
// no hedging, and at least three words.
func (v *Validator) acceptable(text string) bool {
	text = strings.TrimSpace(text)
	if len(text) < minClaimLen || len(text) > maxClaimLen {
		return false
	}
	if strings.HasSuffix(text, "?") {
		return false
	}
	if len(strings.Fields(text)) < 3 {
		return false
	}

	lower := " " + strings.ToLower(text) + " "
	for _, marker := range rejectedMarkers {
		if strings.Contains(lower, " "+marker+" ") {
			return false
		}
	}
	return true
}
