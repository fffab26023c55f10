package reducer

import "github.com/ppiankov/claimstream/internal/model"

// SentenceBucket groups every derived item under its originating
// sentence. Items that map to no known sentence are orphaned and
// excluded from rendering.
type SentenceBucket struct {
	Sentence        model.ContextualSentence
	Selected        []model.SelectedContent
	Disambiguated   []model.DisambiguatedContent
	PotentialClaims []model.PotentialClaim
	ValidatedClaims []model.ValidatedClaim
	Verdicts        []model.Verdict
}

// Buckets derives the per-sentence grouping from the current snapshot,
// ordered by sentence id. Selected, disambiguated and potential-claim
// items map by exact originating-sentence text; validated claims map by
// their explicit originating index; verdicts map through the validated
// claim with the same text, falling back to the verdict's own
// originating-sentence text.
func (s *State) Buckets() []SentenceBucket {
	buckets := make([]SentenceBucket, len(s.Sentences))
	byText := make(map[string]int, len(s.Sentences))
	byID := make(map[int]int, len(s.Sentences))
	for i, sentence := range s.Sentences {
		buckets[i].Sentence = sentence
		byText[sentence.Text] = i
		byID[sentence.ID] = i
	}

	for _, content := range s.Selected {
		if i, ok := byText[content.OriginalSentence]; ok {
			buckets[i].Selected = append(buckets[i].Selected, content)
		}
	}
	for _, content := range s.Disambiguated {
		if i, ok := byText[content.OriginalSentence]; ok {
			buckets[i].Disambiguated = append(buckets[i].Disambiguated, content)
		}
	}
	for _, claim := range s.PotentialClaims {
		if i, ok := byText[claim.OriginalSentence]; ok {
			buckets[i].PotentialClaims = append(buckets[i].PotentialClaims, claim)
		}
	}
	for _, claim := range s.ValidatedClaims {
		if i, ok := byID[claim.OriginalIndex]; ok {
			buckets[i].ValidatedClaims = append(buckets[i].ValidatedClaims, claim)
		}
	}

	validatedIndex := make(map[string]int, len(s.ValidatedClaims))
	for _, claim := range s.ValidatedClaims {
		if i, ok := byID[claim.OriginalIndex]; ok {
			validatedIndex[claim.ClaimText] = i
		}
	}
	for _, verdict := range s.Verdicts {
		if i, ok := validatedIndex[verdict.ClaimText]; ok {
			buckets[i].Verdicts = append(buckets[i].Verdicts, verdict)
			continue
		}
		if verdict.OriginalSentence == "" {
			continue
		}
		if i, ok := byText[verdict.OriginalSentence]; ok {
			buckets[i].Verdicts = append(buckets[i].Verdicts, verdict)
		}
	}

	return buckets
}
