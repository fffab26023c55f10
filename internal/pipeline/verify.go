package pipeline

import (
	"fmt"
	"strings"

	"github.com/ppiankov/claimstream/internal/extract"
	"github.com/ppiankov/claimstream/internal/model"
)

// negationMarkers flip a matching snippet from supporting to refuting.
var negationMarkers = []string{
	" not ", " never ", " no longer ", " false", " incorrect",
	" myth", " debunked", " contrary to ",
}

// heuristicVerdict judges a claim by lexical overlap with the
// retrieved evidence. It is the fallback when no LLM provider is
// configured and errs toward Insufficient Information.
func heuristicVerdict(claim model.ValidatedClaim, evidence []model.Evidence) *model.Verdict {
	terms := extract.ContentTerms(claim.ClaimText)

	verdict := &model.Verdict{
		ClaimText:        claim.ClaimText,
		OriginalSentence: claim.OriginalSentence,
	}

	if len(evidence) == 0 || len(terms) == 0 {
		verdict.Result = model.VerdictInsufficientInfo
		verdict.Reasoning = "No evidence was retrieved for this claim."
		return verdict
	}

	claimNegated := hasNegation(claim.ClaimText)

	supporting, refuting := 0, 0
	seen := make(map[string]bool)
	for _, ev := range evidence {
		matched := 0
		lower := strings.ToLower(" " + ev.Snippet + " ")
		for _, term := range terms {
			if strings.Contains(lower, term) {
				matched++
			}
		}
		if float64(matched)/float64(len(terms)) < 0.5 {
			continue
		}

		// A snippet negating what the claim asserts counts against it.
		if hasNegation(ev.Snippet) != claimNegated {
			refuting++
		} else {
			supporting++
		}
		if !seen[ev.URL] {
			seen[ev.URL] = true
			verdict.Sources = append(verdict.Sources, model.Source{URL: ev.URL, Title: ev.Title})
		}
	}

	switch {
	case supporting > 0 && refuting > 0:
		verdict.Result = model.VerdictConflictingEvidence
		verdict.Reasoning = fmt.Sprintf("%d snippets agree with the claim while %d contradict it.", supporting, refuting)
	case supporting > 0:
		verdict.Result = model.VerdictSupported
		verdict.Reasoning = fmt.Sprintf("%d evidence snippets agree with the claim.", supporting)
	case refuting > 0:
		verdict.Result = model.VerdictRefuted
		verdict.Reasoning = fmt.Sprintf("%d evidence snippets contradict the claim.", refuting)
	default:
		verdict.Result = model.VerdictInsufficientInfo
		verdict.Reasoning = "Retrieved evidence does not bear on the claim."
		verdict.Sources = nil
	}

	return verdict
}

func hasNegation(text string) bool {
	lower := " " + strings.ToLower(text) + " "
	for _, marker := range negationMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
