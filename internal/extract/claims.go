package extract

import (
	"strings"

	"github.com/ppiankov/claimstream/internal/model"
)

// claimKeywords tag the assertion style of an extracted claim. The
// first matching keyword is recorded as the extraction heuristic.
var claimKeywords = []string{
	"originated", "origin", "first", "introduced", "invented",
	"according to", "is defined as", "established", "founded",
	"created", "discovered", "developed", "completed", "located",
	"is", "are", "was", "were", "has", "have",
}

// PotentialClaims extracts candidate factual assertions from a
// disambiguated fragment. Compound fragments split on coordinating
// boundaries so each candidate asserts one thing.
func PotentialClaims(content model.DisambiguatedContent) []model.PotentialClaim {
	var claims []model.PotentialClaim

	for _, part := range splitCompound(content.DisambiguatedText) {
		part = strings.TrimSpace(strings.TrimRight(part, ".!"))
		if part == "" {
			continue
		}

		heuristic := matchKeyword(part)
		if heuristic == "" && !containsDigit(part) {
			continue
		}
		if heuristic == "" {
			heuristic = "numeric"
		}

		claims = append(claims, model.PotentialClaim{
			ClaimText:        part,
			OriginalSentence: content.OriginalSentence,
			SourceText:       content.DisambiguatedText,
			Heuristic:        heuristic,
		})
	}

	return dedupeClaims(claims)
}

// splitCompound breaks a fragment on semicolons and ", and" joints.
// Plain "and" is left alone: it usually binds a single assertion.
func splitCompound(text string) []string {
	parts := strings.Split(text, ";")

	var out []string
	for _, part := range parts {
		subparts := strings.Split(part, ", and ")
		out = append(out, subparts...)
	}
	return out
}

func matchKeyword(text string) string {
	lower := " " + strings.ToLower(text) + " "
	for _, keyword := range claimKeywords {
		if strings.Contains(lower, " "+keyword+" ") {
			return "keyword:" + keyword
		}
	}
	return ""
}

// dedupeClaims removes duplicates by normalized claim text, keeping
// first occurrence order.
func dedupeClaims(claims []model.PotentialClaim) []model.PotentialClaim {
	seen := make(map[string]bool)
	var unique []model.PotentialClaim

	for _, claim := range claims {
		key := strings.ToLower(strings.TrimSpace(claim.ClaimText))
		if !seen[key] {
			seen[key] = true
			unique = append(unique, claim)
		}
	}

	return unique
}
