package extract

import (
	"strings"

	"github.com/ppiankov/claimstream/internal/model"
)

// stopwords are excluded when matching claim terms against page text.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "has": true, "have": true, "had": true,
	"of": true, "in": true, "on": true, "to": true, "and": true,
	"it": true, "its": true, "for": true, "by": true, "with": true,
	"at": true, "as": true, "that": true, "this": true, "from": true,
}

// Snippets pulls evidence snippets out of a fetched page: sentences of
// the page's visible text sharing at least minOverlap content terms
// with the claim. Results are capped at limit.
func Snippets(claimText, pageHTML, pageURL, pageTitle string, limit int) []model.Evidence {
	if limit <= 0 {
		limit = 3
	}

	terms := contentTerms(claimText)
	if len(terms) == 0 {
		return nil
	}
	minOverlap := 2
	if len(terms) < 2 {
		minOverlap = 1
	}

	var evidence []model.Evidence
	for _, sentence := range Sentences(pageHTML) {
		if overlap(terms, sentence.Text) >= minOverlap {
			evidence = append(evidence, model.Evidence{
				URL:     pageURL,
				Title:   pageTitle,
				Snippet: sentence.Text,
			})
			if len(evidence) >= limit {
				break
			}
		}
	}
	return evidence
}

// ContentTerms exposes the claim's content-bearing terms, used by the
// search-query stage.
func ContentTerms(text string) []string {
	return contentTerms(text)
}

func contentTerms(text string) []string {
	var terms []string
	seen := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if len(word) < 3 || stopwords[word] || seen[word] {
			continue
		}
		seen[word] = true
		terms = append(terms, word)
	}
	return terms
}

func overlap(terms []string, sentence string) int {
	lower := strings.ToLower(sentence)
	count := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			count++
		}
	}
	return count
}
