package extract

import (
	"strings"

	"github.com/ppiankov/claimstream/internal/model"
)

// opinionMarkers disqualify a sentence from selection: subjective
// framing is not checkworthy content.
var opinionMarkers = []string{
	"i think", "i believe", "in my opinion", "arguably",
	"probably", "perhaps", "maybe", "it seems", "might be",
}

// factualMarkers indicate a sentence asserts something checkable.
var factualMarkers = []string{
	" is ", " are ", " was ", " were ", " has ", " have ", " had ",
	"originated", "founded", "invented", "discovered", "established",
	"created", "developed", "introduced", "located", "completed",
	"according to", "consists of", "contains", "borders", "measures",
}

// Select decides whether a sentence carries checkworthy content and, if
// so, returns the selected fragment. Questions and subjective
// statements are passed over.
func Select(sentence model.ContextualSentence) (model.SelectedContent, bool) {
	text := strings.TrimSpace(sentence.Text)
	if text == "" || strings.HasSuffix(text, "?") {
		return model.SelectedContent{}, false
	}

	lower := " " + strings.ToLower(text) + " "
	for _, marker := range opinionMarkers {
		if strings.Contains(lower, marker) {
			return model.SelectedContent{}, false
		}
	}

	checkworthy := containsDigit(text)
	if !checkworthy {
		for _, marker := range factualMarkers {
			if strings.Contains(lower, marker) {
				checkworthy = true
				break
			}
		}
	}
	if !checkworthy {
		return model.SelectedContent{}, false
	}

	return model.SelectedContent{
		ID:               sentence.ID,
		ProcessedText:    text,
		OriginalSentence: sentence.Text,
	}, true
}

// leadingPronouns are substituted during disambiguation when a prior
// subject is known.
var leadingPronouns = []string{
	"It ", "It's ", "Its ", "They ", "This ", "That ", "These ", "Those ",
	"He ", "She ", "His ", "Her ", "Their ",
}

// Disambiguate resolves a leading pronoun against the subject of the
// preceding context. When no pronoun leads the fragment, or no subject
// can be found, the text passes through unchanged.
func Disambiguate(content model.SelectedContent, priorContext string) model.DisambiguatedContent {
	text := content.ProcessedText

	for _, pronoun := range leadingPronouns {
		if !strings.HasPrefix(text, pronoun) {
			continue
		}
		subject := subjectOf(priorContext)
		if subject == "" {
			break
		}
		rest := strings.TrimPrefix(text, pronoun)
		switch strings.TrimSpace(pronoun) {
		case "It's":
			text = subject + " is " + rest
		case "Its", "His", "Her", "Their":
			text = subject + "'s " + rest
		default:
			text = subject + " " + rest
		}
		break
	}

	return model.DisambiguatedContent{
		ID:                content.ID,
		DisambiguatedText: text,
		OriginalSentence:  content.OriginalSentence,
	}
}

// subjectOf guesses the subject of a sentence: the longest run of
// leading capitalized words, articles allowed in between.
func subjectOf(sentence string) string {
	words := strings.Fields(sentence)
	var subject []string
	for i, word := range words {
		trimmed := strings.TrimRight(word, ".,;:!?")
		if trimmed == "" {
			break
		}
		if isCapitalized(trimmed) || (len(subject) > 0 && isArticle(trimmed)) {
			subject = append(subject, trimmed)
			if word != trimmed {
				break
			}
			continue
		}
		if i == 0 {
			return ""
		}
		break
	}
	return strings.Join(subject, " ")
}

func isCapitalized(word string) bool {
	return word != "" && word[0] >= 'A' && word[0] <= 'Z'
}

func isArticle(word string) bool {
	switch strings.ToLower(word) {
	case "of", "the", "a", "an":
		return true
	}
	return false
}

func containsDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}
