// Package extract implements the text-analysis stages of the
// verification pipeline: sentence splitting, checkworthy-content
// selection, disambiguation and potential-claim extraction.
package extract

import (
	"strings"

	"github.com/ppiankov/claimstream/internal/model"
	"golang.org/x/net/html"
)

// Sentences splits submitted answer content into contextual sentences.
// HTML input is reduced to visible text first. IDs are assigned in
// encounter order, starting at zero.
func Sentences(content string) []model.ContextualSentence {
	text := content
	if looksLikeHTML(content) {
		if doc, err := html.Parse(strings.NewReader(content)); err == nil {
			text = visibleText(doc)
		}
	}

	parts := splitSentences(text)
	sentences := make([]model.ContextualSentence, 0, len(parts))
	for i, part := range parts {
		sentences = append(sentences, model.ContextualSentence{ID: i, Text: part})
	}
	return sentences
}

func looksLikeHTML(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<p>") ||
		strings.Contains(lower, "<div") || strings.Contains(lower, "<body")
}

// visibleText extracts text nodes from HTML, skipping non-content tags.
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}

// splitSentences splits text on terminator-plus-space boundaries. The
// lookahead avoids splitting on abbreviations and decimal points.
func splitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	var current strings.Builder

	keep := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= 2 {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' {
			if i+1 >= len(text) || text[i+1] == ' ' || text[i+1] == '\t' {
				keep()
			}
		}
	}
	if current.Len() > 0 {
		keep()
	}

	return sentences
}
