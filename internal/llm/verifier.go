// Package llm verifies validated claims against retrieved evidence
// using a configurable model provider. Providers operate in strict
// evidence mode: a verdict may only cite URLs from the evidence it was
// given, and a response citing anything else is rejected.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/claimstream/internal/model"
)

// Verifier is one model provider able to judge a claim against
// evidence.
type Verifier interface {
	// Name returns the provider name.
	Name() string

	// Verify judges a single claim.
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error)

	// IsAvailable checks if the provider is configured and reachable.
	IsAvailable(ctx context.Context) bool
}

// VerifyRequest is the input for one claim verification.
type VerifyRequest struct {
	Claim    model.ValidatedClaim
	Evidence []model.Evidence

	// Model overrides the configured model for this request.
	Model string

	// MaxTokens limits the response length.
	MaxTokens int
}

// VerifyResponse is a provider's judgement of one claim.
type VerifyResponse struct {
	Result     model.VerdictResult
	Reasoning  string
	CitedURLs  []string
	Model      string
	TokensUsed int
}

// Config holds provider configuration.
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "".
	Provider string

	Model   string
	APIKey  string
	BaseURL string

	// Timeout for API requests, seconds.
	Timeout int

	MaxTokens int

	// Proxy settings for providers that honor them.
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

const verifySystemPrompt = "You are a fact-checking assistant. You judge whether evidence " +
	"supports a claim, citing only the evidence you were given."

// BuildPrompt constructs the verification prompt. The evidence list is
// the strict citation allowlist.
func BuildPrompt(claim model.ValidatedClaim, evidence []model.Evidence) string {
	var b strings.Builder

	fmt.Fprintf(&b, `Judge the following claim strictly against the evidence below.

CRITICAL RULES:
1. Cite ONLY URLs that appear in the evidence list. Never cite anything else.
2. Do not use outside knowledge to override the evidence.
3. If the evidence is missing or does not bear on the claim, say so.

Claim: %s

Evidence:
`, claim.ClaimText)

	if len(evidence) == 0 {
		b.WriteString("(none)\n")
	}
	for i, ev := range evidence {
		if i >= 20 {
			fmt.Fprintf(&b, "... and %d more snippets\n", len(evidence)-20)
			break
		}
		fmt.Fprintf(&b, "- [%s] %s\n", ev.URL, ev.Snippet)
	}

	b.WriteString(`
Answer in exactly this format:
Verdict: one of Supported, Refuted, Insufficient Information, Conflicting Evidence
Reasoning: 2-3 sentences referencing the evidence.`)

	return b.String()
}

// parseVerdict extracts the verdict and reasoning from a provider
// response. A response without a recognizable verdict line maps to
// Insufficient Information so a malformed reply never inflates
// confidence.
func parseVerdict(text string) (model.VerdictResult, string) {
	result := model.VerdictInsufficientInfo
	var reasoning []string

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Verdict:"):
			v := strings.TrimSpace(strings.TrimPrefix(line, "Verdict:"))
			switch strings.ToLower(v) {
			case "supported":
				result = model.VerdictSupported
			case "refuted":
				result = model.VerdictRefuted
			case "insufficient information":
				result = model.VerdictInsufficientInfo
			case "conflicting evidence":
				result = model.VerdictConflictingEvidence
			}
		case strings.HasPrefix(line, "Reasoning:"):
			reasoning = append(reasoning, strings.TrimSpace(strings.TrimPrefix(line, "Reasoning:")))
		case line != "" && len(reasoning) > 0:
			reasoning = append(reasoning, line)
		}
	}

	return result, strings.Join(reasoning, " ")
}

// checkCitations enforces strict evidence mode: every cited URL must
// come from the request's evidence.
func checkCitations(cited []string, evidence []model.Evidence) error {
	allowed := make(map[string]bool, len(evidence))
	for _, ev := range evidence {
		allowed[ev.URL] = true
	}
	for _, url := range cited {
		if !allowed[url] {
			return fmt.Errorf("citation leak: provider cited disallowed URL %s", url)
		}
	}
	return nil
}

var urlPattern = regexp.MustCompile(`https?://[^\s\)\]]+`)

// extractURLs pulls cited URLs out of response text, trailing
// punctuation trimmed, deduplicated in order.
func extractURLs(text string) []string {
	matches := urlPattern.FindAllString(text, -1)

	seen := make(map[string]bool)
	var unique []string
	for _, url := range matches {
		url = strings.TrimRight(url, ".,;:!?")
		if !seen[url] {
			seen[url] = true
			unique = append(unique, url)
		}
	}
	return unique
}

// sourcesFrom converts cited URLs back to verdict sources, reusing
// evidence titles where known.
func sourcesFrom(cited []string, evidence []model.Evidence) []model.Source {
	titles := make(map[string]string, len(evidence))
	for _, ev := range evidence {
		titles[ev.URL] = ev.Title
	}

	sources := make([]model.Source, 0, len(cited))
	for _, url := range cited {
		sources = append(sources, model.Source{URL: url, Title: titles[url]})
	}
	return sources
}

// Verdict assembles a full verdict from a provider response.
func (r *VerifyResponse) Verdict(claim model.ValidatedClaim, evidence []model.Evidence) *model.Verdict {
	return &model.Verdict{
		ClaimText:        claim.ClaimText,
		Result:           r.Result,
		Reasoning:        r.Reasoning,
		Sources:          sourcesFrom(r.CitedURLs, evidence),
		OriginalSentence: claim.OriginalSentence,
	}
}
