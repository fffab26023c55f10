package score

import (
	"strings"
	"testing"

	"github.com/ppiankov/claimstream/internal/model"
)

func verdicts(results ...model.VerdictResult) []model.Verdict {
	out := make([]model.Verdict, len(results))
	for i, r := range results {
		out[i] = model.Verdict{ClaimText: "claim", Result: r}
	}
	return out
}

func TestAnswer(t *testing.T) {
	tests := []struct {
		name    string
		results []model.VerdictResult
		want    string
	}{
		{"no verdicts", nil, "No verifiable claims found"},
		{"all supported", []model.VerdictResult{model.VerdictSupported, model.VerdictSupported}, "Accurate"},
		{"all refuted", []model.VerdictResult{model.VerdictRefuted}, "Refuted"},
		{"mixed", []model.VerdictResult{model.VerdictSupported, model.VerdictRefuted}, "Partially accurate"},
		{"conflicting", []model.VerdictResult{model.VerdictSupported, model.VerdictConflictingEvidence}, "Conflicting evidence"},
		{"partial", []model.VerdictResult{model.VerdictSupported, model.VerdictInsufficientInfo}, "Partially verified"},
		{"unverifiable", []model.VerdictResult{model.VerdictInsufficientInfo}, "Unverifiable"},
	}

	b := NewBuilder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := b.Build(verdicts(tt.results...), nil)
			if report.Answer != tt.want {
				t.Errorf("Answer = %q, want %q", report.Answer, tt.want)
			}
			if report.ClaimsVerified != len(tt.results) {
				t.Errorf("ClaimsVerified = %d", report.ClaimsVerified)
			}
		})
	}
}

func TestBuildSummaryMentionsSources(t *testing.T) {
	checks := []model.SourceCheck{
		{URL: "https://nih.gov/a", IsAccessible: true, Authority: model.TierPrimary},
		{URL: "https://dead.example.com", IsDead: true},
	}

	report := NewBuilder().Build(verdicts(model.VerdictSupported), checks)
	if !strings.Contains(report.Summary, "1 of 2 cited sources accessible") {
		t.Errorf("Summary = %q", report.Summary)
	}
	if !strings.Contains(report.Summary, "1 primary-authority") {
		t.Errorf("Summary = %q", report.Summary)
	}
}

func TestConfidence(t *testing.T) {
	allGood := []model.SourceCheck{{IsAccessible: true}}

	if got := confidence(Count(verdicts(model.VerdictSupported, model.VerdictSupported)), allGood); got != "high" {
		t.Errorf("decisive verdicts with accessible sources = %q, want high", got)
	}
	if got := confidence(Count(verdicts(model.VerdictSupported, model.VerdictInsufficientInfo)), allGood); got != "medium" {
		t.Errorf("half decisive = %q, want medium", got)
	}
	if got := confidence(Count(verdicts(model.VerdictConflictingEvidence)), nil); got != "low" {
		t.Errorf("conflicting = %q, want low", got)
	}
	if got := confidence(Tally{}, nil); got != "none" {
		t.Errorf("no verdicts = %q, want none", got)
	}
}
