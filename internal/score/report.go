// Package score aggregates per-claim verdicts into the final report:
// the overall answer, a confidence grade, and a summary describing
// verdict and source quality.
package score

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/claimstream/internal/model"
)

// Tally counts verdicts by result.
type Tally struct {
	Supported    int
	Refuted      int
	Insufficient int
	Conflicting  int
}

// Count returns the verdict tally.
func Count(verdicts []model.Verdict) Tally {
	var t Tally
	for _, v := range verdicts {
		switch v.Result {
		case model.VerdictSupported:
			t.Supported++
		case model.VerdictRefuted:
			t.Refuted++
		case model.VerdictConflictingEvidence:
			t.Conflicting++
		default:
			t.Insufficient++
		}
	}
	return t
}

// Total returns the number of tallied verdicts.
func (t Tally) Total() int {
	return t.Supported + t.Refuted + t.Insufficient + t.Conflicting
}

// Builder assembles the final fact-check report.
type Builder struct{}

// NewBuilder creates a report builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build aggregates verdicts and source checks into a report. The
// answer describes verdict distribution; source quality feeds the
// confidence grade and summary only, never the answer itself.
func (b *Builder) Build(verdicts []model.Verdict, checks []model.SourceCheck) model.FactCheckReport {
	tally := Count(verdicts)

	return model.FactCheckReport{
		Answer:         answer(tally),
		ClaimsVerified: tally.Total(),
		VerifiedClaims: verdicts,
		Summary:        b.summary(tally, checks),
		Timestamp:      time.Now().UTC(),
	}
}

func answer(t Tally) string {
	switch {
	case t.Total() == 0:
		return "No verifiable claims found"
	case t.Refuted > 0 && t.Supported == 0:
		return "Refuted"
	case t.Refuted > 0:
		return "Partially accurate"
	case t.Conflicting > 0:
		return "Conflicting evidence"
	case t.Supported == t.Total():
		return "Accurate"
	case t.Supported > 0:
		return "Partially verified"
	default:
		return "Unverifiable"
	}
}

func (b *Builder) summary(t Tally, checks []model.SourceCheck) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("%d claims verified: %d supported, %d refuted, %d with insufficient information, %d with conflicting evidence.",
		t.Total(), t.Supported, t.Refuted, t.Insufficient, t.Conflicting))

	if len(checks) > 0 {
		accessible, primary := 0, 0
		for _, check := range checks {
			if check.IsAccessible {
				accessible++
			}
			if check.Authority == model.TierPrimary {
				primary++
			}
		}
		parts = append(parts, fmt.Sprintf("%d of %d cited sources accessible, %d primary-authority.",
			accessible, len(checks), primary))
	}

	parts = append(parts, "Confidence: "+confidence(t, checks)+".")

	return strings.Join(parts, " ")
}

// confidence grades the run: verdict decisiveness first, then source
// accessibility.
func confidence(t Tally, checks []model.SourceCheck) string {
	if t.Total() == 0 {
		return "none"
	}
	if t.Conflicting > 0 {
		return "low"
	}

	decisive := float64(t.Supported+t.Refuted) / float64(t.Total())

	accessible := 1.0
	if len(checks) > 0 {
		n := 0
		for _, check := range checks {
			if check.IsAccessible {
				n++
			}
		}
		accessible = float64(n) / float64(len(checks))
	}

	switch {
	case decisive >= 0.8 && accessible >= 0.8:
		return "high"
	case decisive >= 0.5 && accessible >= 0.5:
		return "medium"
	default:
		return "low"
	}
}
