// Package pipeline drives the verification of one submitted answer:
// splitting, selection, disambiguation, claim extraction, validation,
// evidence retrieval, verification and the final report, each stage
// appended to the run's event log as it happens.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/ppiankov/claimstream/internal/cache"
	"github.com/ppiankov/claimstream/internal/eventlog"
	"github.com/ppiankov/claimstream/internal/extract"
	"github.com/ppiankov/claimstream/internal/ingress"
	"github.com/ppiankov/claimstream/internal/llm"
	"github.com/ppiankov/claimstream/internal/logging"
	"github.com/ppiankov/claimstream/internal/model"
	"github.com/ppiankov/claimstream/internal/score"
	"github.com/ppiankov/claimstream/internal/source"
	"github.com/ppiankov/claimstream/internal/store"
	"github.com/ppiankov/claimstream/internal/validate"
	"github.com/ppiankov/claimstream/internal/worker"
)

const runTimeout = 5 * time.Minute

// Runner executes the pipeline for submitted runs. It satisfies the
// relay's Launcher interface; Launch returns immediately and the run
// proceeds in the background.
type Runner struct {
	log    *eventlog.Log
	store  *store.Store
	writer *ingress.Writer
	cfg    *model.Config

	verifier  llm.Verifier // nil falls back to heuristics
	searcher  *Searcher
	fetcher   *Fetcher
	checker   *source.Checker
	validator *validate.Validator

	// verify overrides the claim-verification path when set; tests use
	// it to avoid the network.
	verify worker.VerifyFunc
}

// NewRunner wires a runner from shared infrastructure and config.
func NewRunner(log *eventlog.Log, st *store.Store, cfg *model.Config) *Runner {
	verifier, err := llm.New(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		logging.Warn("LLM provider unavailable, using heuristic verification", "error", err)
	}

	return &Runner{
		log:       log,
		store:     st,
		writer:    ingress.NewWriter(log),
		cfg:       cfg,
		verifier:  verifier,
		searcher:  NewSearcher("", cfg.HTTP.UserAgent, cfg.HTTP.Timeout),
		fetcher:   NewFetcher(cfg.HTTP, cfg.Concurrency, pageCache()),
		checker:   source.NewChecker(cfg.HTTP, cfg.Concurrency, "", "", ""),
		validator: validate.NewValidator(),
	}
}

// pageCache builds the evidence page cache, memory-only when no home
// directory is available.
func pageCache() cache.Cache {
	home, err := os.UserHomeDir()
	if err != nil {
		return cache.NewMemoryCache(time.Hour, 10*time.Minute)
	}
	return cache.NewLayeredCache(time.Hour, filepath.Join(home, ".claimstream", "cache"), fetchCacheTTL)
}

// Launch starts the run in the background.
func (r *Runner) Launch(runID, text string) {
	go r.run(runID, text)
}

func (r *Runner) run(runID, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	if err := r.log.Create(runID); err != nil {
		logging.Error("Event log creation failed", "run", runID, "error", err)
		_ = r.store.FailRun(runID)
		return
	}

	if err := r.execute(ctx, runID, text); err != nil {
		logging.Error("Run failed", "run", runID, "error", err)
		_ = r.writer.Fail(runID, err.Error())
		_ = r.store.FailRun(runID)
		return
	}
}

func (r *Runner) execute(ctx context.Context, runID, text string) error {
	started := time.Now()

	if err := r.store.MarkStreaming(runID); err != nil {
		return err
	}
	if err := r.writer.WriteValue(runID, model.KindMetadata, model.RunMetadata{
		RunID:     runID,
		Text:      text,
		CreatedAt: started.UTC(),
	}); err != nil {
		return err
	}

	sentences := extract.Sentences(text)
	for _, sentence := range sentences {
		if err := r.writer.WriteValue(runID, model.KindContextualSentenceAdded, sentence); err != nil {
			return err
		}
	}

	var selected []model.SelectedContent
	for _, sentence := range sentences {
		sel, ok := extract.Select(sentence)
		if !ok {
			continue
		}
		selected = append(selected, sel)
		if err := r.writer.WriteValue(runID, model.KindSelectedContentAdded, sel); err != nil {
			return err
		}
	}

	var disambiguated []model.DisambiguatedContent
	for _, sel := range selected {
		dis := extract.Disambiguate(sel, priorContext(sentences, sel.ID))
		disambiguated = append(disambiguated, dis)
		if err := r.writer.WriteValue(runID, model.KindDisambiguatedContentAdded, dis); err != nil {
			return err
		}
	}

	var potential []model.PotentialClaim
	for _, dis := range disambiguated {
		for _, claim := range extract.PotentialClaims(dis) {
			potential = append(potential, claim)
			if err := r.writer.WriteValue(runID, model.KindPotentialClaimAdded, claim); err != nil {
				return err
			}
		}
	}

	validated := r.validator.Validate(potential, sentences)
	for _, claim := range validated {
		if err := r.writer.WriteValue(runID, model.KindValidatedClaimAdded, claim); err != nil {
			return err
		}
	}

	verdicts := r.verifyAll(ctx, runID, validated)
	for i := range verdicts {
		if err := r.writer.WriteValue(runID, model.KindClaimVerificationResult, verdicts[i]); err != nil {
			return err
		}
	}

	checks := r.checker.CheckAll(ctx, verdictSources(verdicts))
	report := score.NewBuilder().Build(verdicts, checks)
	if err := r.writer.WriteValue(runID, model.KindFactCheckReportGenerated, report); err != nil {
		return err
	}

	if err := r.writer.Complete(runID); err != nil {
		return err
	}

	events, err := r.log.ReadAll(runID)
	if err != nil {
		return err
	}
	if err := r.store.CompleteRun(runID, events); err != nil {
		return err
	}

	logging.Info("Run completed", "run", runID,
		"sentences", len(sentences), "claims", len(validated),
		"duration", time.Since(started).Round(time.Millisecond))
	return nil
}

// verifyAll verifies the validated claims concurrently. A failed
// verification degrades to Insufficient Information rather than
// failing the run.
func (r *Runner) verifyAll(ctx context.Context, runID string, claims []model.ValidatedClaim) []model.Verdict {
	verifyFn := r.verify
	if verifyFn == nil {
		verifyFn = func(ctx context.Context, claim model.ValidatedClaim) (*model.Verdict, error) {
			return r.verifyClaim(ctx, runID, claim)
		}
	}

	outcomes := worker.NewBatchVerifier(verifyFn, r.cfg.Concurrency.VerifyWorkers).VerifyAll(ctx, claims)

	verdicts := make([]model.Verdict, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			logging.Warn("Claim verification failed", "run", runID,
				"claim", outcome.Claim.ClaimText, "error", outcome.Err)
			verdicts = append(verdicts, model.Verdict{
				ClaimText:        outcome.Claim.ClaimText,
				Result:           model.VerdictInsufficientInfo,
				Reasoning:        "Verification could not be completed.",
				OriginalSentence: outcome.Claim.OriginalSentence,
			})
			continue
		}
		verdicts = append(verdicts, *outcome.Verdict)
	}
	return verdicts
}

// verifyClaim is the full evidence-gathering verification path for one
// claim: emit the search query, retrieve evidence, judge.
func (r *Runner) verifyClaim(ctx context.Context, runID string, claim model.ValidatedClaim) (*model.Verdict, error) {
	query := SearchQuery(claim)
	if err := r.writer.WriteValue(runID, model.KindSearchQueryGenerated, searchQueryPayload{
		Query:     query,
		ClaimText: claim.ClaimText,
	}); err != nil {
		return nil, err
	}

	evidence := r.gatherEvidence(ctx, claim, query)
	if err := r.writer.WriteValue(runID, model.KindEvidenceRetrieved, evidencePayload{
		ClaimText: claim.ClaimText,
		Evidence:  evidence,
	}); err != nil {
		return nil, err
	}

	if r.verifier != nil {
		resp, err := r.verifier.Verify(ctx, llm.VerifyRequest{Claim: claim, Evidence: evidence})
		if err == nil {
			return resp.Verdict(claim, evidence), nil
		}
		logging.Warn("LLM verification failed, falling back to heuristics",
			"run", runID, "claim", claim.ClaimText, "error", err)
	}

	return heuristicVerdict(claim, evidence), nil
}

type searchQueryPayload struct {
	Query     string `json:"query"`
	ClaimText string `json:"claim_text"`
}

type evidencePayload struct {
	ClaimText string           `json:"claim_text"`
	Evidence  []model.Evidence `json:"evidence"`
}

const maxEvidencePerClaim = 6

func (r *Runner) gatherEvidence(ctx context.Context, claim model.ValidatedClaim, query string) []model.Evidence {
	pages, err := r.searcher.Search(ctx, query, 2)
	if err != nil {
		logging.Warn("Evidence search failed", "query", query, "error", err)
		return nil
	}

	var evidence []model.Evidence
	for _, page := range pages {
		body, err := r.fetcher.Fetch(ctx, page.URL)
		if err != nil {
			logging.Debug("Evidence page skipped", "url", page.URL, "error", err)
			continue
		}
		evidence = append(evidence, extract.Snippets(claim.ClaimText, body, page.URL, page.Title, 3)...)
		if len(evidence) >= maxEvidencePerClaim {
			evidence = evidence[:maxEvidencePerClaim]
			break
		}
	}
	return evidence
}

// priorContext finds the text preceding a sentence, for pronoun
// resolution.
func priorContext(sentences []model.ContextualSentence, id int) string {
	for _, sentence := range sentences {
		if sentence.ID == id-1 {
			return sentence.Text
		}
	}
	return ""
}

// verdictSources collects every cited source across verdicts,
// deduplicated by URL.
func verdictSources(verdicts []model.Verdict) []model.Source {
	seen := make(map[string]bool)
	var sources []model.Source
	for _, verdict := range verdicts {
		for _, src := range verdict.Sources {
			if src.URL == "" || seen[src.URL] {
				continue
			}
			seen[src.URL] = true
			sources = append(sources, src)
		}
	}
	return sources
}
