package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/claimstream/internal/eventlog"
	"github.com/ppiankov/claimstream/internal/ingress"
	"github.com/ppiankov/claimstream/internal/model"
	"github.com/ppiankov/claimstream/internal/source"
	"github.com/ppiankov/claimstream/internal/store"
	"github.com/ppiankov/claimstream/internal/validate"
	"github.com/ppiankov/claimstream/internal/worker"
)

const answerText = "The Eiffel Tower is 330 metres tall. It was completed in 1889."

func testRunner(t *testing.T, verify worker.VerifyFunc) (*Runner, *eventlog.Log, *store.Store) {
	t.Helper()

	log := eventlog.New(time.Minute, time.Minute)
	st, err := store.New(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	cfg := model.DefaultConfig()
	cfg.Concurrency.RobotsRespect = false
	cfg.Concurrency.VerifyWorkers = 2
	cfg.Concurrency.SourceRPS = 1000

	r := &Runner{
		log:       log,
		store:     st,
		writer:    ingress.NewWriter(log),
		cfg:       cfg,
		checker:   source.NewChecker(cfg.HTTP, cfg.Concurrency, "", "", ""),
		validator: validate.NewValidator(),
		verify:    verify,
	}
	return r, log, st
}

func supportedStub(ctx context.Context, claim model.ValidatedClaim) (*model.Verdict, error) {
	return &model.Verdict{
		ClaimText:        claim.ClaimText,
		Result:           model.VerdictSupported,
		Reasoning:        "stub",
		OriginalSentence: claim.OriginalSentence,
	}, nil
}

func countKinds(events []model.Event) map[model.EventKind]int {
	counts := make(map[model.EventKind]int)
	for _, ev := range events {
		counts[ev.Kind]++
	}
	return counts
}

func TestRunEmitsFullSequenceAndPersists(t *testing.T) {
	r, log, st := testRunner(t, supportedStub)
	if _, err := st.CreateRun("run-1"); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	r.run("run-1", answerText)

	run, err := st.GetRun("run-1")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != model.StatusCompleted {
		t.Fatalf("Status = %q, want completed", run.Status)
	}
	if len(run.Result) == 0 {
		t.Fatal("no persisted events")
	}

	events, err := log.ReadAll("run-1")
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if events[0].Kind != model.KindStart {
		t.Errorf("first event = %q, want start", events[0].Kind)
	}
	if last := events[len(events)-1].Kind; last != model.KindComplete {
		t.Errorf("last event = %q, want complete", last)
	}
	for i := 1; i < len(events); i++ {
		if events[i].SequenceID <= events[i-1].SequenceID {
			t.Fatalf("sequence not increasing at %d: %q then %q",
				i, events[i-1].SequenceID, events[i].SequenceID)
		}
	}

	counts := countKinds(events)
	if counts[model.KindMetadata] != 1 {
		t.Errorf("metadata events = %d", counts[model.KindMetadata])
	}
	if counts[model.KindContextualSentenceAdded] != 2 {
		t.Errorf("sentence events = %d, want 2", counts[model.KindContextualSentenceAdded])
	}
	if counts[model.KindValidatedClaimAdded] == 0 {
		t.Error("no validated claims emitted")
	}
	if counts[model.KindClaimVerificationResult] != counts[model.KindValidatedClaimAdded] {
		t.Errorf("verdicts = %d, validated claims = %d",
			counts[model.KindClaimVerificationResult], counts[model.KindValidatedClaimAdded])
	}
	if counts[model.KindFactCheckReportGenerated] != 1 {
		t.Errorf("report events = %d", counts[model.KindFactCheckReportGenerated])
	}

	if len(run.Result) != len(events) {
		t.Errorf("persisted %d events, log has %d", len(run.Result), len(events))
	}
}

func TestRunDegradesFailedVerifications(t *testing.T) {
	failing := func(ctx context.Context, claim model.ValidatedClaim) (*model.Verdict, error) {
		return nil, errors.New("provider down")
	}
	r, log, st := testRunner(t, failing)
	if _, err := st.CreateRun("run-2"); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	r.run("run-2", answerText)

	run, err := st.GetRun("run-2")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != model.StatusCompleted {
		t.Fatalf("Status = %q, want completed despite verification errors", run.Status)
	}

	events, _ := log.ReadAll("run-2")
	counts := countKinds(events)
	if counts[model.KindClaimVerificationResult] == 0 {
		t.Fatal("no verdict events")
	}
	for _, ev := range events {
		if ev.Kind != model.KindClaimVerificationResult {
			continue
		}
		var v model.Verdict
		if err := json.Unmarshal(ev.Payload, &v); err != nil {
			t.Fatalf("decode verdict: %v", err)
		}
		if v.Result != model.VerdictInsufficientInfo {
			t.Errorf("Result = %q, want insufficient for failed verification", v.Result)
		}
	}
}

func TestRunWithoutVerifiableClaims(t *testing.T) {
	r, log, st := testRunner(t, supportedStub)
	if _, err := st.CreateRun("run-3"); err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	r.run("run-3", "What do you think about it?")

	run, err := st.GetRun("run-3")
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}
	if run.Status != model.StatusCompleted {
		t.Fatalf("Status = %q, want completed", run.Status)
	}

	events, _ := log.ReadAll("run-3")
	var report model.FactCheckReport
	found := false
	for _, ev := range events {
		if ev.Kind == model.KindFactCheckReportGenerated {
			if err := json.Unmarshal(ev.Payload, &report); err != nil {
				t.Fatalf("decode report: %v", err)
			}
			found = true
		}
	}
	if !found {
		t.Fatal("no report event")
	}
	if report.Answer != "No verifiable claims found" {
		t.Errorf("Answer = %q", report.Answer)
	}
}

func TestVerifyClaimEmitsSearchAndEvidence(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>The Eiffel Tower is 330 metres tall. It opened in 1889.</p></body></html>"))
	}))
	defer page.Close()

	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(`["q",["Eiffel Tower"],[""],["` + page.URL + `/wiki"]]`))
	}))
	defer search.Close()

	r, log, _ := testRunner(t, nil)
	r.searcher = NewSearcher(search.URL, "test-agent", 2*time.Second)
	r.fetcher = testFetcher(nil)
	if err := log.Create("run-4"); err != nil {
		t.Fatalf("Create: %v", err)
	}

	c := model.ValidatedClaim{
		ClaimText:        "The Eiffel Tower is 330 metres tall.",
		OriginalSentence: "The Eiffel Tower is 330 metres tall.",
	}
	v, err := r.verifyClaim(context.Background(), "run-4", c)
	if err != nil {
		t.Fatalf("verifyClaim: %v", err)
	}
	if v.Result != model.VerdictSupported {
		t.Errorf("Result = %q, want supported", v.Result)
	}

	events, _ := log.ReadAll("run-4")
	counts := countKinds(events)
	if counts[model.KindSearchQueryGenerated] != 1 {
		t.Errorf("search query events = %d", counts[model.KindSearchQueryGenerated])
	}
	if counts[model.KindEvidenceRetrieved] != 1 {
		t.Errorf("evidence events = %d", counts[model.KindEvidenceRetrieved])
	}
}
