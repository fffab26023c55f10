package worker

import (
	"context"
	"sort"

	"github.com/ppiankov/claimstream/internal/model"
)

// VerifyFunc judges one validated claim.
type VerifyFunc func(ctx context.Context, claim model.ValidatedClaim) (*model.Verdict, error)

// VerifyOutcome is the result of verifying one claim. Index is the
// claim's position in the submitted batch.
type VerifyOutcome struct {
	Index   int
	Claim   model.ValidatedClaim
	Verdict *model.Verdict
	Err     error
}

// GetError returns the verification error, if any.
func (o *VerifyOutcome) GetError() error {
	return o.Err
}

type verifyJob struct {
	index int
	claim model.ValidatedClaim
	run   VerifyFunc
	ctx   context.Context
}

// Execute runs the verification under the submitting caller's context
// so cancelling the batch cancels in-flight API calls.
func (j *verifyJob) Execute(poolCtx context.Context) Result {
	ctx := j.ctx
	select {
	case <-poolCtx.Done():
		return &VerifyOutcome{Index: j.index, Claim: j.claim, Err: poolCtx.Err()}
	default:
	}

	verdict, err := j.run(ctx, j.claim)
	return &VerifyOutcome{Index: j.index, Claim: j.claim, Verdict: verdict, Err: err}
}

// BatchVerifier verifies a batch of claims concurrently.
type BatchVerifier struct {
	run         VerifyFunc
	concurrency int
}

// NewBatchVerifier creates a batch verifier.
func NewBatchVerifier(run VerifyFunc, concurrency int) *BatchVerifier {
	return &BatchVerifier{run: run, concurrency: concurrency}
}

// VerifyAll verifies every claim and returns outcomes in input order.
// Individual failures are carried in the outcome, never dropped.
func (b *BatchVerifier) VerifyAll(ctx context.Context, claims []model.ValidatedClaim) []*VerifyOutcome {
	if len(claims) == 0 {
		return nil
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	// The pool's buffers are sized to the worker count, not the batch,
	// so submission must overlap with draining.
	go func() {
		for i, claim := range claims {
			pool.Submit(&verifyJob{index: i, claim: claim, run: b.run, ctx: ctx})
		}
		pool.Close()
	}()

	results := pool.Wait()

	outcomes := make([]*VerifyOutcome, 0, len(results))
	for _, result := range results {
		outcomes = append(outcomes, result.(*VerifyOutcome))
	}
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Index < outcomes[j].Index
	})
	return outcomes
}
