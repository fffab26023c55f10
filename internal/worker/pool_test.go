package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/claimstream/internal/model"
)

type fakeResult struct {
	err error
}

func (r *fakeResult) GetError() error {
	return r.err
}

type fakeJob struct {
	duration  time.Duration
	shouldErr bool
	executed  *atomic.Int32
}

func (j *fakeJob) Execute(ctx context.Context) Result {
	if j.executed != nil {
		j.executed.Add(1)
	}
	if j.duration > 0 {
		select {
		case <-time.After(j.duration):
		case <-ctx.Done():
			return &fakeResult{err: ctx.Err()}
		}
	}
	if j.shouldErr {
		return &fakeResult{err: errors.New("job error")}
	}
	return &fakeResult{}
}

func TestNewPool_MinimumOneWorker(t *testing.T) {
	if p := NewPool(0); p.workers != 1 {
		t.Errorf("workers = %d for 0 input, want 1", p.workers)
	}
	if p := NewPool(-3); p.workers != 1 {
		t.Errorf("workers = %d for negative input, want 1", p.workers)
	}
}

func TestPool_ExecutesAllJobs(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	var executed atomic.Int32
	const count = 10
	for i := 0; i < count; i++ {
		pool.Submit(&fakeJob{executed: &executed})
	}
	pool.Close()

	results := pool.Wait()
	if len(results) != count {
		t.Errorf("got %d results, want %d", len(results), count)
	}
	if got := executed.Load(); got != count {
		t.Errorf("executed %d jobs, want %d", got, count)
	}
}

type trackedJob struct {
	start    func()
	end      func()
	duration time.Duration
}

func (j *trackedJob) Execute(ctx context.Context) Result {
	if j.start != nil {
		j.start()
	}
	time.Sleep(j.duration)
	if j.end != nil {
		j.end()
	}
	return &fakeResult{}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	const workers = 4
	pool := NewPool(workers)
	pool.Start()

	var current, peak atomic.Int32
	var mu sync.Mutex

	for i := 0; i < 20; i++ {
		pool.Submit(&trackedJob{
			start: func() {
				n := current.Add(1)
				mu.Lock()
				if n > peak.Load() {
					peak.Store(n)
				}
				mu.Unlock()
			},
			end:      func() { current.Add(-1) },
			duration: 5 * time.Millisecond,
		})
	}
	pool.Close()
	pool.Wait()

	if got := peak.Load(); got > workers {
		t.Errorf("peak concurrency %d exceeded %d workers", got, workers)
	}
}

func TestPool_CarriesJobErrors(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	pool.Submit(&fakeJob{shouldErr: true})
	pool.Submit(&fakeJob{})
	pool.Close()

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}

	errCount := 0
	for _, res := range results {
		if res.GetError() != nil {
			errCount++
		}
	}
	if errCount != 1 {
		t.Errorf("got %d errors, want 1", errCount)
	}
}

func TestPool_DrainsBatchesLargerThanBuffers(t *testing.T) {
	pool := NewPool(2)
	pool.Start()

	// Well past the combined jobs+results buffer capacity: with the
	// queue full and no draining, submission would block forever.
	var executed atomic.Int32
	const count = 50
	go func() {
		for i := 0; i < count; i++ {
			pool.Submit(&fakeJob{executed: &executed})
		}
		pool.Close()
	}()

	done := make(chan []Result, 1)
	go func() { done <- pool.Wait() }()

	select {
	case results := <-done:
		if len(results) != count {
			t.Errorf("got %d results, want %d", len(results), count)
		}
		if got := executed.Load(); got != count {
			t.Errorf("executed %d jobs, want %d", got, count)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool did not drain a batch larger than its buffers")
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(2)
	pool.Start()
	pool.Shutdown()

	done := make(chan struct{})
	go func() {
		pool.Submit(&fakeJob{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestBatchVerifier_OutcomesInInputOrder(t *testing.T) {
	claims := make([]model.ValidatedClaim, 8)
	for i := range claims {
		claims[i] = model.ValidatedClaim{ClaimText: fmt.Sprintf("claim %d", i), OriginalIndex: i}
	}

	run := func(ctx context.Context, claim model.ValidatedClaim) (*model.Verdict, error) {
		// Uneven durations shuffle completion order.
		time.Sleep(time.Duration(claim.OriginalIndex%3) * time.Millisecond)
		return &model.Verdict{ClaimText: claim.ClaimText, Result: model.VerdictSupported}, nil
	}

	outcomes := NewBatchVerifier(run, 4).VerifyAll(context.Background(), claims)
	if len(outcomes) != len(claims) {
		t.Fatalf("got %d outcomes", len(outcomes))
	}
	for i, outcome := range outcomes {
		if outcome.Index != i {
			t.Fatalf("outcome %d has index %d", i, outcome.Index)
		}
		if outcome.Verdict == nil || outcome.Verdict.ClaimText != claims[i].ClaimText {
			t.Errorf("outcome %d verdict = %+v", i, outcome.Verdict)
		}
	}
}

func TestBatchVerifier_ManyClaims(t *testing.T) {
	// More claims than the pool's channels can absorb at this worker
	// count; the whole batch must still verify and come back in order.
	const count = 25
	claims := make([]model.ValidatedClaim, count)
	for i := range claims {
		claims[i] = model.ValidatedClaim{ClaimText: fmt.Sprintf("claim %d", i), OriginalIndex: i}
	}

	run := func(ctx context.Context, claim model.ValidatedClaim) (*model.Verdict, error) {
		return &model.Verdict{ClaimText: claim.ClaimText, Result: model.VerdictSupported}, nil
	}

	done := make(chan []*VerifyOutcome, 1)
	go func() { done <- NewBatchVerifier(run, 4).VerifyAll(context.Background(), claims) }()

	select {
	case outcomes := <-done:
		if len(outcomes) != count {
			t.Fatalf("got %d outcomes, want %d", len(outcomes), count)
		}
		for i, outcome := range outcomes {
			if outcome.Index != i {
				t.Fatalf("outcome %d has index %d", i, outcome.Index)
			}
		}
	case <-time.After(5 * time.Second):
		t.Fatal("VerifyAll did not finish the batch")
	}
}

func TestBatchVerifier_CarriesIndividualFailures(t *testing.T) {
	claims := []model.ValidatedClaim{
		{ClaimText: "good claim here", OriginalIndex: 0},
		{ClaimText: "bad claim here", OriginalIndex: 1},
	}

	run := func(ctx context.Context, claim model.ValidatedClaim) (*model.Verdict, error) {
		if claim.OriginalIndex == 1 {
			return nil, errors.New("provider unavailable")
		}
		return &model.Verdict{ClaimText: claim.ClaimText, Result: model.VerdictSupported}, nil
	}

	outcomes := NewBatchVerifier(run, 2).VerifyAll(context.Background(), claims)
	if outcomes[0].Err != nil || outcomes[0].Verdict == nil {
		t.Errorf("outcome 0 = %+v", outcomes[0])
	}
	if outcomes[1].Err == nil || outcomes[1].Verdict != nil {
		t.Errorf("outcome 1 = %+v", outcomes[1])
	}
}

func TestBatchVerifier_EmptyInput(t *testing.T) {
	run := func(ctx context.Context, claim model.ValidatedClaim) (*model.Verdict, error) {
		t.Fatal("run called for empty batch")
		return nil, nil
	}
	if got := NewBatchVerifier(run, 2).VerifyAll(context.Background(), nil); got != nil {
		t.Fatalf("got %+v", got)
	}
}
