// Package source probes the URLs cited by verdicts: accessibility,
// liveness, freshness and authority tier. Checks are best-effort and
// advisory; a failed probe is reported in the result, never dropped.
package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/claimstream/internal/model"
	"github.com/ppiankov/claimstream/internal/util"
	"github.com/ppiankov/claimstream/internal/worker"
)

const checkMaxRetries = 3

// checkSleepFunc is the sleep between retries, injectable for tests.
var checkSleepFunc = time.Sleep

// Checker probes source URLs concurrently, honoring per-host rate
// limits and, when configured, robots.txt.
type Checker struct {
	httpClient *http.Client
	userAgent  string
	maxWorkers int
	classifier *Classifier
	limiter    *worker.Limiter
	robots     *util.RobotsChecker // nil disables robots checks
}

// NewChecker builds a checker from HTTP and concurrency configuration.
func NewChecker(httpCfg model.HTTPConfig, conc model.ConcurrencyConfig, httpProxy, httpsProxy, noProxy string) *Checker {
	workers := conc.VerifyWorkers
	if workers <= 0 {
		workers = 4
	}

	var robots *util.RobotsChecker
	if conc.RobotsRespect {
		robots = util.NewRobotsChecker(httpCfg.UserAgent, httpCfg.Timeout)
	}

	return &Checker{
		httpClient: &http.Client{
			Timeout: httpCfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent:  httpCfg.UserAgent,
		maxWorkers: workers,
		classifier: NewClassifier(nil, nil),
		limiter:    worker.NewLimiter(conc.SourceRPS, conc.SourceBurst),
		robots:     robots,
	}
}

// CheckAll probes every source concurrently. Results come back in
// input order.
func (c *Checker) CheckAll(ctx context.Context, sources []model.Source) []model.SourceCheck {
	if len(sources) == 0 {
		return nil
	}

	results := make([]model.SourceCheck, len(sources))
	semaphore := make(chan struct{}, c.maxWorkers)
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(idx int, s model.Source) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.SourceCheck{URL: s.URL, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = c.checkWithRetry(ctx, s.URL)
		}(i, src)
	}
	wg.Wait()

	return results
}

func (c *Checker) checkWithRetry(ctx context.Context, rawURL string) model.SourceCheck {
	var result model.SourceCheck
	for attempt := 0; attempt < checkMaxRetries; attempt++ {
		result = c.check(ctx, rawURL)
		if !retryable(result) {
			return result
		}
		if attempt < checkMaxRetries-1 {
			checkSleepFunc(time.Duration(1<<uint(attempt)) * time.Second)
		}
	}
	return result
}

func (c *Checker) check(ctx context.Context, rawURL string) model.SourceCheck {
	result := model.SourceCheck{
		URL:       rawURL,
		Authority: c.classifier.Classify(rawURL),
	}

	if c.robots != nil && !c.robots.IsAllowed(ctx, rawURL) {
		result.Error = "disallowed by robots.txt"
		return result
	}

	if err := c.limiter.Wait(ctx, rawURL); err != nil {
		result.Error = fmt.Sprintf("rate limit wait: %v", err)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.IsDead = true
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.IsDead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 400:
		result.IsAccessible = true
	case resp.StatusCode == 404 || resp.StatusCode == 410:
		result.IsDead = true
	}

	if lastModified := resp.Header.Get("Last-Modified"); lastModified != "" {
		if t, err := time.Parse(time.RFC1123, lastModified); err == nil {
			result.LastModified = &t
		}
	}

	return result
}

// retryable covers transient failures: 5xx, 429 and common network
// error strings.
func retryable(result model.SourceCheck) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == 429 {
		return true
	}
	if result.Error != "" {
		s := strings.ToLower(result.Error)
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}
	return false
}
