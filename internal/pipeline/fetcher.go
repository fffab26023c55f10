package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ppiankov/claimstream/internal/cache"
	"github.com/ppiankov/claimstream/internal/model"
	"github.com/ppiankov/claimstream/internal/util"
	"github.com/ppiankov/claimstream/internal/worker"
)

const fetchCacheTTL = 24 * time.Hour

// Fetcher retrieves evidence pages: rate limited per host, gated by
// robots.txt when configured, cached so repeated checks do not refetch
// the same sources.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	pages      cache.Cache
	robots     *util.RobotsChecker // nil disables robots checks
	limiter    *worker.Limiter
}

// NewFetcher builds a fetcher from HTTP and concurrency configuration.
func NewFetcher(httpCfg model.HTTPConfig, conc model.ConcurrencyConfig, pages cache.Cache) *Fetcher {
	var robots *util.RobotsChecker
	if conc.RobotsRespect {
		robots = util.NewRobotsChecker(httpCfg.UserAgent, httpCfg.Timeout)
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: httpCfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: httpCfg.UserAgent,
		maxBytes:  httpCfg.MaxBodyBytes,
		pages:     pages,
		robots:    robots,
		limiter:   worker.NewLimiter(conc.SourceRPS, conc.SourceBurst),
	}
}

// Fetch returns the page body for the URL, from cache when possible.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	key := cache.Key(rawURL)
	if f.pages != nil {
		if body, found := f.pages.Get(key); found {
			return string(body), nil
		}
	}

	if f.robots != nil {
		allowed, crawlDelay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return "", fmt.Errorf("robots check: %w", err)
		}
		if !allowed {
			return "", fmt.Errorf("disallowed by robots.txt: %s", rawURL)
		}
		if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
			return "", err
		}
	} else if err := f.limiter.Wait(ctx, rawURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}

	if f.pages != nil {
		_ = f.pages.Set(key, body, fetchCacheTTL)
	}
	return string(body), nil
}
