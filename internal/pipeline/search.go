package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/claimstream/internal/extract"
	"github.com/ppiankov/claimstream/internal/model"
)

const defaultSearchEndpoint = "https://en.wikipedia.org/w/api.php"

// Page is one search hit: a candidate evidence page.
type Page struct {
	Title string
	URL   string
}

// Searcher finds candidate evidence pages for a claim through the
// MediaWiki opensearch API, which needs no credentials.
type Searcher struct {
	endpoint   string
	httpClient *http.Client
	userAgent  string
}

// NewSearcher creates a searcher. An empty endpoint selects English
// Wikipedia.
func NewSearcher(endpoint, userAgent string, timeout time.Duration) *Searcher {
	if endpoint == "" {
		endpoint = defaultSearchEndpoint
	}
	return &Searcher{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// Search returns up to limit pages for the query.
func (s *Searcher) Search(ctx context.Context, query string, limit int) ([]Page, error) {
	if limit <= 0 {
		limit = 2
	}

	params := url.Values{
		"action": {"opensearch"},
		"search": {query},
		"limit":  {fmt.Sprint(limit)},
		"format": {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status: %d", resp.StatusCode)
	}

	// Opensearch replies [query, titles, descriptions, urls].
	var raw []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(raw) < 4 {
		return nil, fmt.Errorf("malformed opensearch response")
	}

	var titles, urls []string
	if err := json.Unmarshal(raw[1], &titles); err != nil {
		return nil, fmt.Errorf("decode titles: %w", err)
	}
	if err := json.Unmarshal(raw[3], &urls); err != nil {
		return nil, fmt.Errorf("decode urls: %w", err)
	}

	var pages []Page
	for i := range titles {
		if i >= len(urls) {
			break
		}
		pages = append(pages, Page{Title: titles[i], URL: urls[i]})
	}
	return pages, nil
}

// SearchQuery derives the search query for a claim: its content terms,
// capped to keep the query focused.
func SearchQuery(claim model.ValidatedClaim) string {
	terms := extract.ContentTerms(claim.ClaimText)
	if len(terms) > 6 {
		terms = terms[:6]
	}
	return strings.Join(terms, " ")
}
