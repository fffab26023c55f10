package source

import (
	"net/url"
	"strings"

	"github.com/ppiankov/claimstream/internal/model"
)

// defaultPrimary and defaultSecondary seed the classifier when the
// configuration provides no domain lists.
var (
	defaultPrimary = []string{
		"who.int", "un.org", "europa.eu", "nature.com", "science.org",
		"nih.gov", "noaa.gov", "nasa.gov",
	}
	defaultSecondary = []string{
		"wikipedia.org", "britannica.com", "reuters.com", "apnews.com",
		"bbc.com", "bbc.co.uk", "nytimes.com",
	}
)

// Classifier ranks source hosts into authority tiers. Tiering informs
// the report summary only; it never changes a verdict.
type Classifier struct {
	primary   map[string]bool
	secondary map[string]bool
}

// NewClassifier builds a classifier from explicit domain lists, falling
// back to the built-in defaults when a list is empty.
func NewClassifier(primary, secondary []string) *Classifier {
	if len(primary) == 0 {
		primary = defaultPrimary
	}
	if len(secondary) == 0 {
		secondary = defaultSecondary
	}

	c := &Classifier{
		primary:   make(map[string]bool, len(primary)),
		secondary: make(map[string]bool, len(secondary)),
	}
	for _, d := range primary {
		c.primary[d] = true
	}
	for _, d := range secondary {
		c.secondary[d] = true
	}
	return c
}

// Classify maps a URL to an authority tier. Unparseable URLs and
// unknown hosts are tertiary.
func (c *Classifier) Classify(rawURL string) model.AuthorityTier {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.TierTertiary
	}

	host := parsed.Hostname()

	if matchesDomain(host, c.primary) {
		return model.TierPrimary
	}
	if matchesDomain(host, c.secondary) {
		return model.TierSecondary
	}

	// Government and academic TLDs rank primary even when unlisted.
	if strings.HasSuffix(host, ".gov") || strings.HasSuffix(host, ".edu") ||
		strings.HasSuffix(host, ".ac.uk") {
		return model.TierPrimary
	}

	return model.TierTertiary
}

// matchesDomain reports whether host equals a listed domain or is a
// subdomain of one.
func matchesDomain(host string, domains map[string]bool) bool {
	if domains[host] {
		return true
	}
	for domain := range domains {
		if strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
