package filter

import (
	"strings"

	"github.com/ian939/jobtrack/internal/model"
)

// Corporate suffixes stripped before comparing scraped company names against
// configured targets. Portal results decorate names with these.
var corpSuffixes = []string{"(주)", "주식회사", "(유)", "Inc.", "Co., Ltd."}

// TargetFilter keeps only postings whose company name matches one of the
// configured target companies. Portals return every employer whose ad merely
// mentions the search keyword, so this runs before normalization.
// An empty target list passes everything. Trusted sources (first-party
// career pages that only ever list their own postings) bypass the check.
type TargetFilter struct {
	targets []string
	trusted map[string]struct{}
}

// NewTargetFilter returns a filter for the given target company names.
// Postings from the trusted sources always pass.
func NewTargetFilter(targets []string, trustedSources ...string) *TargetFilter {
	trusted := make(map[string]struct{}, len(trustedSources))
	for _, s := range trustedSources {
		trusted[s] = struct{}{}
	}
	return &TargetFilter{targets: targets, trusted: trusted}
}

// Match reports whether the posting's company contains any target name,
// after stripping corporate suffixes from the scraped name.
func (f *TargetFilter) Match(p model.RawPosting) bool {
	if len(f.targets) == 0 {
		return true
	}
	if _, ok := f.trusted[p.Source]; ok {
		return true
	}
	name := normalizeCompany(p.Company)
	for _, t := range f.targets {
		if t != "" && strings.Contains(name, t) {
			return true
		}
	}
	return false
}

// Apply returns the postings that pass the filter, preserving order.
func (f *TargetFilter) Apply(postings []model.RawPosting) []model.RawPosting {
	if len(f.targets) == 0 {
		return postings
	}
	kept := make([]model.RawPosting, 0, len(postings))
	for _, p := range postings {
		if f.Match(p) {
			kept = append(kept, p)
		}
	}
	return kept
}

func normalizeCompany(name string) string {
	for _, s := range corpSuffixes {
		name = strings.ReplaceAll(name, s, "")
	}
	return strings.TrimSpace(name)
}
