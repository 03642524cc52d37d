// Package snapshot turns the raw output of all source adapters for one run
// into a single canonical, deduplicated snapshot.
package snapshot

import (
	"strings"

	"github.com/ian939/jobtrack/internal/model"
)

// Build normalizes the concatenated adapter output into a Snapshot. It is a
// pure function: trims whitespace on every field, drops records whose link is
// empty after trimming (they cannot be tracked), and deduplicates by link
// with the first occurrence winning, so runs are reproducible.
func Build(postings []model.RawPosting) *model.Snapshot {
	snap := &model.Snapshot{
		Listings:       make(map[string]model.Listing, len(postings)),
		ScrapedSources: make(map[string]struct{}),
		Companies:      make(map[string]struct{}),
	}

	for _, p := range postings {
		link := strings.TrimSpace(p.Link)
		if link == "" {
			continue
		}
		if p.Source != "" {
			snap.ScrapedSources[p.Source] = struct{}{}
		}

		company := strings.TrimSpace(p.Company)
		if company != "" {
			snap.Companies[company] = struct{}{}
		}

		if _, dup := snap.Listings[link]; dup {
			continue
		}
		snap.Listings[link] = model.Listing{
			Source:     p.Source,
			Company:    company,
			Title:      strings.TrimSpace(p.Title),
			Experience: strings.TrimSpace(p.Experience),
			Link:       link,
		}
		snap.Order = append(snap.Order, link)
	}

	return snap
}
