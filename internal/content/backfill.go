package content

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ian939/jobtrack/internal/model"
	"github.com/ian939/jobtrack/internal/store"
)

// Backfill selects the active listings whose detail content is missing or
// unusable, fetches them through a bounded worker pool, and merges the
// outcomes into the content store through a single writer. Running it twice
// with the same fetch outcomes leaves the store in the same state.
type Backfill struct {
	fetcher    model.ContentFetcher
	classifier *Classifier
	workers    int
	timeout    time.Duration
	logger     *slog.Logger
}

// Stats summarizes one backfill pass.
type Stats struct {
	Selected int // links that needed a fetch
	Fetched  int // fetches that produced a usable body
	Failed   int // fetches that came back as the failure sentinel
}

// NewBackfill wires a backfill scheduler. The fetcher is expected to already
// enforce politeness delays; workers bounds in-flight fetches on top of that.
func NewBackfill(fetcher model.ContentFetcher, classifier *Classifier, workers int, timeout time.Duration, logger *slog.Logger) *Backfill {
	if workers < 1 {
		workers = 1
	}
	return &Backfill{
		fetcher:    fetcher,
		classifier: classifier,
		workers:    workers,
		timeout:    timeout,
		logger:     logger,
	}
}

// StampClosures writes completed_date onto the content records of listings
// closed this run. Content is frozen at closure: no re-fetch.
func (b *Backfill) StampClosures(s *store.Stores, closed []model.Listing) {
	for _, l := range closed {
		rec, ok := s.Content.Get(l.Link)
		if !ok {
			continue
		}
		rec.CompletedDate = l.CompletedDate
		s.Content.Upsert(rec)
	}
}

// Run re-derives quality for every active listing's record, fetches the ones
// that need it, and upserts the outcomes. Fetch ordering is not significant;
// store writes are serialized through the merge loop so concurrent results
// can never race on a link.
func (b *Backfill) Run(ctx context.Context, s *store.Stores, today time.Time) Stats {
	var stats Stats

	// Selection reads one atomic view of the active table.
	var targets []model.Listing
	for _, l := range s.Active.All() {
		rec, ok := s.Content.Get(l.Link)
		if !ok {
			targets = append(targets, l)
			continue
		}
		// Quality is always re-derived from the body, never trusted from disk.
		rec.Quality = b.classifier.Classify(rec.Content)
		s.Content.Upsert(rec)
		if NeedsFetch(rec.Quality) {
			targets = append(targets, l)
		}
	}
	stats.Selected = len(targets)
	if len(targets) == 0 {
		return stats
	}

	type outcome struct {
		listing model.Listing
		body    string
	}

	jobs := make(chan model.Listing)
	results := make(chan outcome)

	var wg sync.WaitGroup
	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for l := range jobs {
				fetchCtx, cancel := context.WithTimeout(ctx, b.timeout)
				body := b.fetcher.FetchContent(fetchCtx, l.Link)
				cancel()
				select {
				case results <- outcome{listing: l, body: body}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, l := range targets {
			select {
			case jobs <- l:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	// Single-writer merge: the only goroutine that touches the content store.
	for out := range results {
		quality := b.classifier.Classify(out.body)
		rec, ok := s.Content.Get(out.listing.Link)
		if !ok {
			rec = model.ContentRecord{
				Link:      out.listing.Link,
				FirstSeen: out.listing.FirstSeen,
			}
		}
		rec.Company = out.listing.Company
		rec.Title = out.listing.Title
		rec.Content = out.body
		rec.Quality = quality
		rec.LastUpdated = today
		s.Content.Upsert(rec)

		if quality == model.QualityFetchFailed {
			stats.Failed++
			b.logger.Warn("detail fetch failed", "link", out.listing.Link, "company", out.listing.Company)
		} else {
			stats.Fetched++
		}
	}

	b.logger.Info("content backfill complete",
		"selected", stats.Selected,
		"fetched", stats.Fetched,
		"failed", stats.Failed,
	)

	return stats
}
