// Package pipeline owns one complete reconciliation pass: scrape every
// source, normalize, reconcile against the stores, backfill detail content,
// notify, and persist.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/ian939/jobtrack/internal/content"
	"github.com/ian939/jobtrack/internal/filter"
	"github.com/ian939/jobtrack/internal/model"
	"github.com/ian939/jobtrack/internal/reconcile"
	"github.com/ian939/jobtrack/internal/snapshot"
	"github.com/ian939/jobtrack/internal/store"
)

// Summary is the post-hoc report for one run.
type Summary struct {
	Scraped      int // raw postings across all adapters
	SnapshotSize int // after filtering and dedup
	New          int
	Closed       int
	Active       int // active listings after the run
	Archived     int // archive size after the run
	FetchFailed  int // detail fetches that failed this run
}

// Pipeline wires the reconciliation engine with its collaborators.
type Pipeline struct {
	adapters   []model.SourceAdapter
	filter     *filter.TargetFilter
	backend    store.Backend
	reconciler *reconcile.Reconciler
	backfill   *content.Backfill
	notifier   model.Notifier
	logger     *slog.Logger
	now        func() time.Time
	dryRun     bool
	exportDir  string
}

// New creates a pipeline. All dependencies are injected; there is no ambient
// state.
func New(
	adapters []model.SourceAdapter,
	f *filter.TargetFilter,
	backend store.Backend,
	reconciler *reconcile.Reconciler,
	backfill *content.Backfill,
	n model.Notifier,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		adapters:   adapters,
		filter:     f,
		backend:    backend,
		reconciler: reconciler,
		backfill:   backfill,
		notifier:   n,
		logger:     logger,
		now:        time.Now,
	}
}

// SetClock overrides the pipeline's clock. Tests use this to pin dates.
func (p *Pipeline) SetClock(now func() time.Time) { p.now = now }

// SetDryRun disables persistence: the run computes and reports everything
// but never writes the stores.
func (p *Pipeline) SetDryRun(dry bool) { p.dryRun = dry }

// SetExportDir enables per-day CSV exports of each run's new listings into
// the given directory. Empty disables exporting.
func (p *Pipeline) SetExportDir(dir string) { p.exportDir = dir }

// Run executes one pass. Adapter and fetch failures degrade locally; the only
// errors that surface are store load/save problems the run cannot absorb.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	today := dateOf(p.now())

	// Scrape every source. A failed adapter contributes nothing, which the
	// closure-safety gate turns into "leave that company's listings alone".
	var postings []model.RawPosting
	for _, a := range p.adapters {
		got, err := a.FetchPostings(ctx)
		if err != nil {
			p.logger.Warn("source adapter failed, contributing nothing this run",
				"source", a.Name(),
				"error", err,
			)
			continue
		}
		p.logger.Info("source scraped", "source", a.Name(), "postings", len(got))
		postings = append(postings, got...)
	}
	sum.Scraped = len(postings)

	// The normalizer must complete before reconciliation: one atomic snapshot.
	snap := snapshot.Build(p.filter.Apply(postings))
	sum.SnapshotSize = len(snap.Order)

	stores, err := p.backend.Load()
	if err != nil {
		return sum, err
	}

	res := p.reconciler.Run(snap, stores, today)
	sum.New = len(res.New)
	sum.Closed = len(res.Closed)
	sum.Active = stores.Active.Len()
	sum.Archived = stores.Archive.Len()

	p.backfill.StampClosures(stores, res.Closed)
	bstats := p.backfill.Run(ctx, stores, today)
	sum.FetchFailed = bstats.Failed

	if len(res.New) > 0 {
		if err := p.notifier.Notify(res.New); err != nil {
			p.logger.Error("notification failed", "error", err)
		}
	}

	// Per-day export of the run's findings. Like notification it is a side
	// output: its failure never aborts the run.
	if p.exportDir != "" && !p.dryRun {
		path, err := store.ExportNewListings(p.exportDir, today, res.New)
		switch {
		case err != nil:
			p.logger.Error("new-listing export failed", "error", err)
		case path != "":
			p.logger.Info("new listings exported", "path", path, "listings", len(res.New))
		}
	}

	if p.dryRun {
		p.logger.Info("dry run, skipping store save")
	} else if err := p.backend.Save(stores); err != nil {
		return sum, err
	}

	p.logger.Info("run complete",
		"scraped", sum.Scraped,
		"snapshot", sum.SnapshotSize,
		"new", sum.New,
		"closed", sum.Closed,
		"active", sum.Active,
		"archived", sum.Archived,
		"fetch_failed", sum.FetchFailed,
	)

	return sum, nil
}

// dateOf truncates a timestamp to its calendar date in UTC, matching the
// date-only granularity of the persisted stores.
func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
