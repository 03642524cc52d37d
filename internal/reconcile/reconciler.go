// Package reconcile advances the listing state machine for one snapshot:
// UNSEEN → ACTIVE → CLOSED, with CLOSED terminal.
package reconcile

import (
	"log/slog"
	"time"

	"github.com/ian939/jobtrack/internal/model"
	"github.com/ian939/jobtrack/internal/store"
)

// Result holds the transition sets computed from one snapshot.
type Result struct {
	New    []model.Listing // entered Active this run
	Closed []model.Listing // moved Active → Archive this run
}

// Reconciler diffs a snapshot against the active listings under the
// closure-safety policy.
type Reconciler struct {
	logger *slog.Logger
}

// New creates a reconciler.
func New(logger *slog.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Run mutates the active and archive tables in place and returns the New and
// Closed sets. today stamps first_seen on new listings and completed_date on
// closures.
//
// Policy notes:
//   - A link already present in the closed archive is ignored even if it
//     reappears in the snapshot: closed is terminal, so source flakiness
//     cannot resurrect a posting.
//   - A listing absent from the snapshot is only closed when its company was
//     scraped at least once this run. One source returning zero results for
//     a company therefore never mass-closes that company's listings; an
//     entirely empty snapshot closes nothing.
func (r *Reconciler) Run(snap *model.Snapshot, s *store.Stores, today time.Time) Result {
	var res Result

	// New listings: in the snapshot, not active, not archived.
	for _, link := range snap.Order {
		if s.Active.Has(link) || s.Archive.Has(link) {
			continue
		}
		l := snap.Listings[link]
		l.FirstSeen = today
		s.Active.Insert(l)
		res.New = append(res.New, l)
	}

	// Closure candidates: active listings missing from the snapshot.
	for _, link := range s.Active.Links() {
		if snap.HasLink(link) {
			continue
		}
		l, _ := s.Active.Get(link)
		if !snap.HasCompany(l.Company) {
			// Safety gate: the company produced nothing this run, so its
			// absence proves nothing. Leave the listing untouched.
			continue
		}
		completed := today
		l.CompletedDate = &completed
		s.Active.Remove(link)
		s.Archive.Insert(l)
		res.Closed = append(res.Closed, l)
	}

	r.logger.Info("reconciled snapshot",
		"snapshot", len(snap.Order),
		"new", len(res.New),
		"closed", len(res.Closed),
		"active", s.Active.Len(),
		"archived", s.Archive.Len(),
	)

	return res
}
