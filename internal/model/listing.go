package model

import (
	"context"
	"time"
)

// DateLayout is the calendar-date format used in every persisted store.
const DateLayout = "2006-01-02"

// Listing is one tracked job posting, keyed by its detail-page link.
type Listing struct {
	Source        string     // which adapter produced it
	Company       string     // company name as scraped
	Title         string     // posting title
	Experience    string     // free text, may be empty
	Link          string     // globally unique key
	FirstSeen     time.Time  // set once when first observed
	CompletedDate *time.Time // set exactly once on closure
}

// RawPosting is a single candidate record as emitted by a source adapter,
// before normalization.
type RawPosting struct {
	Source     string
	Company    string
	Title      string
	Experience string
	Link       string
}

// QualityState labels whether fetched detail content is usable.
type QualityState string

const (
	QualityValid       QualityState = "VALID"
	QualityEmpty       QualityState = "EMPTY"
	QualityNoisy       QualityState = "NOISY"
	QualityFetchFailed QualityState = "FETCH_FAILED"
	QualityUnfetched   QualityState = "UNFETCHED"
)

// FetchFailedSentinel is the reserved content body a ContentFetcher returns
// in place of an error, so failures flow through classification uniformly.
const FetchFailedSentinel = "__FETCH_FAILED__"

// ImageOnlyMarker is the reserved content body for postings whose detail page
// is a single image with no extractable text. There is nothing more to fetch,
// so the classifier treats it as a terminal state rather than a gap to retry.
const ImageOnlyMarker = "[이미지 공고]"

// ContentRecord holds the fetched detail-page body for a listing, past or
// present. Quality is always re-derived from Content, never trusted from disk.
type ContentRecord struct {
	Link          string
	Company       string
	Title         string
	Content       string
	Quality       QualityState
	LastUpdated   time.Time
	FirstSeen     time.Time
	CompletedDate *time.Time
}

// Snapshot is the deduplicated result of one scrape run. It is ephemeral and
// never persisted.
type Snapshot struct {
	Listings       map[string]Listing  // keyed by trimmed link
	Order          []string            // links in first-encountered order
	ScrapedSources map[string]struct{} // sources that returned at least one record
	Companies      map[string]struct{} // companies observed this run
}

// HasLink reports whether the snapshot observed the given link.
func (s *Snapshot) HasLink(link string) bool {
	_, ok := s.Listings[link]
	return ok
}

// HasCompany reports whether the company was scraped at least once this run.
// This is the basis of the closure-safety gate.
func (s *Snapshot) HasCompany(company string) bool {
	_, ok := s.Companies[company]
	return ok
}

// SourceAdapter produces the candidate postings for one source this run.
// Zero matches is an ordinary outcome and returns an empty slice, not an error.
type SourceAdapter interface {
	Name() string
	FetchPostings(ctx context.Context) ([]RawPosting, error)
}

// ContentFetcher retrieves the detail-page body for a link. Failures are
// reported as FetchFailedSentinel content so the run never aborts on them.
type ContentFetcher interface {
	FetchContent(ctx context.Context, link string) string
}

// Notifier delivers newly discovered listings. Best-effort: its failure must
// not abort the run.
type Notifier interface {
	Notify(listings []Listing) error
}
