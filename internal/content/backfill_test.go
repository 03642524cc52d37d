package content

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ian939/jobtrack/internal/model"
	"github.com/ian939/jobtrack/internal/store"
)

// recordingFetcher serves canned bodies and records which links were fetched.
type recordingFetcher struct {
	mu      sync.Mutex
	bodies  map[string]string
	fetched []string
}

func (f *recordingFetcher) FetchContent(_ context.Context, link string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, link)
	if body, ok := f.bodies[link]; ok {
		return body
	}
	return model.FetchFailedSentinel
}

func (f *recordingFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.fetched)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validBody() string {
	return strings.Repeat("채용 상세 내용 ", 30)
}

func activeListing(s *store.Stores, link string) model.Listing {
	l := model.Listing{Source: "test", Company: "차지비", Title: "t", Link: link}
	s.Active.Insert(l)
	return l
}

func newTestBackfill(f model.ContentFetcher, workers int) *Backfill {
	return NewBackfill(f, newTestClassifier(), workers, time.Second, discardLogger())
}

func TestRun_FetchesMissingRecords(t *testing.T) {
	s := store.NewStores()
	activeListing(s, "u1")
	activeListing(s, "u2")

	f := &recordingFetcher{bodies: map[string]string{"u1": validBody(), "u2": validBody()}}
	stats := newTestBackfill(f, 2).Run(context.Background(), s, time.Now())

	if stats.Selected != 2 || stats.Fetched != 2 || stats.Failed != 0 {
		t.Fatalf("stats = %+v, want 2 selected, 2 fetched", stats)
	}
	for _, link := range []string{"u1", "u2"} {
		rec, ok := s.Content.Get(link)
		if !ok {
			t.Fatalf("record for %s missing", link)
		}
		if rec.Quality != model.QualityValid {
			t.Errorf("%s quality = %s, want VALID", link, rec.Quality)
		}
		if rec.Company != "차지비" {
			t.Errorf("%s company = %q", link, rec.Company)
		}
	}
}

func TestRun_SkipsValidRecords(t *testing.T) {
	s := store.NewStores()
	l := activeListing(s, "u1")
	s.Content.Upsert(model.ContentRecord{Link: l.Link, Content: validBody()})

	f := &recordingFetcher{}
	stats := newTestBackfill(f, 1).Run(context.Background(), s, time.Now())

	if stats.Selected != 0 {
		t.Errorf("selected = %d, want 0", stats.Selected)
	}
	if f.count() != 0 {
		t.Errorf("fetches = %d, want 0", f.count())
	}
	// Quality is re-derived even when nothing is fetched.
	rec, _ := s.Content.Get("u1")
	if rec.Quality != model.QualityValid {
		t.Errorf("quality = %s, want VALID", rec.Quality)
	}
}

func TestRun_RefetchesUnusableRecords(t *testing.T) {
	s := store.NewStores()
	activeListing(s, "empty")
	activeListing(s, "failed")
	s.Content.Upsert(model.ContentRecord{Link: "empty", Content: ""})
	s.Content.Upsert(model.ContentRecord{Link: "failed", Content: model.FetchFailedSentinel})

	f := &recordingFetcher{bodies: map[string]string{"empty": validBody(), "failed": validBody()}}
	stats := newTestBackfill(f, 2).Run(context.Background(), s, time.Now())

	if stats.Selected != 2 || stats.Fetched != 2 {
		t.Fatalf("stats = %+v, want both refetched", stats)
	}
}

func TestRun_ImageOnlyIsTerminal(t *testing.T) {
	s := store.NewStores()
	activeListing(s, "u1")
	s.Content.Upsert(model.ContentRecord{Link: "u1", Content: model.ImageOnlyMarker})

	f := &recordingFetcher{}
	stats := newTestBackfill(f, 1).Run(context.Background(), s, time.Now())

	// An image-only page never yields text, so the record must not be
	// selected again run after run.
	if stats.Selected != 0 {
		t.Errorf("selected = %d, want 0", stats.Selected)
	}
	if f.count() != 0 {
		t.Errorf("fetches = %d, want 0", f.count())
	}
	rec, _ := s.Content.Get("u1")
	if rec.Quality != model.QualityValid {
		t.Errorf("quality = %s, want VALID", rec.Quality)
	}
}

func TestRun_FailureWritesSentinel(t *testing.T) {
	s := store.NewStores()
	activeListing(s, "u1")

	f := &recordingFetcher{} // no bodies: every fetch fails
	today := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	stats := newTestBackfill(f, 1).Run(context.Background(), s, today)

	if stats.Failed != 1 || stats.Fetched != 0 {
		t.Fatalf("stats = %+v, want 1 failed", stats)
	}
	rec, _ := s.Content.Get("u1")
	if rec.Content != model.FetchFailedSentinel {
		t.Errorf("content = %q, want sentinel", rec.Content)
	}
	if rec.Quality != model.QualityFetchFailed {
		t.Errorf("quality = %s, want FETCH_FAILED", rec.Quality)
	}
	if !rec.LastUpdated.Equal(today) {
		t.Errorf("last_updated = %v, want %v", rec.LastUpdated, today)
	}
}

func TestRun_Idempotent(t *testing.T) {
	s := store.NewStores()
	activeListing(s, "u1")

	f := &recordingFetcher{bodies: map[string]string{"u1": validBody()}}
	b := newTestBackfill(f, 1)
	today := time.Now()

	b.Run(context.Background(), s, today)
	firstFetches := f.count()
	stats := b.Run(context.Background(), s, today)

	if stats.Selected != 0 {
		t.Errorf("second run selected = %d, want 0", stats.Selected)
	}
	if f.count() != firstFetches {
		t.Errorf("second run fetched again: %d -> %d", firstFetches, f.count())
	}
}

func TestRun_UpsertKeepsPosition(t *testing.T) {
	s := store.NewStores()
	s.Content.Upsert(model.ContentRecord{Link: "a", Content: validBody()})
	s.Content.Upsert(model.ContentRecord{Link: "b", Content: ""})
	s.Content.Upsert(model.ContentRecord{Link: "c", Content: validBody()})
	activeListing(s, "b")

	f := &recordingFetcher{bodies: map[string]string{"b": validBody()}}
	newTestBackfill(f, 1).Run(context.Background(), s, time.Now())

	all := s.Content.All()
	if len(all) != 3 || all[0].Link != "a" || all[1].Link != "b" || all[2].Link != "c" {
		t.Errorf("upsert must keep record position, got %v", []string{all[0].Link, all[1].Link, all[2].Link})
	}
}

func TestStampClosures(t *testing.T) {
	s := store.NewStores()
	s.Content.Upsert(model.ContentRecord{Link: "u1", Content: validBody()})

	completed := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	closed := []model.Listing{
		{Link: "u1", CompletedDate: &completed},
		{Link: "no-record", CompletedDate: &completed},
	}

	b := newTestBackfill(&recordingFetcher{}, 1)
	b.StampClosures(s, closed)

	rec, _ := s.Content.Get("u1")
	if rec.CompletedDate == nil || !rec.CompletedDate.Equal(completed) {
		t.Errorf("completed_date = %v, want %v", rec.CompletedDate, completed)
	}
	// Closure stamping never creates records.
	if s.Content.Has("no-record") {
		t.Error("stamping must not create a record for an unfetched link")
	}
}
