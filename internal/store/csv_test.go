package store

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ian939/jobtrack/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCSVBackend(t *testing.T) (*CSVBackend, string) {
	t.Helper()
	dir := t.TempDir()
	b := NewCSVBackend(
		filepath.Join(dir, "active.csv"),
		filepath.Join(dir, "closed.csv"),
		filepath.Join(dir, "content.csv"),
		discardLogger(),
	)
	return b, dir
}

func day(s string) time.Time {
	d, err := time.Parse(model.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCSV_LoadMissingFiles(t *testing.T) {
	b, _ := newTestCSVBackend(t)

	s, err := b.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Active.Len() != 0 || s.Archive.Len() != 0 || s.Content.Len() != 0 {
		t.Error("missing files should load as empty stores")
	}
}

func TestCSV_RoundTrip(t *testing.T) {
	b, _ := newTestCSVBackend(t)

	completed := day("2026-08-02")
	s := NewStores()
	s.Active.Insert(model.Listing{
		Company: "차지비", Title: "충전 인프라 엔지니어", Experience: "경력 3년",
		Link: "https://x.kr/1", FirstSeen: day("2026-08-01"),
	})
	s.Archive.Insert(model.Listing{
		Company: "에버온", Title: "운영 매니저", Link: "https://x.kr/2",
		FirstSeen: day("2026-07-01"), CompletedDate: &completed,
	})
	s.Content.Upsert(model.ContentRecord{
		Link: "https://x.kr/1", Company: "차지비", Title: "충전 인프라 엔지니어",
		Content: "상세 내용, \"따옴표\"와\n줄바꿈 포함", LastUpdated: day("2026-08-01"),
	})

	if err := b.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := b.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	got, ok := loaded.Active.Get("https://x.kr/1")
	if !ok || got.Company != "차지비" || got.Experience != "경력 3년" || !got.FirstSeen.Equal(day("2026-08-01")) {
		t.Errorf("active listing mangled: %+v", got)
	}
	arch, ok := loaded.Archive.Get("https://x.kr/2")
	if !ok || arch.CompletedDate == nil || !arch.CompletedDate.Equal(completed) {
		t.Errorf("archived listing mangled: %+v", arch)
	}
	rec, ok := loaded.Content.Get("https://x.kr/1")
	if !ok || rec.Content != "상세 내용, \"따옴표\"와\n줄바꿈 포함" {
		t.Errorf("content mangled: %q", rec.Content)
	}
}

func TestCSV_SchemaRepair(t *testing.T) {
	b, dir := newTestCSVBackend(t)

	// A file from an old version: no experience column, plus a column this
	// version does not know about.
	old := "company,title,link,status\n차지비,엔지니어,https://x.kr/1,open\n"
	if err := os.WriteFile(filepath.Join(dir, "active.csv"), []byte(old), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := b.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	l, ok := s.Active.Get("https://x.kr/1")
	if !ok {
		t.Fatal("listing should survive schema drift")
	}
	if l.Experience != "" {
		t.Errorf("missing column should load empty, got %q", l.Experience)
	}

	// Saving rewrites the file under the current schema.
	if err := b.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "active.csv"))
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if want := "company,title,experience,link,first_seen"; !containsLine(text, want) {
		t.Errorf("saved header = %q, want %q", firstLine(text), want)
	}
}

func TestCSV_BOMHandling(t *testing.T) {
	b, dir := newTestCSVBackend(t)

	// File with a BOM before the header, as produced by earlier runs.
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("company,title,experience,link,first_seen\n차지비,a,,https://x.kr/1,2026-08-01\n")...)
	if err := os.WriteFile(filepath.Join(dir, "active.csv"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := b.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !s.Active.Has("https://x.kr/1") {
		t.Error("BOM-prefixed file should parse normally")
	}

	// Saved files carry the BOM back out.
	if err := b.Save(s); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, _ := os.ReadFile(filepath.Join(dir, "active.csv"))
	if len(out) < 3 || out[0] != 0xEF || out[1] != 0xBB || out[2] != 0xBF {
		t.Error("saved file should start with a UTF-8 BOM")
	}
}

func TestCSV_DedupOnLoad(t *testing.T) {
	b, dir := newTestCSVBackend(t)

	dup := "company,title,experience,link,first_seen\n차지비,먼저,,https://x.kr/1,2026-08-01\n차지비,나중,,https://x.kr/1,2026-08-02\n"
	if err := os.WriteFile(filepath.Join(dir, "active.csv"), []byte(dup), 0o644); err != nil {
		t.Fatal(err)
	}

	s, _ := b.Load()
	if s.Active.Len() != 1 {
		t.Fatalf("active = %d, want 1 after dedup", s.Active.Len())
	}
	l, _ := s.Active.Get("https://x.kr/1")
	if l.Title != "먼저" {
		t.Errorf("first row should win, got %q", l.Title)
	}
}

func TestCSV_GarbageFileLoadsEmpty(t *testing.T) {
	b, dir := newTestCSVBackend(t)

	if err := os.WriteFile(filepath.Join(dir, "active.csv"), []byte{0x00, 0x01, 0x02}, 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := b.Load()
	if err != nil {
		t.Fatalf("load must not fail on a garbage file: %v", err)
	}
	if s.Active.Len() != 0 {
		t.Errorf("garbage file should load as empty, got %d rows", s.Active.Len())
	}
}

func TestCSV_BlankLinkRowsDropped(t *testing.T) {
	b, dir := newTestCSVBackend(t)

	data := "company,title,experience,link,first_seen\n차지비,링크없음,,,2026-08-01\n"
	if err := os.WriteFile(filepath.Join(dir, "active.csv"), []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	s, _ := b.Load()
	if s.Active.Len() != 0 {
		t.Errorf("rows without a link should be dropped, got %d", s.Active.Len())
	}
}

func containsLine(text, line string) bool {
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimPrefix(l, string(utf8BOM))
		if strings.TrimSuffix(l, "\r") == line {
			return true
		}
	}
	return false
}

func firstLine(text string) string {
	// Skip the BOM before comparing.
	if len(text) >= 3 && text[0] == '\xef' && text[1] == '\xbb' && text[2] == '\xbf' {
		text = text[3:]
	}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' || text[i] == '\r' {
			return text[:i]
		}
	}
	return text
}
