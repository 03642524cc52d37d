package store

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ian939/jobtrack/internal/model"
)

// utf8BOM is written at the head of every saved file so spreadsheet tools
// open the Korean text correctly, matching the files accumulated by earlier
// runs.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVBackend persists each store as one flat CSV file.
type CSVBackend struct {
	activePath  string
	archivePath string
	contentPath string
	logger      *slog.Logger
}

// NewCSVBackend creates a backend over the three file paths.
func NewCSVBackend(activePath, archivePath, contentPath string, logger *slog.Logger) *CSVBackend {
	return &CSVBackend{
		activePath:  activePath,
		archivePath: archivePath,
		contentPath: contentPath,
		logger:      logger,
	}
}

// Load reads all three stores. A missing, empty, or unparseable file yields
// an empty table of the expected schema; it never fails the run. Column
// drift is repaired: missing expected columns are materialized empty,
// unknown columns dropped, rows deduplicated by link keeping the first.
func (b *CSVBackend) Load() (*Stores, error) {
	s := NewStores()

	for _, row := range b.loadRows(b.activePath, activeColumns) {
		l, ok := listingFromRow(row, false)
		if ok {
			s.Active.Insert(l)
		}
	}
	for _, row := range b.loadRows(b.archivePath, archiveColumns) {
		l, ok := listingFromRow(row, true)
		if ok {
			s.Archive.Insert(l)
		}
	}
	for _, row := range b.loadRows(b.contentPath, contentColumns) {
		r, ok := contentFromRow(row)
		if ok {
			s.Content.Upsert(r)
		}
	}

	return s, nil
}

// Save rewrites all three files. Each file is replaced atomically
// (temp file + rename) so a crash mid-write cannot corrupt prior history.
func (b *CSVBackend) Save(s *Stores) error {
	if err := writeCSV(b.activePath, activeColumns, listingRows(s.Active.All(), false)); err != nil {
		return fmt.Errorf("save active listings: %w", err)
	}
	if err := writeCSV(b.archivePath, archiveColumns, listingRows(s.Archive.All(), true)); err != nil {
		return fmt.Errorf("save closed archive: %w", err)
	}
	if err := writeCSV(b.contentPath, contentColumns, contentRows(s.Content.All())); err != nil {
		return fmt.Errorf("save content store: %w", err)
	}
	return nil
}

// loadRows reads a CSV file into column-keyed rows under the expected schema.
func (b *CSVBackend) loadRows(path string, expected []string) []map[string]string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	r := csv.NewReader(stripBOM(f))
	r.FieldsPerRecord = -1 // tolerate ragged rows from drifted files

	header, err := r.Read()
	if err != nil {
		return nil
	}

	// Map expected column name -> position in the loaded file, if present.
	pos := make(map[string]int, len(expected))
	for i, h := range header {
		label := strings.TrimSpace(strings.TrimPrefix(h, string(utf8BOM)))
		pos[label] = i
	}

	var rows []map[string]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			b.logger.Warn("skipping unparseable row", "file", path, "error", err)
			continue
		}
		row := make(map[string]string, len(expected))
		for _, col := range expected {
			i, ok := pos[col]
			if !ok || i >= len(rec) {
				row[col] = "" // schema repair: materialize missing column
				continue
			}
			row[col] = strings.TrimSpace(rec[i])
		}
		rows = append(rows, row)
	}
	return rows
}

func writeCSV(path string, cols []string, rows [][]string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	bw := bufio.NewWriter(tmp)
	if _, err := bw.Write(utf8BOM); err != nil {
		tmp.Close()
		return err
	}
	w := csv.NewWriter(bw)
	if err := w.Write(cols); err != nil {
		tmp.Close()
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// stripBOM skips a UTF-8 byte order mark if the reader starts with one.
func stripBOM(f io.Reader) io.Reader {
	br := bufio.NewReader(f)
	head, _ := br.Peek(3)
	if len(head) == 3 && head[0] == utf8BOM[0] && head[1] == utf8BOM[1] && head[2] == utf8BOM[2] {
		br.Discard(3)
	}
	return br
}

// --- row codecs ---

func listingFromRow(row map[string]string, archived bool) (model.Listing, bool) {
	link := row["link"]
	if link == "" {
		return model.Listing{}, false
	}
	l := model.Listing{
		Company:    row["company"],
		Title:      row["title"],
		Experience: row["experience"],
		Link:       link,
		FirstSeen:  parseDate(row["first_seen"]),
	}
	if archived {
		if t := parseDate(row["completed_date"]); !t.IsZero() {
			l.CompletedDate = &t
		}
	}
	return l, true
}

func contentFromRow(row map[string]string) (model.ContentRecord, bool) {
	link := row["link"]
	if link == "" {
		return model.ContentRecord{}, false
	}
	r := model.ContentRecord{
		Link:        link,
		Company:     row["company"],
		Title:       row["title"],
		Content:     row["content"],
		LastUpdated: parseDate(row["last_updated"]),
		FirstSeen:   parseDate(row["first_seen"]),
	}
	if t := parseDate(row["completed_date"]); !t.IsZero() {
		r.CompletedDate = &t
	}
	return r, true
}

func listingRows(listings []model.Listing, archived bool) [][]string {
	rows := make([][]string, 0, len(listings))
	for _, l := range listings {
		row := []string{l.Company, l.Title, l.Experience, l.Link, formatDate(l.FirstSeen)}
		if archived {
			row = append(row, formatDatePtr(l.CompletedDate))
		}
		rows = append(rows, row)
	}
	return rows
}

func contentRows(records []model.ContentRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Link, r.Company, r.Title, r.Content,
			formatDate(r.LastUpdated), formatDate(r.FirstSeen), formatDatePtr(r.CompletedDate),
		})
	}
	return rows
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}
