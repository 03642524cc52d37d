package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteBackend persists the three stores as tables in one SQLite database.
// All columns are TEXT; dates use the same layout as the CSV backend so the
// two backends are interchangeable.
type SQLiteBackend struct {
	db *sql.DB
}

var sqliteTables = []struct {
	name string
	cols []string
}{
	{"active_listings", activeColumns},
	{"closed_archive", archiveColumns},
	{"content_store", contentColumns},
}

// NewSQLiteBackend opens (or creates) the database at dbPath and migrates
// each table to the expected schema: missing tables are created, missing
// columns added via ALTER TABLE. Extra columns are ignored on load.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	for _, t := range sqliteTables {
		if err := migrateTable(db, t.name, t.cols); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrating %s: %w", t.name, err)
		}
	}

	return &SQLiteBackend{db: db}, nil
}

// Close closes the underlying database connection.
func (b *SQLiteBackend) Close() error { return b.db.Close() }

// migrateTable creates the table if absent and adds any expected column the
// existing table lacks. The link column is the dedup key on load rather than
// a PRIMARY KEY so that drifted duplicate rows never fail the open.
func migrateTable(db *sql.DB, name string, cols []string) error {
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s TEXT)", name, strings.Join(cols, " TEXT, "))
	if _, err := db.Exec(create); err != nil {
		return err
	}

	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", name))
	if err != nil {
		return err
	}
	existing := make(map[string]bool)
	for rows.Next() {
		var cid int
		var colName, colType string
		var notNull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dflt, &pk); err != nil {
			rows.Close()
			return err
		}
		existing[colName] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, c := range cols {
		if !existing[c] {
			if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", name, c)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Load reads all three tables, deduplicating by link (first row wins).
func (b *SQLiteBackend) Load() (*Stores, error) {
	s := NewStores()

	for _, row := range b.loadRows("active_listings", activeColumns) {
		if l, ok := listingFromRow(row, false); ok {
			s.Active.Insert(l)
		}
	}
	for _, row := range b.loadRows("closed_archive", archiveColumns) {
		if l, ok := listingFromRow(row, true); ok {
			s.Archive.Insert(l)
		}
	}
	for _, row := range b.loadRows("content_store", contentColumns) {
		if r, ok := contentFromRow(row); ok {
			s.Content.Upsert(r)
		}
	}

	return s, nil
}

func (b *SQLiteBackend) loadRows(table string, cols []string) []map[string]string {
	// rowid order preserves insertion order across runs.
	q := fmt.Sprintf("SELECT %s FROM %s ORDER BY rowid", strings.Join(cols, ", "), table)
	rows, err := b.db.Query(q)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var out []map[string]string
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			continue
		}
		row := make(map[string]string, len(cols))
		for i, c := range cols {
			row[c] = strings.TrimSpace(vals[i].String)
		}
		out = append(out, row)
	}
	return out
}

// Save rewrites all three tables in a single transaction, so a crash
// mid-save leaves the previous contents intact.
func (b *SQLiteBackend) Save(s *Stores) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if err := saveTable(tx, "active_listings", activeColumns, listingRows(s.Active.All(), false)); err != nil {
		return fmt.Errorf("save active listings: %w", err)
	}
	if err := saveTable(tx, "closed_archive", archiveColumns, listingRows(s.Archive.All(), true)); err != nil {
		return fmt.Errorf("save closed archive: %w", err)
	}
	if err := saveTable(tx, "content_store", contentColumns, contentRows(s.Content.All())); err != nil {
		return fmt.Errorf("save content store: %w", err)
	}

	return tx.Commit()
}

func saveTable(tx *sql.Tx, table string, cols []string, rows [][]string) error {
	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		return err
	}
	placeholders := "?" + strings.Repeat(", ?", len(cols)-1)
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders)
	stmt, err := tx.Prepare(insert)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]any, len(row))
		for i, v := range row {
			args[i] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			return err
		}
	}
	return nil
}

var _ Backend = (*SQLiteBackend)(nil)
var _ Backend = (*CSVBackend)(nil)
