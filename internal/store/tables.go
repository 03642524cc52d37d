// Package store loads and saves the three persistent stores (active listings,
// closed archive, detail content) with schema repair on load and whole-file
// atomic replace on save.
package store

import (
	"github.com/ian939/jobtrack/internal/model"
)

// Expected column sets. Loaded files missing a column get it materialized
// empty; unknown columns are dropped.
var (
	activeColumns  = []string{"company", "title", "experience", "link", "first_seen"}
	archiveColumns = []string{"company", "title", "experience", "link", "first_seen", "completed_date"}
	contentColumns = []string{"link", "company", "title", "content", "last_updated", "first_seen", "completed_date"}
)

// ListingTable is an ordered, link-indexed set of listings. At most one
// listing per link; inserts of a duplicate link are ignored (first wins).
type ListingTable struct {
	order []string
	byLnk map[string]model.Listing
}

// NewListingTable returns an empty table.
func NewListingTable() *ListingTable {
	return &ListingTable{byLnk: make(map[string]model.Listing)}
}

func (t *ListingTable) Len() int { return len(t.order) }

func (t *ListingTable) Has(link string) bool {
	_, ok := t.byLnk[link]
	return ok
}

func (t *ListingTable) Get(link string) (model.Listing, bool) {
	l, ok := t.byLnk[link]
	return l, ok
}

// Insert adds the listing unless its link is already present.
// Returns true if the listing was added.
func (t *ListingTable) Insert(l model.Listing) bool {
	if l.Link == "" {
		return false
	}
	if _, dup := t.byLnk[l.Link]; dup {
		return false
	}
	t.byLnk[l.Link] = l
	t.order = append(t.order, l.Link)
	return true
}

// Remove deletes the listing with the given link, preserving the order of
// the remaining rows. Returns the removed listing.
func (t *ListingTable) Remove(link string) (model.Listing, bool) {
	l, ok := t.byLnk[link]
	if !ok {
		return model.Listing{}, false
	}
	delete(t.byLnk, link)
	for i, lk := range t.order {
		if lk == link {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return l, true
}

// All returns the listings in insertion order.
func (t *ListingTable) All() []model.Listing {
	out := make([]model.Listing, 0, len(t.order))
	for _, lk := range t.order {
		out = append(out, t.byLnk[lk])
	}
	return out
}

// Links returns the links in insertion order.
func (t *ListingTable) Links() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// ContentTable is an ordered, link-indexed set of content records.
type ContentTable struct {
	order []string
	byLnk map[string]model.ContentRecord
}

// NewContentTable returns an empty table.
func NewContentTable() *ContentTable {
	return &ContentTable{byLnk: make(map[string]model.ContentRecord)}
}

func (t *ContentTable) Len() int { return len(t.order) }

func (t *ContentTable) Has(link string) bool {
	_, ok := t.byLnk[link]
	return ok
}

func (t *ContentTable) Get(link string) (model.ContentRecord, bool) {
	r, ok := t.byLnk[link]
	return r, ok
}

// Upsert inserts the record or replaces the existing one in place, keeping
// its position. The link never duplicates.
func (t *ContentTable) Upsert(r model.ContentRecord) {
	if r.Link == "" {
		return
	}
	if _, ok := t.byLnk[r.Link]; !ok {
		t.order = append(t.order, r.Link)
	}
	t.byLnk[r.Link] = r
}

// All returns the records in insertion order.
func (t *ContentTable) All() []model.ContentRecord {
	out := make([]model.ContentRecord, 0, len(t.order))
	for _, lk := range t.order {
		out = append(out, t.byLnk[lk])
	}
	return out
}

// Stores bundles the three persistent tables for one run.
type Stores struct {
	Active  *ListingTable
	Archive *ListingTable
	Content *ContentTable
}

// NewStores returns an empty store set.
func NewStores() *Stores {
	return &Stores{
		Active:  NewListingTable(),
		Archive: NewListingTable(),
		Content: NewContentTable(),
	}
}

// Backend loads and saves the three stores. Load must never fail for
// unreadable or drifted data: it substitutes empty tables of the expected
// schema instead. Save rewrites each store in full.
type Backend interface {
	Load() (*Stores, error)
	Save(s *Stores) error
}
