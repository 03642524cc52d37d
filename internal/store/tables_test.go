package store

import (
	"testing"

	"github.com/ian939/jobtrack/internal/model"
)

func TestListingTable_InsertFirstWins(t *testing.T) {
	tab := NewListingTable()

	if !tab.Insert(model.Listing{Link: "a", Title: "먼저"}) {
		t.Fatal("first insert should succeed")
	}
	if tab.Insert(model.Listing{Link: "a", Title: "나중"}) {
		t.Error("duplicate insert should be rejected")
	}
	l, _ := tab.Get("a")
	if l.Title != "먼저" {
		t.Errorf("title = %q, want first insert to win", l.Title)
	}
}

func TestListingTable_RemoveKeepsOrder(t *testing.T) {
	tab := NewListingTable()
	for _, link := range []string{"a", "b", "c"} {
		tab.Insert(model.Listing{Link: link})
	}

	removed, ok := tab.Remove("b")
	if !ok || removed.Link != "b" {
		t.Fatalf("remove returned %+v, %v", removed, ok)
	}
	links := tab.Links()
	if len(links) != 2 || links[0] != "a" || links[1] != "c" {
		t.Errorf("links = %v, want [a c]", links)
	}
	if _, ok := tab.Remove("b"); ok {
		t.Error("second remove should report absence")
	}
}

func TestContentTable_UpsertInPlace(t *testing.T) {
	tab := NewContentTable()
	tab.Upsert(model.ContentRecord{Link: "a", Content: "1"})
	tab.Upsert(model.ContentRecord{Link: "b", Content: "1"})
	tab.Upsert(model.ContentRecord{Link: "a", Content: "2"})

	all := tab.All()
	if len(all) != 2 {
		t.Fatalf("len = %d, want 2", len(all))
	}
	if all[0].Link != "a" || all[0].Content != "2" {
		t.Errorf("upsert should update in place: %+v", all[0])
	}
}
