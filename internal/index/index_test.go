package index

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/tikibase/internal/apperr"
	"github.com/starford/tikibase/internal/checksum"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&count); err != nil {
		t.Fatalf("documents table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM links`).Scan(&count); err != nil {
		t.Fatalf("links table missing: %v", err)
	}
}

func TestUpsertAndGetDocument(t *testing.T) {
	db := testDB(t)
	row := DocumentRow{
		Path:      "hello.md",
		Title:     "Hello World",
		Checksum:  "abc123",
		Sections:  []string{"what is it", "links"},
		UpdatedAt: time.Now(),
	}
	if err := db.UpsertDocument(row, "# Hello World\n", []string{"other.md"}); err != nil {
		t.Fatalf("UpsertDocument: %v", err)
	}
	cs, err := db.GetChecksum("hello.md")
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
	got, err := db.GetDocument("hello.md")
	if err != nil {
		t.Fatalf("GetDocument: %v", err)
	}
	if got.Title != "Hello World" || len(got.Sections) != 2 || got.Sections[1] != "links" {
		t.Errorf("document = %+v", got)
	}
}

func TestGetDocument_NotFound(t *testing.T) {
	db := testDB(t)
	_, err := db.GetDocument("missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBacklinks(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "c.md", Checksum: "2", UpdatedAt: time.Now()}, "body", []string{"b.md"})
	_ = db.UpsertDocument(DocumentRow{Path: "a.md", Checksum: "1", UpdatedAt: time.Now()}, "body", []string{"b.md"})

	bl, err := db.Backlinks("b.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 2 || bl[0] != "a.md" || bl[1] != "c.md" {
		t.Fatalf("backlinks = %v, want [a.md c.md]", bl)
	}
}

func TestDeleteDocument(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "del.md", Checksum: "x", UpdatedAt: time.Now()}, "body", []string{"target.md"})

	if err := db.DeleteDocument("del.md"); err != nil {
		t.Fatalf("DeleteDocument: %v", err)
	}
	cs, _ := db.GetChecksum("del.md")
	if cs != "" {
		t.Errorf("deleted document still has checksum %q", cs)
	}
	bl, _ := db.Backlinks("target.md")
	if len(bl) != 0 {
		t.Errorf("expected 0 backlinks after delete, got %d", len(bl))
	}
}

func TestUpsertUpdatesExisting(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertDocument(DocumentRow{Path: "up.md", Title: "Old", Checksum: "1", UpdatedAt: now}, "old body", []string{"x.md"})
	_ = db.UpsertDocument(DocumentRow{Path: "up.md", Title: "New", Checksum: "2", UpdatedAt: now}, "new body", []string{"y.md"})

	cs, _ := db.GetChecksum("up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	bl, _ := db.Backlinks("x.md")
	if len(bl) != 0 {
		t.Error("old link should be removed on upsert")
	}
	bl, _ = db.Backlinks("y.md")
	if len(bl) != 1 {
		t.Error("new link should exist")
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertDocument(DocumentRow{Path: "s.md", Title: "Search Me", Checksum: "1", UpdatedAt: time.Now()}, "uniqueword appears here", nil)

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "s.md" {
		t.Errorf("search results = %+v, want 1 hit for s.md", results)
	}
}

func TestSync(t *testing.T) {
	db := testDB(t)
	sources := []Source{
		{Path: "a.md", Title: "A", Text: "# A\n[b](b.md)\n", Links: []string{"b.md"}},
		{Path: "b.md", Title: "B", Text: "# B\n"},
	}
	if err := Sync(db, sources, discard); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	all, err := db.AllChecksums()
	if err != nil {
		t.Fatalf("AllChecksums: %v", err)
	}
	if len(all) != 2 || all["b.md"] != checksum.Sum([]byte("# B\n")) {
		t.Errorf("checksums = %v", all)
	}
	bl, _ := db.Backlinks("b.md")
	if len(bl) != 1 || bl[0] != "a.md" {
		t.Errorf("backlinks = %v", bl)
	}

	// b.md disappears, a.md changes
	sources = []Source{{Path: "a.md", Title: "A2", Text: "# A2\n"}}
	if err := Sync(db, sources, discard); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if cs, _ := db.GetChecksum("b.md"); cs != "" {
		t.Error("stale document should be removed")
	}
	if bl, _ := db.Backlinks("b.md"); len(bl) != 0 {
		t.Errorf("stale links = %v", bl)
	}
	got, _ := db.GetDocument("a.md")
	if got == nil || got.Title != "A2" {
		t.Errorf("changed document not re-indexed: %+v", got)
	}
}
