package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	swimdata "github.com/PeterK-end/swim-data-analyser"
)

func openTestStore(t *testing.T) *Client {
	t.Helper()

	c, err := Open(filepath.Join(t.TempDir(), "nested", "sessions.db"))
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}

	t.Cleanup(func() { c.Close() })

	return c
}

func testRecord(t *testing.T, id string) *Record {
	t.Helper()

	doc, err := swimdata.DefaultDocument()
	if err != nil {
		t.Fatal(err)
	}

	return &Record{ID: id, SourceName: "pool.fit", Original: doc, Current: doc.Clone()}
}

func TestSaveAndGet(t *testing.T) {
	c := openTestStore(t)
	rec := testRecord(t, "a")

	if err := c.Save(rec); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if rec.CreatedAt.IsZero() || rec.UpdatedAt.IsZero() {
		t.Fatal("timestamps not stamped")
	}

	got, err := c.Get("a")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("stored record (-want +got):\n%s", diff)
	}
}

func TestSaveOverwritesAndKeepsCreatedAt(t *testing.T) {
	c := openTestStore(t)
	rec := testRecord(t, "a")

	if err := c.Save(rec); err != nil {
		t.Fatal(err)
	}
	created := rec.CreatedAt

	e := swimdata.NewEditor(rec.Current)
	if err := e.DeleteLengths([]int{0}); err != nil {
		t.Fatal(err)
	}
	rec.Current = e.Document()
	if err := c.Save(rec); err != nil {
		t.Fatal(err)
	}

	got, err := c.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at changed: %v -> %v", created, got.CreatedAt)
	}
	if len(got.Current.ActiveLengths()) != len(got.Original.ActiveLengths())-1 {
		t.Fatal("edit not persisted")
	}
}

func TestGetMissing(t *testing.T) {
	c := openTestStore(t)
	if _, err := c.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteAndList(t *testing.T) {
	c := openTestStore(t)
	for _, id := range []string{"a", "b", "c"} {
		if err := c.Save(testRecord(t, id)); err != nil {
			t.Fatal(err)
		}
	}

	if err := c.Delete("b"); err != nil {
		t.Fatal(err)
	}
	if err := c.Delete("missing"); err != nil {
		t.Fatalf("deleting a missing id: %v", err)
	}

	list, err := c.List()
	if err != nil {
		t.Fatal(err)
	}
	ids := map[string]bool{}
	for _, r := range list {
		ids[r.ID] = true
	}
	if diff := cmp.Diff(map[string]bool{"a": true, "c": true}, ids); diff != "" {
		t.Fatalf("listed ids (-want +got):\n%s", diff)
	}
}

func TestPrune(t *testing.T) {
	c := openTestStore(t)
	for _, id := range []string{"a", "b"} {
		if err := c.Save(testRecord(t, id)); err != nil {
			t.Fatal(err)
		}
	}

	n, err := c.Prune(time.Now().Add(-time.Hour))
	if err != nil || n != 0 {
		t.Fatalf("prune of fresh sessions = %d, %v", n, err)
	}

	n, err = c.Prune(time.Now().Add(time.Hour))
	if err != nil || n != 2 {
		t.Fatalf("prune = %d, %v", n, err)
	}
	if list, _ := c.List(); len(list) != 0 {
		t.Fatalf("%d sessions left", len(list))
	}
}

func TestSaveRejectsEmptyID(t *testing.T) {
	c := openTestStore(t)
	if err := c.Save(&Record{}); err == nil {
		t.Fatal("expected an error")
	}
}

func TestOpenLockedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open error: %v", err)
	}
	defer first.Close()

	if _, err := Open(path); !errors.Is(err, errDBLocked) {
		t.Fatalf("second Open = %v, want %v", err, errDBLocked)
	}
}
