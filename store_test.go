package stackmd

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenCreatesSchema(t *testing.T) {
	store := newTestStore(t)

	version, err := store.GetMeta("schema_version")
	if err != nil {
		t.Fatalf("GetMeta() error = %v", err)
	}
	if version != schemaVersion {
		t.Errorf("schema_version = %q, want %q", version, schemaVersion)
	}
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "cache.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	if store.Path() != path {
		t.Errorf("Path() = %q, want %q", store.Path(), path)
	}
}

func TestStoreClosedErrors(t *testing.T) {
	store := newTestStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	_, err := store.UpsertShelf(1, "Shelf", "shelf", "")
	if !errors.Is(err, ErrStoreClosed) {
		t.Errorf("UpsertShelf() after close error = %v, want ErrStoreClosed", err)
	}

	// Close is idempotent.
	if err := store.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestUpsertShelfInsertAndUpdate(t *testing.T) {
	store := newTestStore(t)

	id1, err := store.UpsertShelf(10, "Docs", "docs", "All docs")
	if err != nil {
		t.Fatalf("UpsertShelf() error = %v", err)
	}
	id2, err := store.UpsertShelf(10, "Docs v2", "docs-v2", "")
	if err != nil {
		t.Fatalf("UpsertShelf() update error = %v", err)
	}
	if id1 != id2 {
		t.Errorf("upsert produced new row: id %d then %d", id1, id2)
	}

	shelf, err := store.GetShelfByRemoteID(10)
	if err != nil {
		t.Fatalf("GetShelfByRemoteID() error = %v", err)
	}
	if shelf.Name != "Docs v2" {
		t.Errorf("Name = %q, want %q", shelf.Name, "Docs v2")
	}
}

func TestUpsertResurrectsDeletedRow(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.UpsertShelf(10, "Docs", "docs", ""); err != nil {
		t.Fatalf("UpsertShelf() error = %v", err)
	}
	if _, err := store.MarkDeletedShelves([]int64{999}); err != nil {
		t.Fatalf("MarkDeletedShelves() error = %v", err)
	}

	shelf, err := store.GetShelfByRemoteID(10)
	if err != nil {
		t.Fatalf("GetShelfByRemoteID() error = %v", err)
	}
	if !shelf.IsDeleted {
		t.Fatal("shelf should be tombstoned")
	}

	// Upserting again clears the tombstone.
	if _, err := store.UpsertShelf(10, "Docs", "docs", ""); err != nil {
		t.Fatalf("UpsertShelf() resurrect error = %v", err)
	}
	shelf, err = store.GetShelfByRemoteID(10)
	if err != nil {
		t.Fatalf("GetShelfByRemoteID() error = %v", err)
	}
	if shelf.IsDeleted {
		t.Error("upsert should clear is_deleted")
	}
}

func TestUpsertBookMissingShelf(t *testing.T) {
	store := newTestStore(t)

	// A book referencing an unknown shelf is stored unshelved.
	if _, err := store.UpsertBook(20, "Guide", "guide", "", 999); err != nil {
		t.Fatalf("UpsertBook() error = %v", err)
	}

	book, err := store.GetBookByRemoteID(20)
	if err != nil {
		t.Fatalf("GetBookByRemoteID() error = %v", err)
	}
	if book.ShelfRemoteID != 0 {
		t.Errorf("ShelfRemoteID = %d, want 0", book.ShelfRemoteID)
	}
}

func TestUpsertChapterMissingBook(t *testing.T) {
	store := newTestStore(t)

	_, err := store.UpsertChapter(30, "Intro", "intro", "", 999, 1)
	var pnf *ParentNotFoundError
	if !errors.As(err, &pnf) {
		t.Fatalf("UpsertChapter() error = %v, want *ParentNotFoundError", err)
	}
	if pnf.ParentKind != "book" || pnf.ParentRemoteID != 999 {
		t.Errorf("ParentNotFoundError = %+v", pnf)
	}
}

func TestListBooksFilterByShelf(t *testing.T) {
	store := newTestStore(t)

	mustUpsertShelf(t, store, 1, "Shelf A")
	mustUpsertShelf(t, store, 2, "Shelf B")
	mustUpsertBook(t, store, 10, "Book One", 1)
	mustUpsertBook(t, store, 11, "Book Two", 2)
	mustUpsertBook(t, store, 12, "Book Three", 0)

	all, err := store.ListBooks(0, false)
	if err != nil {
		t.Fatalf("ListBooks() error = %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListBooks(0) len = %d, want 3", len(all))
	}

	shelfA, err := store.ListBooks(1, false)
	if err != nil {
		t.Fatalf("ListBooks(1) error = %v", err)
	}
	if len(shelfA) != 1 || shelfA[0].RemoteID != 10 {
		t.Errorf("ListBooks(1) = %+v, want book 10 only", shelfA)
	}
}

func TestMarkDeletedSweep(t *testing.T) {
	store := newTestStore(t)

	mustUpsertShelf(t, store, 1, "A")
	mustUpsertShelf(t, store, 2, "B")
	mustUpsertShelf(t, store, 3, "C")

	n, err := store.MarkDeletedShelves([]int64{1, 2})
	if err != nil {
		t.Fatalf("MarkDeletedShelves() error = %v", err)
	}
	if n != 1 {
		t.Errorf("deleted = %d, want 1", n)
	}

	active, err := store.ListShelves(false)
	if err != nil {
		t.Fatalf("ListShelves() error = %v", err)
	}
	if len(active) != 2 {
		t.Errorf("active shelves = %d, want 2", len(active))
	}

	withDeleted, err := store.ListShelves(true)
	if err != nil {
		t.Fatalf("ListShelves(true) error = %v", err)
	}
	if len(withDeleted) != 3 {
		t.Errorf("all shelves = %d, want 3", len(withDeleted))
	}
}

func TestMarkDeletedEmptyActiveSetIsNoOp(t *testing.T) {
	store := newTestStore(t)

	mustUpsertShelf(t, store, 1, "A")

	n, err := store.MarkDeletedShelves(nil)
	if err != nil {
		t.Fatalf("MarkDeletedShelves(nil) error = %v", err)
	}
	if n != 0 {
		t.Errorf("deleted = %d, want 0", n)
	}

	shelf, err := store.GetShelfByRemoteID(1)
	if err != nil {
		t.Fatalf("GetShelfByRemoteID() error = %v", err)
	}
	if shelf.IsDeleted {
		t.Error("empty active set must not tombstone anything")
	}
}

func TestTransactionRollback(t *testing.T) {
	store := newTestStore(t)

	if err := store.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	mustUpsertShelf(t, store, 1, "A")
	if err := store.Rollback(); err != nil {
		t.Fatalf("Rollback() error = %v", err)
	}

	_, err := store.GetShelfByRemoteID(1)
	if !errors.Is(err, ErrNotCached) {
		t.Errorf("GetShelfByRemoteID() after rollback error = %v, want ErrNotCached", err)
	}
}

func TestTransactionCommit(t *testing.T) {
	store := newTestStore(t)

	if err := store.Begin(); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if err := store.Begin(); !errors.Is(err, ErrTransactionActive) {
		t.Errorf("nested Begin() error = %v, want ErrTransactionActive", err)
	}
	mustUpsertShelf(t, store, 1, "A")
	if err := store.Commit(); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	if _, err := store.GetShelfByRemoteID(1); err != nil {
		t.Errorf("GetShelfByRemoteID() after commit error = %v", err)
	}

	if err := store.Commit(); !errors.Is(err, ErrNoTransaction) {
		t.Errorf("Commit() without tx error = %v, want ErrNoTransaction", err)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	store := newTestStore(t)

	val, err := store.GetMeta("missing")
	if err != nil {
		t.Fatalf("GetMeta(missing) error = %v", err)
	}
	if val != "" {
		t.Errorf("GetMeta(missing) = %q, want empty", val)
	}

	if err := store.SetMeta("last_sync", "2026-01-02T03:04:05Z"); err != nil {
		t.Fatalf("SetMeta() error = %v", err)
	}
	if err := store.SetMeta("last_sync", "2026-02-02T03:04:05Z"); err != nil {
		t.Fatalf("SetMeta() overwrite error = %v", err)
	}

	val, err = store.GetMeta("last_sync")
	if err != nil {
		t.Fatalf("GetMeta() error = %v", err)
	}
	if val != "2026-02-02T03:04:05Z" {
		t.Errorf("GetMeta() = %q", val)
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)

	mustUpsertShelf(t, store, 1, "A")
	mustUpsertBook(t, store, 10, "Book", 1)
	mustUpsertBook(t, store, 11, "Gone", 0)
	if _, err := store.MarkDeletedBooks([]int64{10}); err != nil {
		t.Fatalf("MarkDeletedBooks() error = %v", err)
	}
	if err := store.SetMeta("last_sync", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)); err != nil {
		t.Fatalf("SetMeta() error = %v", err)
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Shelves.Active != 1 {
		t.Errorf("Shelves.Active = %d, want 1", stats.Shelves.Active)
	}
	if stats.Books.Total != 2 || stats.Books.Active != 1 || stats.Books.Deleted != 1 {
		t.Errorf("Books = %+v", stats.Books)
	}
	if stats.LastSync.IsZero() {
		t.Error("LastSync should be set")
	}
	if stats.SchemaVersion != schemaVersion {
		t.Errorf("SchemaVersion = %q", stats.SchemaVersion)
	}
}

func TestDeleteBookCascades(t *testing.T) {
	store := newTestStore(t)

	mustUpsertBook(t, store, 10, "Book", 0)
	mustUpsertChapter(t, store, 30, "Ch", 10)
	mustUpsertPage(t, store, &Page{RemoteID: 40, Name: "P", BookRemoteID: 10, ChapterRemoteID: 30})

	if err := store.DeleteBook(10); err != nil {
		t.Fatalf("DeleteBook() error = %v", err)
	}

	if _, err := store.GetChapterByRemoteID(30); !errors.Is(err, ErrNotCached) {
		t.Errorf("chapter survived cascade: err = %v", err)
	}
	if _, err := store.GetPageByRemoteID(40); !errors.Is(err, ErrNotCached) {
		t.Errorf("page survived cascade: err = %v", err)
	}
}

func TestDestroyRemovesDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := store.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}

	// A fresh open should start from an empty schema.
	store2, err := Open(path)
	if err != nil {
		t.Fatalf("Open() after destroy error = %v", err)
	}
	defer store2.Close()
	shelves, err := store2.ListShelves(true)
	if err != nil {
		t.Fatalf("ListShelves() error = %v", err)
	}
	if len(shelves) != 0 {
		t.Errorf("shelves = %d, want 0", len(shelves))
	}
}

func mustUpsertShelf(t *testing.T, store *Store, remoteID int64, name string) {
	t.Helper()
	if _, err := store.UpsertShelf(remoteID, name, "", ""); err != nil {
		t.Fatalf("UpsertShelf(%d) error = %v", remoteID, err)
	}
}

func mustUpsertBook(t *testing.T, store *Store, remoteID int64, name string, shelfRemoteID int64) {
	t.Helper()
	if _, err := store.UpsertBook(remoteID, name, "", "", shelfRemoteID); err != nil {
		t.Fatalf("UpsertBook(%d) error = %v", remoteID, err)
	}
}

func mustUpsertChapter(t *testing.T, store *Store, remoteID int64, name string, bookRemoteID int64) {
	t.Helper()
	if _, err := store.UpsertChapter(remoteID, name, "", "", bookRemoteID, 0); err != nil {
		t.Fatalf("UpsertChapter(%d) error = %v", remoteID, err)
	}
}

func mustUpsertPage(t *testing.T, store *Store, page *Page) {
	t.Helper()
	if _, err := store.UpsertPage(page); err != nil {
		t.Fatalf("UpsertPage(%d) error = %v", page.RemoteID, err)
	}
}
