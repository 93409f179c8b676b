package stackmd

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/stackmd/stackmd/internal/store/migrations"
	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Store is the local SQLite cache mirroring the remote hierarchy plus
// per-page sync metadata. It performs no network calls.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	closed bool
	path   string
	tx     *sql.Tx
}

// Open opens or creates the cache at path, initializing the schema if
// absent. The operation is idempotent.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: create cache directory: %v", ErrStoreUnavailable, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrStoreUnavailable, err)
	}

	// WAL for better concurrent read access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enable WAL mode: %v", ErrStoreUnavailable, err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: enable foreign keys: %v", ErrStoreUnavailable, err)
	}

	store := &Store{db: db, path: path}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate schema: %v", ErrStoreUnavailable, err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("store: set goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "."); err != nil {
		return fmt.Errorf("store: run migrations: %w", err)
	}

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO sync_meta (key, value) VALUES ('schema_version', ?)
	`, schemaVersion)
	return err
}

// Path returns the cache file location.
func (s *Store) Path() string { return s.path }

// Close closes the store. Safe to call twice.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	if s.tx != nil {
		_ = s.tx.Rollback()
		s.tx = nil
	}
	s.closed = true
	return s.db.Close()
}

// Destroy closes the store and removes the persisted cache file. This is
// the only way the cache is ever deleted; nothing removes it implicitly.
func (s *Store) Destroy() error {
	if err := s.Close(); err != nil {
		return err
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: remove cache file: %w", err)
		}
	}
	return nil
}

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx.
type dbtx interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// h returns the active transaction if one is open, else the database.
// Callers must hold s.mu.
func (s *Store) h() dbtx {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// Begin opens a transaction scope. All subsequent store writes run inside
// it until Commit or Rollback. Used by structure refresh so a failure
// mid-sweep leaves prior state intact.
func (s *Store) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if s.tx != nil {
		return ErrTransactionActive
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	s.tx = tx
	return nil
}

// Commit commits the open transaction scope.
func (s *Store) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return ErrNoTransaction
	}
	err := s.tx.Commit()
	s.tx = nil
	if err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// Rollback discards the open transaction scope. A no-op without one, so
// it is safe in deferred cleanup.
func (s *Store) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tx == nil {
		return nil
	}
	err := s.tx.Rollback()
	s.tx = nil
	return err
}

const timeLayout = time.RFC3339Nano

func now() string {
	return time.Now().UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// UpsertShelf inserts a shelf or, on remote-id conflict, updates its
// mutable fields and clears the deleted flag in the same statement.
// Returns the local row id.
func (s *Store) UpsertShelf(remoteID int64, name, slug, description string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	_, err := s.h().Exec(`
		INSERT INTO shelves (bookstack_id, name, slug, description, is_deleted, synced_at)
		VALUES (?, ?, ?, ?, 0, ?)
		ON CONFLICT(bookstack_id) DO UPDATE SET
			name = excluded.name,
			slug = excluded.slug,
			description = excluded.description,
			is_deleted = 0,
			synced_at = excluded.synced_at
	`, remoteID, name, slug, description, now())
	if err != nil {
		return 0, fmt.Errorf("store: upsert shelf %d: %w", remoteID, err)
	}
	return s.localID("shelves", remoteID)
}

// UpsertBook inserts or updates a book. shelfRemoteID may be zero for
// unshelved books; a declared shelf missing from the cache is stored as
// unshelved rather than failing, since shelf grouping is optional.
func (s *Store) UpsertBook(remoteID int64, name, slug, description string, shelfRemoteID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var shelfID any
	if shelfRemoteID != 0 {
		if id, err := s.lookupLocalID("shelves", shelfRemoteID); err == nil {
			shelfID = id
		}
	}

	_, err := s.h().Exec(`
		INSERT INTO books (bookstack_id, name, slug, description, shelf_id, is_deleted, synced_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(bookstack_id) DO UPDATE SET
			name = excluded.name,
			slug = excluded.slug,
			description = excluded.description,
			shelf_id = excluded.shelf_id,
			is_deleted = 0,
			synced_at = excluded.synced_at
	`, remoteID, name, slug, description, shelfID, now())
	if err != nil {
		return 0, fmt.Errorf("store: upsert book %d: %w", remoteID, err)
	}
	return s.localID("books", remoteID)
}

// UpsertChapter inserts or updates a chapter. The parent book must
// already exist in the cache; its absence is a *ParentNotFoundError,
// signaling that callers wrote entities out of dependency order.
func (s *Store) UpsertChapter(remoteID int64, name, slug, description string, bookRemoteID int64, priority int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	bookID, err := s.lookupLocalID("books", bookRemoteID)
	if err != nil {
		return 0, &ParentNotFoundError{Kind: "chapter", ParentKind: "book", ParentRemoteID: bookRemoteID}
	}

	_, err = s.h().Exec(`
		INSERT INTO chapters (bookstack_id, name, slug, description, book_id, priority, is_deleted, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)
		ON CONFLICT(bookstack_id) DO UPDATE SET
			name = excluded.name,
			slug = excluded.slug,
			description = excluded.description,
			book_id = excluded.book_id,
			priority = excluded.priority,
			is_deleted = 0,
			synced_at = excluded.synced_at
	`, remoteID, name, slug, description, bookID, priority, now())
	if err != nil {
		return 0, fmt.Errorf("store: upsert chapter %d: %w", remoteID, err)
	}
	return s.localID("chapters", remoteID)
}

// lookupLocalID resolves an entity's local row id by remote id, deleted
// rows included. Callers must hold s.mu.
func (s *Store) lookupLocalID(table string, remoteID int64) (int64, error) {
	var id int64
	err := s.h().QueryRow(
		fmt.Sprintf("SELECT id FROM %s WHERE bookstack_id = ?", table), remoteID,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotCached
	}
	return id, err
}

func (s *Store) localID(table string, remoteID int64) (int64, error) {
	id, err := s.lookupLocalID(table, remoteID)
	if err != nil {
		return 0, fmt.Errorf("store: lookup %s %d after upsert: %w", table, remoteID, err)
	}
	return id, nil
}

// GetShelfByRemoteID returns the cached shelf with the given remote id.
func (s *Store) GetShelfByRemoteID(remoteID int64) (*Shelf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	row := s.h().QueryRow(`
		SELECT id, bookstack_id, name, slug, description, is_deleted, synced_at
		FROM shelves WHERE bookstack_id = ?
	`, remoteID)

	var sh Shelf
	var deleted int
	var syncedAt string
	if err := row.Scan(&sh.ID, &sh.RemoteID, &sh.Name, &sh.Slug, &sh.Description, &deleted, &syncedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotCached
		}
		return nil, err
	}
	sh.IsDeleted = deleted != 0
	sh.SyncedAt = parseTime(syncedAt)
	return &sh, nil
}

// GetBookByRemoteID returns the cached book with the given remote id.
func (s *Store) GetBookByRemoteID(remoteID int64) (*Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.scanBook(s.h().QueryRow(bookSelect+" WHERE b.bookstack_id = ?", remoteID))
}

// GetChapterByRemoteID returns the cached chapter with the given remote id.
func (s *Store) GetChapterByRemoteID(remoteID int64) (*Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.scanChapter(s.h().QueryRow(chapterSelect+" WHERE c.bookstack_id = ?", remoteID))
}

const bookSelect = `
	SELECT b.id, b.bookstack_id, b.name, b.slug, b.description,
	       COALESCE(sh.bookstack_id, 0), b.is_deleted, b.synced_at
	FROM books b LEFT JOIN shelves sh ON sh.id = b.shelf_id`

const chapterSelect = `
	SELECT c.id, c.bookstack_id, c.name, c.slug, c.description,
	       b.bookstack_id, c.priority, c.is_deleted, c.synced_at
	FROM chapters c JOIN books b ON b.id = c.book_id`

func (s *Store) scanBook(sc scanner) (*Book, error) {
	var b Book
	var deleted int
	var syncedAt string
	err := sc.Scan(&b.ID, &b.RemoteID, &b.Name, &b.Slug, &b.Description, &b.ShelfRemoteID, &deleted, &syncedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, err
	}
	b.IsDeleted = deleted != 0
	b.SyncedAt = parseTime(syncedAt)
	return &b, nil
}

func (s *Store) scanChapter(sc scanner) (*Chapter, error) {
	var c Chapter
	var deleted int
	var syncedAt string
	err := sc.Scan(&c.ID, &c.RemoteID, &c.Name, &c.Slug, &c.Description, &c.BookRemoteID, &c.Priority, &deleted, &syncedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, err
	}
	c.IsDeleted = deleted != 0
	c.SyncedAt = parseTime(syncedAt)
	return &c, nil
}

// scanner abstracts the Scan method shared by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ListShelves returns cached shelves, excluding soft-deleted rows unless
// includeDeleted is set.
func (s *Store) ListShelves(includeDeleted bool) ([]Shelf, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	query := `
		SELECT id, bookstack_id, name, slug, description, is_deleted, synced_at
		FROM shelves`
	if !includeDeleted {
		query += " WHERE is_deleted = 0"
	}
	query += " ORDER BY bookstack_id"

	rows, err := s.h().Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shelves []Shelf
	for rows.Next() {
		var sh Shelf
		var deleted int
		var syncedAt string
		if err := rows.Scan(&sh.ID, &sh.RemoteID, &sh.Name, &sh.Slug, &sh.Description, &deleted, &syncedAt); err != nil {
			return nil, err
		}
		sh.IsDeleted = deleted != 0
		sh.SyncedAt = parseTime(syncedAt)
		shelves = append(shelves, sh)
	}
	return shelves, rows.Err()
}

// ListBooks returns cached books, optionally filtered to one shelf.
func (s *Store) ListBooks(shelfRemoteID int64, includeDeleted bool) ([]Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	query := bookSelect
	var conds []string
	var args []any
	if shelfRemoteID != 0 {
		conds = append(conds, "sh.bookstack_id = ?")
		args = append(args, shelfRemoteID)
	}
	if !includeDeleted {
		conds = append(conds, "b.is_deleted = 0")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY b.bookstack_id"

	rows, err := s.h().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []Book
	for rows.Next() {
		b, err := s.scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, *b)
	}
	return books, rows.Err()
}

// ListChapters returns cached chapters, optionally filtered to one book.
func (s *Store) ListChapters(bookRemoteID int64, includeDeleted bool) ([]Chapter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	query := chapterSelect
	var conds []string
	var args []any
	if bookRemoteID != 0 {
		conds = append(conds, "b.bookstack_id = ?")
		args = append(args, bookRemoteID)
	}
	if !includeDeleted {
		conds = append(conds, "c.is_deleted = 0")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY c.bookstack_id"

	rows, err := s.h().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []Chapter
	for rows.Next() {
		c, err := s.scanChapter(rows)
		if err != nil {
			return nil, err
		}
		chapters = append(chapters, *c)
	}
	return chapters, rows.Err()
}

// MarkDeletedShelves soft-deletes the non-deleted shelves whose remote id
// is absent from activeRemoteIDs and returns the number of rows affected.
// An empty active set is a defensive no-op, never a mass delete.
func (s *Store) MarkDeletedShelves(activeRemoteIDs []int64) (int, error) {
	return s.markDeleted("shelves", activeRemoteIDs)
}

// MarkDeletedBooks is the book sweep; see MarkDeletedShelves.
func (s *Store) MarkDeletedBooks(activeRemoteIDs []int64) (int, error) {
	return s.markDeleted("books", activeRemoteIDs)
}

// MarkDeletedChapters is the chapter sweep; see MarkDeletedShelves.
func (s *Store) MarkDeletedChapters(activeRemoteIDs []int64) (int, error) {
	return s.markDeleted("chapters", activeRemoteIDs)
}

// MarkDeletedPages is the page sweep; see MarkDeletedShelves.
func (s *Store) MarkDeletedPages(activeRemoteIDs []int64) (int, error) {
	return s.markDeleted("pages", activeRemoteIDs)
}

func (s *Store) markDeleted(table string, active []int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	if len(active) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(active))
	args := make([]any, len(active))
	for i, id := range active {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		UPDATE %s SET is_deleted = 1
		WHERE is_deleted = 0 AND bookstack_id NOT IN (%s)
	`, table, strings.Join(placeholders, ","))

	res, err := s.h().Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("store: mark deleted %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// DeleteBook hard-deletes a book's cache row; chapters and pages cascade.
// Administrative use only; the soft-delete sweep never removes rows.
func (s *Store) DeleteBook(remoteID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	_, err := s.h().Exec("DELETE FROM books WHERE bookstack_id = ?", remoteID)
	if err != nil {
		return fmt.Errorf("store: delete book %d: %w", remoteID, err)
	}
	return nil
}

// GetMeta returns a scalar metadata value, or empty string if unset.
func (s *Store) GetMeta(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrStoreClosed
	}

	var value string
	err := s.h().QueryRow("SELECT value FROM sync_meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetMeta stores a scalar metadata value.
func (s *Store) SetMeta(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.h().Exec(`
		INSERT INTO sync_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Stats returns per-kind row counts plus the last sync timestamp.
func (s *Store) Stats() (*CacheStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	stats := &CacheStats{SchemaVersion: schemaVersion, Path: s.path}
	for table, dst := range map[string]*KindStats{
		"shelves":  &stats.Shelves,
		"books":    &stats.Books,
		"chapters": &stats.Chapters,
		"pages":    &stats.Pages,
	} {
		query := fmt.Sprintf(`
			SELECT COUNT(*), COALESCE(SUM(is_deleted), 0) FROM %s
		`, table)
		var total, deleted int
		if err := s.h().QueryRow(query).Scan(&total, &deleted); err != nil {
			return nil, err
		}
		dst.Total = total
		dst.Deleted = deleted
		dst.Active = total - deleted
	}

	var lastSync sql.NullString
	_ = s.h().QueryRow("SELECT value FROM sync_meta WHERE key = 'last_sync'").Scan(&lastSync)
	if lastSync.Valid {
		stats.LastSync = parseTime(lastSync.String)
	}

	return stats, nil
}
