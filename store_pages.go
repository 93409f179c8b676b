package stackmd

import (
	"database/sql"
	"fmt"
	"strings"
)

const pageSelect = `
	SELECT p.id, p.bookstack_id, p.name, p.slug,
	       b.bookstack_id, COALESCE(c.bookstack_id, 0), p.priority,
	       p.is_deleted, p.synced_at,
	       COALESCE(p.local_path, ''), COALESCE(p.content_hash, ''),
	       COALESCE(p.remote_updated_at, '')
	FROM pages p
	JOIN books b ON b.id = p.book_id
	LEFT JOIN chapters c ON c.id = p.chapter_id`

// UpsertPage inserts a page or, on remote-id conflict, updates its mutable
// fields and clears the deleted flag. local_path and content_hash are
// preserved on update; they change only through the targeted setters.
// The parent book (and chapter, when declared) must already be cached.
func (s *Store) UpsertPage(page *Page) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	bookID, err := s.lookupLocalID("books", page.BookRemoteID)
	if err != nil {
		return 0, &ParentNotFoundError{Kind: "page", ParentKind: "book", ParentRemoteID: page.BookRemoteID}
	}

	var chapterID any
	if page.ChapterRemoteID != 0 {
		id, err := s.lookupLocalID("chapters", page.ChapterRemoteID)
		if err != nil {
			return 0, &ParentNotFoundError{Kind: "page", ParentKind: "chapter", ParentRemoteID: page.ChapterRemoteID}
		}
		chapterID = id
	}

	var remoteUpdated any
	if !page.RemoteUpdatedAt.IsZero() {
		remoteUpdated = page.RemoteUpdatedAt.UTC().Format(timeLayout)
	}

	_, err = s.h().Exec(`
		INSERT INTO pages (bookstack_id, name, slug, book_id, chapter_id, priority, is_deleted, synced_at, remote_updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(bookstack_id) DO UPDATE SET
			name = excluded.name,
			slug = excluded.slug,
			book_id = excluded.book_id,
			chapter_id = excluded.chapter_id,
			priority = excluded.priority,
			is_deleted = 0,
			synced_at = excluded.synced_at,
			remote_updated_at = excluded.remote_updated_at
	`, page.RemoteID, page.Name, page.Slug, bookID, chapterID, page.Priority, now(), remoteUpdated)
	if err != nil {
		return 0, fmt.Errorf("store: upsert page %d: %w", page.RemoteID, err)
	}
	return s.localID("pages", page.RemoteID)
}

// GetPageByRemoteID returns the cached page with the given remote id.
func (s *Store) GetPageByRemoteID(remoteID int64) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.scanPage(s.h().QueryRow(pageSelect+" WHERE p.bookstack_id = ?", remoteID))
}

// GetPageByLocalPath returns the non-deleted page bound to the given
// local file path.
func (s *Store) GetPageByLocalPath(path string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	return s.scanPage(s.h().QueryRow(
		pageSelect+" WHERE p.local_path = ? AND p.is_deleted = 0", path,
	))
}

// ListPages returns cached pages, optionally filtered to one book.
func (s *Store) ListPages(bookRemoteID int64, includeDeleted bool) ([]Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	query := pageSelect
	var conds []string
	var args []any
	if bookRemoteID != 0 {
		conds = append(conds, "b.bookstack_id = ?")
		args = append(args, bookRemoteID)
	}
	if !includeDeleted {
		conds = append(conds, "p.is_deleted = 0")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY p.bookstack_id"

	rows, err := s.h().Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []Page
	for rows.Next() {
		p, err := s.scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// UpdatePageLocalPath binds a page row to a local file. Any other live
// row holding the same path is unbound first, keeping the one-file,
// one-page invariant.
func (s *Store) UpdatePageLocalPath(remoteID int64, localPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if _, err := s.h().Exec(`
		UPDATE pages SET local_path = NULL
		WHERE local_path = ? AND bookstack_id != ?
	`, localPath, remoteID); err != nil {
		return fmt.Errorf("store: unbind local path: %w", err)
	}

	res, err := s.h().Exec(`
		UPDATE pages SET local_path = ? WHERE bookstack_id = ?
	`, localPath, remoteID)
	if err != nil {
		return fmt.Errorf("store: update page %d local path: %w", remoteID, err)
	}
	return requireRow(res, remoteID)
}

// UpdatePageContentHash records the fingerprint of the last-synced
// content for a page.
func (s *Store) UpdatePageContentHash(remoteID int64, contentHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	res, err := s.h().Exec(`
		UPDATE pages SET content_hash = ? WHERE bookstack_id = ?
	`, contentHash, remoteID)
	if err != nil {
		return fmt.Errorf("store: update page %d content hash: %w", remoteID, err)
	}
	return requireRow(res, remoteID)
}

func requireRow(res sql.Result, remoteID int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("store: page %d: %w", remoteID, ErrNotCached)
	}
	return nil
}

func (s *Store) scanPage(sc scanner) (*Page, error) {
	var p Page
	var deleted int
	var syncedAt, remoteUpdated string
	err := sc.Scan(
		&p.ID, &p.RemoteID, &p.Name, &p.Slug,
		&p.BookRemoteID, &p.ChapterRemoteID, &p.Priority,
		&deleted, &syncedAt,
		&p.LocalPath, &p.ContentHash, &remoteUpdated,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotCached
	}
	if err != nil {
		return nil, err
	}
	p.IsDeleted = deleted != 0
	p.SyncedAt = parseTime(syncedAt)
	p.RemoteUpdatedAt = parseTime(remoteUpdated)
	return &p, nil
}
