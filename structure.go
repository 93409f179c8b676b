package stackmd

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// RefreshOptions selects which entity kinds a structure refresh covers.
// Skipping a parent kind is tolerated: children whose parent is missing
// from the cache are counted as skipped, not failed.
type RefreshOptions struct {
	SkipShelves  bool
	SkipBooks    bool
	SkipChapters bool
	SkipPages    bool
}

// RefreshStructure rebuilds the cache from the remote hierarchy,
// independent of push/pull. Kinds are processed in dependency order
// (shelves, books, chapters, pages) and every kind ends with a
// mark-deleted sweep so cache rows absent from the fresh listing are
// soft-deleted. The whole refresh runs in a single cache transaction;
// any unexpected failure rolls the cache back to its prior state.
func (e *Engine) RefreshStructure(ctx context.Context, opts RefreshOptions) (*RefreshResult, error) {
	if err := e.requireClient(); err != nil {
		return nil, err
	}

	if err := e.store.Begin(); err != nil {
		return nil, err
	}
	defer e.store.Rollback()

	res := &RefreshResult{}

	if !opts.SkipShelves {
		shelves, err := e.client.ListShelves(ctx)
		if err != nil {
			return nil, err
		}
		active := make([]int64, 0, len(shelves))
		for _, sh := range shelves {
			if _, err := e.store.UpsertShelf(sh.RemoteID, sh.Name, sh.Slug, sh.Description); err != nil {
				return nil, err
			}
			active = append(active, sh.RemoteID)
			res.Shelves.Synced++
		}
		res.Shelves.Deleted, err = e.store.MarkDeletedShelves(active)
		if err != nil {
			return nil, err
		}
	}

	if !opts.SkipBooks {
		books, err := e.client.ListBooks(ctx)
		if err != nil {
			return nil, err
		}
		active := make([]int64, 0, len(books))
		for _, b := range books {
			if _, err := e.store.UpsertBook(b.RemoteID, b.Name, b.Slug, b.Description, b.ShelfRemoteID); err != nil {
				return nil, err
			}
			active = append(active, b.RemoteID)
			res.Books.Synced++
		}
		res.Books.Deleted, err = e.store.MarkDeletedBooks(active)
		if err != nil {
			return nil, err
		}
	}

	if !opts.SkipChapters {
		chapters, err := e.client.ListChapters(ctx)
		if err != nil {
			return nil, err
		}
		active := make([]int64, 0, len(chapters))
		for _, c := range chapters {
			_, err := e.store.UpsertChapter(c.RemoteID, c.Name, c.Slug, c.Description, c.BookRemoteID, c.Priority)
			if isParentNotFound(err) {
				res.Chapters.Skipped++
				continue
			}
			if err != nil {
				return nil, err
			}
			active = append(active, c.RemoteID)
			res.Chapters.Synced++
		}
		res.Chapters.Deleted, err = e.store.MarkDeletedChapters(active)
		if err != nil {
			return nil, err
		}
	}

	if !opts.SkipPages {
		pages, err := e.client.ListPages(ctx)
		if err != nil {
			return nil, err
		}
		active := make([]int64, 0, len(pages))
		for i := range pages {
			_, err := e.store.UpsertPage(&pages[i])
			if isParentNotFound(err) {
				res.Pages.Skipped++
				continue
			}
			if err != nil {
				return nil, err
			}
			active = append(active, pages[i].RemoteID)
			res.Pages.Synced++
		}
		res.Pages.Deleted, err = e.store.MarkDeletedPages(active)
		if err != nil {
			return nil, err
		}
	}

	if err := e.store.SetMeta("last_sync", time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, err
	}

	if err := e.store.Commit(); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return res, nil
}

func isParentNotFound(err error) bool {
	var pnf *ParentNotFoundError
	return errors.As(err, &pnf)
}
