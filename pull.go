package stackmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PullOptions configures a pull run.
type PullOptions struct {
	// DryRun performs every fetch/decide step and increments the same
	// counters, but writes no files and no cache rows.
	DryRun bool
}

// SyncBookToDirectory pulls every page of the remote book with the given
// id into localPath, preserving chapter hierarchy as subdirectories.
//
// A missing book aborts the run. Each page is processed independently;
// a failure while handling one page is recorded in the result's Errors
// and does not abort the run. Pages whose exported content fingerprint
// matches the cache are skipped as unchanged.
func (e *Engine) SyncBookToDirectory(ctx context.Context, bookID int64, localPath string, opts PullOptions) (*PullResult, error) {
	if err := e.requireClient(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLocalPathNotFound, localPath)
	}

	book, err := e.client.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}

	allPages, err := e.client.ListPages(ctx)
	if err != nil {
		return nil, err
	}
	pages := filterPagesByBook(allPages, bookID)

	allChapters, err := e.client.ListChapters(ctx)
	if err != nil {
		return nil, err
	}
	chapters := filterChaptersByBook(allChapters, bookID)
	chaptersByID := make(map[int64]Chapter, len(chapters))
	for _, c := range chapters {
		chaptersByID[c.RemoteID] = c
	}

	if !opts.DryRun {
		if err := os.MkdirAll(root, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", localPath, err)
		}
		if _, err := e.store.UpsertBook(book.RemoteID, book.Name, book.Slug, book.Description, book.ShelfRemoteID); err != nil {
			return nil, err
		}
	}

	res := &PullResult{}
	for i := range pages {
		page := &pages[i]
		if page.RemoteID == 0 {
			// Defensive: a well-formed API never lists such a page.
			continue
		}
		if err := e.pullPage(ctx, page, root, chaptersByID, opts, res); err != nil {
			res.Errors = append(res.Errors, itemError(fmt.Sprintf("page %d (%s)", page.RemoteID, page.Slug), err))
		}
	}
	return res, nil
}

func (e *Engine) pullPage(ctx context.Context, page *Page, root string, chapters map[int64]Chapter, opts PullOptions, res *PullResult) error {
	target := filepath.Join(root, pageFileName(page, chapters))

	exported, err := e.client.ExportPage(ctx, page.RemoteID, FormatMarkdown)
	if err != nil {
		return err
	}

	// Fingerprints always cover the wire form; the decoded body on disk
	// re-encodes to exactly this content.
	hash := Fingerprint(exported)

	cached, err := e.store.GetPageByRemoteID(page.RemoteID)
	if err != nil && !errors.Is(err, ErrNotCached) {
		return err
	}
	if cached != nil && !cached.IsDeleted && cached.ContentHash == hash {
		res.Skipped++
		return nil
	}

	body := DecodeAnchors(string(exported))
	content := append(RenderFrontMatter(page.Name, page.RemoteID, page.ChapterRemoteID), body...)

	_, statErr := os.Stat(target)
	existed := statErr == nil

	if !opts.DryRun {
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(target, content, 0644); err != nil {
			return err
		}
		if err := e.cachePulledPage(page, chapters, target, hash); err != nil {
			return err
		}
	}

	if existed {
		res.Updated++
	} else {
		res.Created++
	}
	return nil
}

func (e *Engine) cachePulledPage(page *Page, chapters map[int64]Chapter, target, hash string) error {
	stored := page
	if page.ChapterRemoteID != 0 {
		if c, ok := chapters[page.ChapterRemoteID]; ok {
			if _, err := e.store.UpsertChapter(c.RemoteID, c.Name, c.Slug, c.Description, c.BookRemoteID, c.Priority); err != nil {
				return err
			}
		} else {
			stored = clonePageWithoutChapter(page)
		}
	}
	if _, err := e.store.UpsertPage(stored); err != nil {
		return err
	}
	if err := e.store.UpdatePageLocalPath(page.RemoteID, target); err != nil {
		return err
	}
	return e.store.UpdatePageContentHash(page.RemoteID, hash)
}

// pageFileName computes a page's on-disk location relative to the pull
// root: a chapter-slug subdirectory when chaptered, then the page slug.
func pageFileName(page *Page, chapters map[int64]Chapter) string {
	name := page.Slug
	if name == "" {
		name = fmt.Sprintf("page-%d", page.RemoteID)
	}
	name += ".md"

	if page.ChapterRemoteID != 0 {
		if c, ok := chapters[page.ChapterRemoteID]; ok && c.Slug != "" {
			return filepath.Join(c.Slug, name)
		}
	}
	return name
}
