package stackmd

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// PushOptions configures a push run.
type PushOptions struct {
	// DryRun performs every read/resolve/decide step and increments the
	// same counters, but suppresses every remote-mutating call and every
	// cache write.
	DryRun bool
}

// SyncDirectory pushes all Markdown files under localPath into the
// remote book with the given id.
//
// The full remote page listing for the book is fetched once, not per
// file. Each file is then processed independently; a failure while
// handling one file is recorded in the result's Errors and does not
// abort the run. An unresolvable localPath or target book aborts the
// whole run.
func (e *Engine) SyncDirectory(ctx context.Context, localPath string, bookID int64, opts PushOptions) (*PushResult, error) {
	if err := e.requireClient(); err != nil {
		return nil, err
	}

	root, err := filepath.Abs(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLocalPathNotFound, localPath)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
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
	candidates := filterPagesByBook(allPages, bookID)

	allChapters, err := e.client.ListChapters(ctx)
	if err != nil {
		return nil, err
	}
	chapters := filterChaptersByBook(allChapters, bookID)

	if !opts.DryRun {
		// Pipelines keep the cache self-sufficient: the target book row
		// must exist before page rows can reference it.
		if _, err := e.store.UpsertBook(book.RemoteID, book.Name, book.Slug, book.Description, book.ShelfRemoteID); err != nil {
			return nil, err
		}
	}

	files, err := listMarkdownFiles(root)
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", localPath, err)
	}

	res := &PushResult{}
	log := NewConflictLog()
	for _, file := range files {
		if err := e.pushFile(ctx, file, book, candidates, &chapters, log, opts, res); err != nil {
			res.Errors = append(res.Errors, itemError(displayPath(root, file), err))
		}
	}
	res.Conflicts = log.Records()
	return res, nil
}

func (e *Engine) pushFile(ctx context.Context, path string, book *Book, candidates []Page, chapters *[]Chapter, log *ConflictLog, opts PushOptions, res *PushResult) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	fm, body, err := SplitFrontMatter(raw)
	if err != nil {
		return err
	}

	name := fm.DisplayName()
	if name == "" {
		name = DisplayNameFromPath(path)
	}

	content := EncodeAnchors(string(body))
	doc := &Document{
		Path: path,
		Name: name,
		Hash: Fingerprint([]byte(content)),
	}
	if fm != nil {
		doc.RemoteID = fm.BookstackID
	}

	match, err := ResolveDocument(doc, candidates, e.store)
	if err != nil {
		return err
	}

	switch {
	case match.Unchanged:
		res.Skipped++
		return nil

	case match.Page != nil:
		return e.pushUpdate(ctx, doc, match.Page, name, content, info.ModTime(), log, opts, res)

	default:
		var chapterID int64
		if fm != nil && fm.Chapter != "" {
			chapterID, err = e.ensureChapter(ctx, book, fm.Chapter, chapters, opts)
			if err != nil {
				return err
			}
		}
		if !opts.DryRun {
			page, err := e.client.CreatePage(ctx, &PageCreate{
				BookID:    book.RemoteID,
				ChapterID: chapterID,
				Name:      name,
				Markdown:  content,
			})
			if err != nil {
				return err
			}
			if err := e.cacheBinding(page, *chapters, doc); err != nil {
				return err
			}
		}
		res.Created++
		return nil
	}
}

func (e *Engine) pushUpdate(ctx context.Context, doc *Document, remote *Page, name, content string, localModified time.Time, log *ConflictLog, opts PushOptions, res *PushResult) error {
	decision := ResolveConflict(e.strategy, remote, localModified)
	if decision.Winner != WinnerLocal {
		res.Skipped++
		if e.strategy == StrategyManual {
			log.Add(remote, doc.Path, decision.Reason)
		}
		return nil
	}

	if !opts.DryRun {
		updated, err := e.client.UpdatePage(ctx, remote.RemoteID, &PageUpdate{Name: name, Markdown: content})
		if err != nil {
			return err
		}
		if err := e.cacheBinding(updated, nil, doc); err != nil {
			return err
		}
	}
	res.Updated++
	return nil
}

// ensureChapter finds a chapter by name among the book's chapters,
// case-insensitively, creating it remotely when absent. Dry runs never
// create; the page is then classified as if unchaptered.
func (e *Engine) ensureChapter(ctx context.Context, book *Book, name string, chapters *[]Chapter, opts PushOptions) (int64, error) {
	for _, c := range *chapters {
		if strings.EqualFold(c.Name, name) {
			return c.RemoteID, nil
		}
	}
	if opts.DryRun {
		return 0, nil
	}

	created, err := e.client.CreateChapter(ctx, &ChapterCreate{BookID: book.RemoteID, Name: name})
	if err != nil {
		return 0, err
	}
	*chapters = append(*chapters, *created)
	return created.RemoteID, nil
}

// cacheBinding persists the result of a successful remote create/update:
// the page row itself plus its local path and content fingerprint. The
// page's chapter is cached first when it has one.
func (e *Engine) cacheBinding(page *Page, chapters []Chapter, doc *Document) error {
	if page.ChapterRemoteID != 0 {
		for _, c := range chapters {
			if c.RemoteID == page.ChapterRemoteID {
				if _, err := e.store.UpsertChapter(c.RemoteID, c.Name, c.Slug, c.Description, c.BookRemoteID, c.Priority); err != nil {
					return err
				}
				break
			}
		}
		// Unchaptered in cache when the chapter row is unknown; the next
		// structure refresh repairs the linkage.
		if _, err := e.store.GetChapterByRemoteID(page.ChapterRemoteID); err != nil {
			page = clonePageWithoutChapter(page)
		}
	}

	if _, err := e.store.UpsertPage(page); err != nil {
		return err
	}
	if err := e.store.UpdatePageLocalPath(page.RemoteID, doc.Path); err != nil {
		return err
	}
	return e.store.UpdatePageContentHash(page.RemoteID, doc.Hash)
}

func clonePageWithoutChapter(page *Page) *Page {
	p := *page
	p.ChapterRemoteID = 0
	return &p
}

func filterPagesByBook(pages []Page, bookID int64) []Page {
	var out []Page
	for _, p := range pages {
		if p.BookRemoteID == bookID {
			out = append(out, p)
		}
	}
	return out
}

func filterChaptersByBook(chapters []Chapter, bookID int64) []Chapter {
	var out []Chapter
	for _, c := range chapters {
		if c.BookRemoteID == bookID {
			out = append(out, c)
		}
	}
	return out
}

// listMarkdownFiles enumerates all Markdown files under root recursively,
// skipping hidden directories, in deterministic order.
func listMarkdownFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".md") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func displayPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
