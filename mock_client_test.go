package stackmd

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

// newTestStore opens a store in a temp directory, cleaned up with the test.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// mockClient implements Client for testing.
type mockClient struct {
	listShelvesFn   func(ctx context.Context) ([]Shelf, error)
	listBooksFn     func(ctx context.Context) ([]Book, error)
	listChaptersFn  func(ctx context.Context) ([]Chapter, error)
	listPagesFn     func(ctx context.Context) ([]Page, error)
	getBookFn       func(ctx context.Context, id int64) (*Book, error)
	getPageFn       func(ctx context.Context, id int64) (*Page, error)
	createChapterFn func(ctx context.Context, req *ChapterCreate) (*Chapter, error)
	createPageFn    func(ctx context.Context, req *PageCreate) (*Page, error)
	updatePageFn    func(ctx context.Context, id int64, req *PageUpdate) (*Page, error)
	deletePageFn    func(ctx context.Context, id int64) error
	exportPageFn    func(ctx context.Context, id int64, format ExportFormat) ([]byte, error)
	searchFn        func(ctx context.Context, query string, page, count int) ([]SearchResult, error)
}

func (m *mockClient) ListShelves(ctx context.Context) ([]Shelf, error) {
	if m.listShelvesFn != nil {
		return m.listShelvesFn(ctx)
	}
	return nil, nil
}

func (m *mockClient) ListBooks(ctx context.Context) ([]Book, error) {
	if m.listBooksFn != nil {
		return m.listBooksFn(ctx)
	}
	return nil, nil
}

func (m *mockClient) ListChapters(ctx context.Context) ([]Chapter, error) {
	if m.listChaptersFn != nil {
		return m.listChaptersFn(ctx)
	}
	return nil, nil
}

func (m *mockClient) ListPages(ctx context.Context) ([]Page, error) {
	if m.listPagesFn != nil {
		return m.listPagesFn(ctx)
	}
	return nil, nil
}

func (m *mockClient) GetBook(ctx context.Context, id int64) (*Book, error) {
	if m.getBookFn != nil {
		return m.getBookFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockClient) GetPage(ctx context.Context, id int64) (*Page, error) {
	if m.getPageFn != nil {
		return m.getPageFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

func (m *mockClient) CreateChapter(ctx context.Context, req *ChapterCreate) (*Chapter, error) {
	if m.createChapterFn != nil {
		return m.createChapterFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockClient) CreatePage(ctx context.Context, req *PageCreate) (*Page, error) {
	if m.createPageFn != nil {
		return m.createPageFn(ctx, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockClient) UpdatePage(ctx context.Context, id int64, req *PageUpdate) (*Page, error) {
	if m.updatePageFn != nil {
		return m.updatePageFn(ctx, id, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockClient) DeletePage(ctx context.Context, id int64) error {
	if m.deletePageFn != nil {
		return m.deletePageFn(ctx, id)
	}
	return errors.New("not implemented")
}

func (m *mockClient) ExportPage(ctx context.Context, id int64, format ExportFormat) ([]byte, error) {
	if m.exportPageFn != nil {
		return m.exportPageFn(ctx, id, format)
	}
	return nil, errors.New("not implemented")
}

func (m *mockClient) Search(ctx context.Context, query string, page, count int) ([]SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, query, page, count)
	}
	return nil, nil
}
