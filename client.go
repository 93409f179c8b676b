package stackmd

import "context"

// Client abstracts HTTP communication with the BookStack API.
// Implementations must be safe for concurrent use. The list methods page
// through the remote listing internally and return the complete set.
//
// Failed calls return *RequestError classified by kind (auth, not-found,
// validation, rate-limit, server, connection). The engine treats these as
// fatal except inside the per-item loops of push and pull.
type Client interface {
	// ListShelves returns all shelves.
	ListShelves(ctx context.Context) ([]Shelf, error)

	// ListBooks returns all books.
	ListBooks(ctx context.Context) ([]Book, error)

	// ListChapters returns all chapters.
	ListChapters(ctx context.Context) ([]Chapter, error)

	// ListPages returns all pages.
	ListPages(ctx context.Context) ([]Page, error)

	// GetBook returns a single book by remote id.
	GetBook(ctx context.Context, id int64) (*Book, error)

	// GetPage returns a single page by remote id.
	GetPage(ctx context.Context, id int64) (*Page, error)

	// CreateChapter creates a chapter inside a book.
	CreateChapter(ctx context.Context, req *ChapterCreate) (*Chapter, error)

	// CreatePage creates a page inside a book (and chapter, if set).
	CreatePage(ctx context.Context, req *PageCreate) (*Page, error)

	// UpdatePage overwrites a page's name and markdown content.
	UpdatePage(ctx context.Context, id int64, req *PageUpdate) (*Page, error)

	// DeletePage deletes a remote page.
	DeletePage(ctx context.Context, id int64) error

	// ExportPage exports a page's content in the given format.
	ExportPage(ctx context.Context, id int64, format ExportFormat) ([]byte, error)

	// Search runs a remote full-text search.
	Search(ctx context.Context, query string, page, count int) ([]SearchResult, error)
}

// ChapterCreate holds the fields for a chapter create call.
type ChapterCreate struct {
	BookID      int64  `json:"book_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PageCreate holds the fields for a page create call. ChapterID zero
// places the page directly under the book.
type PageCreate struct {
	BookID    int64  `json:"book_id"`
	ChapterID int64  `json:"chapter_id,omitempty"`
	Name      string `json:"name"`
	Markdown  string `json:"markdown"`
}

// PageUpdate holds the fields for a page update call.
type PageUpdate struct {
	Name     string `json:"name,omitempty"`
	Markdown string `json:"markdown"`
}
