package stackmd

import "time"

// Shelf is an optional top-level grouping of books.
type Shelf struct {
	ID          int64     `json:"id"`
	RemoteID    int64     `json:"bookstack_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug,omitempty"`
	Description string    `json:"description,omitempty"`
	IsDeleted   bool      `json:"is_deleted"`
	SyncedAt    time.Time `json:"synced_at"`
}

// Book is the unit a sync run targets. Chapters and pages always belong
// to exactly one book.
type Book struct {
	ID            int64     `json:"id"`
	RemoteID      int64     `json:"bookstack_id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug,omitempty"`
	Description   string    `json:"description,omitempty"`
	ShelfRemoteID int64     `json:"shelf_bookstack_id,omitempty"`
	IsDeleted     bool      `json:"is_deleted"`
	SyncedAt      time.Time `json:"synced_at"`
}

// Chapter groups pages inside a book.
type Chapter struct {
	ID           int64     `json:"id"`
	RemoteID     int64     `json:"bookstack_id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug,omitempty"`
	Description  string    `json:"description,omitempty"`
	BookRemoteID int64     `json:"book_bookstack_id"`
	Priority     int       `json:"priority,omitempty"`
	IsDeleted    bool      `json:"is_deleted"`
	SyncedAt     time.Time `json:"synced_at"`
}

// Page is a wiki page plus its local sync state. ChapterRemoteID is zero
// for pages that sit directly under their book. LocalPath, ContentHash and
// RemoteUpdatedAt are cache-only fields; remote listings leave them empty.
type Page struct {
	ID              int64     `json:"id"`
	RemoteID        int64     `json:"bookstack_id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug,omitempty"`
	BookRemoteID    int64     `json:"book_bookstack_id"`
	ChapterRemoteID int64     `json:"chapter_bookstack_id,omitempty"`
	Priority        int       `json:"priority,omitempty"`
	IsDeleted       bool      `json:"is_deleted"`
	SyncedAt        time.Time `json:"synced_at"`
	LocalPath       string    `json:"local_path,omitempty"`
	ContentHash     string    `json:"content_hash,omitempty"`
	RemoteUpdatedAt time.Time `json:"remote_updated_at,omitempty"`
}

// Strategy selects how a local/remote pairing is reconciled.
type Strategy string

const (
	// StrategyLocalWins always overwrites the remote page.
	StrategyLocalWins Strategy = "local-wins"
	// StrategyRemoteWins never overwrites; local changes are skipped.
	StrategyRemoteWins Strategy = "remote-wins"
	// StrategyNewestWins compares timestamps; ties favor the remote side.
	StrategyNewestWins Strategy = "newest-wins"
	// StrategyManual skips every matched page and records a conflict
	// for human resolution.
	StrategyManual Strategy = "manual"
)

// ValidStrategies returns all valid conflict strategies.
func ValidStrategies() []Strategy {
	return []Strategy{
		StrategyLocalWins,
		StrategyRemoteWins,
		StrategyNewestWins,
		StrategyManual,
	}
}

// IsValid checks if the strategy is a valid conflict strategy.
func (s Strategy) IsValid() bool {
	for _, valid := range ValidStrategies() {
		if s == valid {
			return true
		}
	}
	return false
}

// ExportFormat enumerates the formats a page can be exported in.
// Only FormatMarkdown participates in the anchor transform.
type ExportFormat string

const (
	FormatMarkdown  ExportFormat = "markdown"
	FormatHTML      ExportFormat = "html"
	FormatPlainText ExportFormat = "plaintext"
	FormatPDF       ExportFormat = "pdf"
	FormatZip       ExportFormat = "zip"
)

// ValidFormats returns all valid export formats.
func ValidFormats() []ExportFormat {
	return []ExportFormat{FormatMarkdown, FormatHTML, FormatPlainText, FormatPDF, FormatZip}
}

// IsValid checks if the format is a valid export format.
func (f ExportFormat) IsValid() bool {
	for _, valid := range ValidFormats() {
		if f == valid {
			return true
		}
	}
	return false
}

// PushResult summarizes one directory push.
type PushResult struct {
	Created   int              `json:"created"`
	Updated   int              `json:"updated"`
	Deleted   int              `json:"deleted"`
	Skipped   int              `json:"skipped"`
	Errors    []string         `json:"errors,omitempty"`
	Conflicts []ConflictRecord `json:"conflicts,omitempty"`
}

// PullResult summarizes one book pull.
type PullResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// KindResult holds structure-refresh counters for one entity kind.
type KindResult struct {
	Synced  int `json:"synced"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped,omitempty"`
}

// RefreshResult summarizes one structure refresh.
type RefreshResult struct {
	Shelves  KindResult `json:"shelves"`
	Books    KindResult `json:"books"`
	Chapters KindResult `json:"chapters"`
	Pages    KindResult `json:"pages"`
}

// ConflictRecord describes a pairing that requires human resolution.
// Records are produced only under StrategyManual.
type ConflictRecord struct {
	RunID        string `json:"run_id"`
	PageRemoteID int64  `json:"page_bookstack_id"`
	LocalPath    string `json:"local_path"`
	Name         string `json:"name"`
	Reason       string `json:"reason"`
}

// KindStats holds per-kind cache row counts.
type KindStats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Deleted int `json:"deleted"`
}

// CacheStats reports the state of the local cache.
type CacheStats struct {
	Shelves       KindStats `json:"shelves"`
	Books         KindStats `json:"books"`
	Chapters      KindStats `json:"chapters"`
	Pages         KindStats `json:"pages"`
	LastSync      time.Time `json:"last_sync,omitempty"`
	SchemaVersion string    `json:"schema_version"`
	Path          string    `json:"path"`
}

// SearchResult is one hit from the remote search endpoint.
type SearchResult struct {
	Type    string `json:"type"`
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	Preview string `json:"preview,omitempty"`
}
