package api

import (
	"strconv"
	"time"

	"github.com/stackmd/stackmd"
)

// The API's response shapes drift across BookStack versions: reference
// fields are sometimes bare ids and sometimes expanded objects, numbers
// arrive as JSON floats or strings, and optional fields are simply
// absent. Each entity kind gets one normalization function that accepts
// the raw key-value map and produces a strictly-typed record, defaulting
// absent fields to their zero value instead of failing.

func normalizeShelf(m map[string]any) stackmd.Shelf {
	return stackmd.Shelf{
		RemoteID:    intField(m, "id"),
		Name:        strField(m, "name"),
		Slug:        strField(m, "slug"),
		Description: strField(m, "description"),
	}
}

func normalizeBook(m map[string]any) stackmd.Book {
	return stackmd.Book{
		RemoteID:      intField(m, "id"),
		Name:          strField(m, "name"),
		Slug:          strField(m, "slug"),
		Description:   strField(m, "description"),
		ShelfRemoteID: intField(m, "shelf_id", "bookshelf_id"),
	}
}

func normalizeChapter(m map[string]any) stackmd.Chapter {
	return stackmd.Chapter{
		RemoteID:     intField(m, "id"),
		Name:         strField(m, "name"),
		Slug:         strField(m, "slug"),
		Description:  strField(m, "description"),
		BookRemoteID: intField(m, "book_id"),
		Priority:     int(intField(m, "priority")),
	}
}

func normalizePage(m map[string]any) stackmd.Page {
	return stackmd.Page{
		RemoteID:        intField(m, "id"),
		Name:            strField(m, "name"),
		Slug:            strField(m, "slug"),
		BookRemoteID:    intField(m, "book_id"),
		ChapterRemoteID: intField(m, "chapter_id"),
		Priority:        int(intField(m, "priority")),
		RemoteUpdatedAt: timeField(m, "updated_at"),
	}
}

func normalizeSearchResult(m map[string]any) stackmd.SearchResult {
	result := stackmd.SearchResult{
		Type: strField(m, "type"),
		ID:   intField(m, "id"),
		Name: strField(m, "name"),
		URL:  strField(m, "url"),
	}
	if preview, ok := m["preview_html"].(map[string]any); ok {
		result.Preview = strField(preview, "content")
	}
	return result
}

// intField returns the first present key as an int64. Accepts JSON
// numbers, numeric strings, and reference objects carrying an "id",
// e.g. an owner that is sometimes a bare id and sometimes an object.
func intField(m map[string]any, keys ...string) int64 {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n)
		case int64:
			return n
		case int:
			return int64(n)
		case string:
			if parsed, err := strconv.ParseInt(n, 10, 64); err == nil {
				return parsed
			}
		case map[string]any:
			return intField(n, "id")
		}
	}
	return 0
}

func strField(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok {
			return s
		}
	}
	return ""
}

// timeField parses a timestamp in the formats the API emits.
func timeField(m map[string]any, keys ...string) time.Time {
	for _, key := range keys {
		s, ok := m[key].(string)
		if !ok || s == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
