package api

import (
	"testing"
	"time"
)

func TestIntFieldShapes(t *testing.T) {
	tests := []struct {
		name string
		m    map[string]any
		want int64
	}{
		{"json number", map[string]any{"id": float64(42)}, 42},
		{"numeric string", map[string]any{"id": "42"}, 42},
		{"reference object", map[string]any{"id": map[string]any{"id": float64(42)}}, 42},
		{"absent", map[string]any{}, 0},
		{"null", map[string]any{"id": nil}, 0},
		{"garbage string", map[string]any{"id": "abc"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := intField(tt.m, "id"); got != tt.want {
				t.Errorf("intField() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIntFieldKeyFallback(t *testing.T) {
	m := map[string]any{"bookshelf_id": float64(7)}
	if got := intField(m, "shelf_id", "bookshelf_id"); got != 7 {
		t.Errorf("intField() = %d, want fallback key", got)
	}
}

func TestTimeFieldFormats(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-01T12:30:00Z", time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)},
		{"2026-03-01 12:30:00", time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got := timeField(map[string]any{"updated_at": tt.in}, "updated_at")
		if !got.Equal(tt.want) {
			t.Errorf("timeField(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if !timeField(map[string]any{}, "updated_at").IsZero() {
		t.Error("absent timestamp should be zero")
	}
}

func TestNormalizePage(t *testing.T) {
	m := map[string]any{
		"id":         float64(40),
		"name":       "Intro",
		"slug":       "intro",
		"book_id":    float64(10),
		"chapter_id": float64(30),
		"updated_at": "2026-03-01T12:30:00Z",
	}
	page := normalizePage(m)
	if page.RemoteID != 40 || page.BookRemoteID != 10 || page.ChapterRemoteID != 30 {
		t.Errorf("page = %+v", page)
	}
	if page.RemoteUpdatedAt.IsZero() {
		t.Error("RemoteUpdatedAt not parsed")
	}
}

func TestNormalizeSearchResultPreview(t *testing.T) {
	m := map[string]any{
		"id":   float64(5),
		"type": "page",
		"name": "Install",
		"preview_html": map[string]any{
			"content": "…matched <strong>install</strong> steps…",
		},
	}
	r := normalizeSearchResult(m)
	if r.ID != 5 || r.Preview == "" {
		t.Errorf("result = %+v", r)
	}
}
