package stackmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestSplitFrontMatter(t *testing.T) {
	raw := []byte("---\ntitle: Getting Started\nbookstack_id: 42\nchapter: Setup\n---\n\n# Heading\n\nBody.\n")

	fm, body, err := SplitFrontMatter(raw)
	if err != nil {
		t.Fatalf("SplitFrontMatter() error = %v", err)
	}
	if fm == nil {
		t.Fatal("fm is nil")
	}
	if fm.Title != "Getting Started" {
		t.Errorf("Title = %q", fm.Title)
	}
	if fm.BookstackID != 42 {
		t.Errorf("BookstackID = %d", fm.BookstackID)
	}
	if fm.Chapter != "Setup" {
		t.Errorf("Chapter = %q", fm.Chapter)
	}
	if want := "# Heading\n\nBody.\n"; string(body) != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestSplitFrontMatterBodyRoundTrip(t *testing.T) {
	body := "Welcome. See [usage](#bkmrk-usage) for more.\n"
	raw := append(RenderFrontMatter("Intro", 40, 0), body...)

	fm, got, err := SplitFrontMatter(raw)
	if err != nil {
		t.Fatalf("SplitFrontMatter() error = %v", err)
	}
	if fm == nil || fm.BookstackID != 40 {
		t.Fatalf("fm = %+v", fm)
	}
	if string(got) != body {
		t.Errorf("body = %q, want %q", got, body)
	}
}

func TestSplitFrontMatterKeepsSecondBlankLine(t *testing.T) {
	raw := []byte("---\ntitle: X\n---\n\n\nBody.\n")
	_, body, err := SplitFrontMatter(raw)
	if err != nil {
		t.Fatalf("SplitFrontMatter() error = %v", err)
	}
	if want := "\nBody.\n"; string(body) != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestSplitFrontMatterStripsBOM(t *testing.T) {
	raw := []byte("\xEF\xBB\xBF---\ntitle: Marked\n---\nBody.\n")
	fm, body, err := SplitFrontMatter(raw)
	if err != nil {
		t.Fatalf("SplitFrontMatter() error = %v", err)
	}
	if fm == nil || fm.Title != "Marked" {
		t.Fatalf("fm = %+v", fm)
	}
	if string(body) != "Body.\n" {
		t.Errorf("body = %q", body)
	}
}

func TestSplitFrontMatterNoBlock(t *testing.T) {
	raw := []byte("# Just a heading\n\nBody.\n")
	fm, body, err := SplitFrontMatter(raw)
	if err != nil {
		t.Fatalf("SplitFrontMatter() error = %v", err)
	}
	if fm != nil {
		t.Errorf("fm = %+v, want nil", fm)
	}
	if !bytes.Equal(body, raw) {
		t.Errorf("body = %q, want full input", body)
	}
}

func TestSplitFrontMatterDashLineIsBody(t *testing.T) {
	raw := []byte("---not a delimiter\ntext\n")
	fm, body, err := SplitFrontMatter(raw)
	if err != nil {
		t.Fatalf("SplitFrontMatter() error = %v", err)
	}
	if fm != nil || !bytes.Equal(body, raw) {
		t.Errorf("fm = %v, body = %q", fm, body)
	}
}

func TestSplitFrontMatterUnclosed(t *testing.T) {
	raw := []byte("---\ntitle: X\nno closing line\n")
	if _, _, err := SplitFrontMatter(raw); err == nil {
		t.Error("expected error for unclosed block")
	}
}

func TestSplitFrontMatterCRLF(t *testing.T) {
	raw := []byte("---\r\ntitle: Windows\r\n---\r\nBody.\r\n")
	fm, body, err := SplitFrontMatter(raw)
	if err != nil {
		t.Fatalf("SplitFrontMatter() error = %v", err)
	}
	if fm == nil || fm.Title != "Windows" {
		t.Fatalf("fm = %+v", fm)
	}
	if string(body) != "Body.\r\n" {
		t.Errorf("body = %q", body)
	}
}

func TestSplitFrontMatterNamePreference(t *testing.T) {
	raw := []byte("---\nname: fallback\n---\nx\n")
	fm, _, err := SplitFrontMatter(raw)
	if err != nil {
		t.Fatalf("SplitFrontMatter() error = %v", err)
	}
	if got := fm.DisplayName(); got != "fallback" {
		t.Errorf("DisplayName() = %q", got)
	}

	raw = []byte("---\ntitle: primary\nname: fallback\n---\nx\n")
	fm, _, err = SplitFrontMatter(raw)
	if err != nil {
		t.Fatalf("SplitFrontMatter() error = %v", err)
	}
	if got := fm.DisplayName(); got != "primary" {
		t.Errorf("DisplayName() = %q, want title to win", got)
	}
}

func TestRenderFrontMatterRoundTrip(t *testing.T) {
	block := RenderFrontMatter("Install: Step 1", 42, 7)

	fm, body, err := SplitFrontMatter(block)
	if err != nil {
		t.Fatalf("SplitFrontMatter() error = %v", err)
	}
	if fm.Title != "Install: Step 1" {
		t.Errorf("Title = %q", fm.Title)
	}
	if fm.BookstackID != 42 {
		t.Errorf("BookstackID = %d", fm.BookstackID)
	}
	if len(bytes.TrimSpace(body)) != 0 {
		t.Errorf("body = %q, want empty", body)
	}
	if !strings.Contains(string(block), "chapter_id: 7") {
		t.Errorf("block missing chapter binding: %q", block)
	}
}

func TestRenderFrontMatterUnchaptered(t *testing.T) {
	block := RenderFrontMatter("Plain", 9, 0)
	if strings.Contains(string(block), "chapter_id") {
		t.Errorf("unchaptered page should omit chapter binding: %q", block)
	}
}

func TestDisplayNameFromPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"docs/getting-started.md", "Getting Started"},
		{"api_reference.md", "Api Reference"},
		{"weird--name__x.md", "Weird Name X"},
		{"README.md", "Readme"},
	}
	for _, tt := range tests {
		if got := DisplayNameFromPath(tt.path); got != tt.want {
			t.Errorf("DisplayNameFromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
