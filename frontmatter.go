package stackmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// FrontMatter holds the recognized keys of a document's leading metadata
// block. Unknown keys are ignored.
type FrontMatter struct {
	Title       string `yaml:"title"`
	Name        string `yaml:"name"`
	Chapter     string `yaml:"chapter"`
	BookstackID int64  `yaml:"bookstack_id"`
}

// DisplayName returns the display name declared in the front matter,
// preferring title over name. Empty if neither is set.
func (fm *FrontMatter) DisplayName() string {
	if fm == nil {
		return ""
	}
	if fm.Title != "" {
		return fm.Title
	}
	return fm.Name
}

var frontMatterDelim = []byte("---")

// SplitFrontMatter separates an optional leading front-matter block from
// the document body. The block must start on the first line with "---" and
// end with a matching "---" line. Documents without a block return a nil
// FrontMatter and the full input as body.
func SplitFrontMatter(raw []byte) (*FrontMatter, []byte, error) {
	trimmed := bytes.TrimPrefix(raw, []byte("\xEF\xBB\xBF")) // strip UTF-8 BOM
	if !bytes.HasPrefix(trimmed, frontMatterDelim) {
		return nil, raw, nil
	}
	rest := trimmed[len(frontMatterDelim):]
	if len(rest) > 0 && rest[0] == '\r' {
		rest = rest[1:]
	}
	if len(rest) == 0 || rest[0] != '\n' {
		// "---foo" is a body line, not a delimiter
		return nil, raw, nil
	}
	rest = rest[1:]

	end := findDelimLine(rest)
	if end < 0 {
		return nil, nil, fmt.Errorf("front matter: missing closing delimiter")
	}

	block := rest[:end]
	body := rest[end:]
	if i := bytes.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	} else {
		body = nil
	}
	// RenderFrontMatter separates the block from the body with one blank
	// line; consume it here so the pair round-trips byte for byte.
	if bytes.HasPrefix(body, []byte("\r\n")) {
		body = body[2:]
	} else if bytes.HasPrefix(body, []byte("\n")) {
		body = body[1:]
	}

	var fm FrontMatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, nil, fmt.Errorf("front matter: %w", err)
	}
	return &fm, body, nil
}

// findDelimLine returns the byte offset of the first line equal to "---",
// or -1 if none exists.
func findDelimLine(b []byte) int {
	offset := 0
	for len(b) > 0 {
		line := b
		nl := bytes.IndexByte(b, '\n')
		if nl >= 0 {
			line = b[:nl]
		}
		if bytes.Equal(bytes.TrimRight(line, "\r"), frontMatterDelim) {
			return offset
		}
		if nl < 0 {
			break
		}
		offset += nl + 1
		b = b[nl+1:]
	}
	return -1
}

// RenderFrontMatter produces the canonical front-matter block written by
// the pull pipeline: title, remote page binding, and chapter binding when
// the page is chaptered.
func RenderFrontMatter(title string, remoteID, chapterRemoteID int64) []byte {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	fmt.Fprintf(&buf, "title: %s\n", quoteIfNeeded(title))
	fmt.Fprintf(&buf, "bookstack_id: %d\n", remoteID)
	if chapterRemoteID != 0 {
		fmt.Fprintf(&buf, "chapter_id: %d\n", chapterRemoteID)
	}
	buf.WriteString("---\n\n")
	return buf.Bytes()
}

// quoteIfNeeded wraps a scalar value in double quotes when it would
// otherwise be ambiguous YAML.
func quoteIfNeeded(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, ":#{}[]\"'\n") || s != strings.TrimSpace(s) {
		return fmt.Sprintf("%q", s)
	}
	return s
}

var nameSeparators = regexp.MustCompile(`[-_]+`)

// DisplayNameFromPath derives a display name from a file name: the
// extension is dropped, runs of hyphens and underscores become single
// spaces, and each word is title-cased.
func DisplayNameFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = nameSeparators.ReplaceAllString(base, " ")

	words := strings.Fields(base)
	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	runes := []rune(strings.ToLower(w))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
