package stackmd

import (
	"regexp"
	"strings"
)

// BookStack rewrites in-page heading anchors to internal bookmark ids of
// the form "bkmrk-<slug>". EncodeAnchors converts human-authored anchor
// link targets to that form before transmission; DecodeAnchors reverses
// it after retrieval. Decoding then re-encoding previously converted text
// reproduces it byte for byte, which is what keeps pull-then-push
// fingerprints stable.

const bookmarkPrefix = "bkmrk-"

// anchorTarget matches an inline-link destination that is a bare
// in-document anchor: "](#some-name)".
var anchorTarget = regexp.MustCompile(`\]\(#([^)\s]+)\)`)

var anchorSlugInvalid = regexp.MustCompile(`[^a-z0-9-]+`)

// EncodeAnchors rewrites bare anchor link targets to the wiki's internal
// bookmark form. Targets already in bookmark form are left untouched.
func EncodeAnchors(body string) string {
	return anchorTarget.ReplaceAllStringFunc(body, func(m string) string {
		target := m[len("](#") : len(m)-1]
		if strings.HasPrefix(target, bookmarkPrefix) {
			return m
		}
		return "](#" + bookmarkPrefix + anchorSlug(target) + ")"
	})
}

// DecodeAnchors strips the internal bookmark prefix from anchor link
// targets, restoring the human-authored form.
func DecodeAnchors(body string) string {
	return anchorTarget.ReplaceAllStringFunc(body, func(m string) string {
		target := m[len("](#") : len(m)-1]
		if !strings.HasPrefix(target, bookmarkPrefix) {
			return m
		}
		return "](#" + strings.TrimPrefix(target, bookmarkPrefix) + ")"
	})
}

// anchorSlug normalizes an anchor name the way the wiki does: lowercase,
// URL-escape sequences and separators collapsed to single hyphens.
// Slugs are fixed points: anchorSlug(anchorSlug(x)) == anchorSlug(x).
func anchorSlug(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "%20", " ")
	s = strings.Join(strings.Fields(s), "-")
	s = anchorSlugInvalid.ReplaceAllString(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return strings.Trim(s, "-")
}
