package stackmd

import (
	"errors"
	"strings"
)

// Document is a local Markdown file prepared for resolution: path on
// disk, display name, the explicit remote binding from its front matter
// (zero if none), and the fingerprint of its wire-form content.
type Document struct {
	Path     string
	Name     string
	RemoteID int64
	Hash     string
}

// Match is the outcome of resolving a document against remote state.
// Page is the matched remote page, nil when the document is new.
// Unchanged short-circuits the pipeline: the cache already holds this
// exact content for this path, so no sync action is needed at all.
type Match struct {
	Page      *Page
	Unchanged bool
}

// ResolveDocument maps a local document to at most one remote page.
// The priority order is load-bearing:
//
//  1. An identical fingerprint in the cache row for this path
//     short-circuits as unchanged, unless the document's explicit remote
//     id disagrees with the cached binding (a re-bind is a real change).
//  2. An explicit remote id in the document binds directly (user intent
//     overrides everything).
//  3. The cache row's remote id resolves the binding from a prior run.
//  4. Case-insensitive exact name match against the candidates.
//  5. No match: the document needs a remote create.
//
// The id-agreement guard on step 1 exists so re-binds still override:
// a document whose body is unchanged but whose declared id now names a
// different page resolves to that page rather than short-circuiting.
func ResolveDocument(doc *Document, candidates []Page, cache *Store) (Match, error) {
	cached, err := cache.GetPageByLocalPath(doc.Path)
	if err != nil && !errors.Is(err, ErrNotCached) {
		return Match{}, err
	}

	if cached != nil && cached.ContentHash != "" && cached.ContentHash == doc.Hash {
		if doc.RemoteID == 0 || doc.RemoteID == cached.RemoteID {
			return Match{Unchanged: true}, nil
		}
	}

	if doc.RemoteID != 0 {
		if page := findByRemoteID(candidates, doc.RemoteID); page != nil {
			return Match{Page: page}, nil
		}
	}

	if cached != nil {
		if page := findByRemoteID(candidates, cached.RemoteID); page != nil {
			return Match{Page: page}, nil
		}
		// Cached remote id no longer listed; fall through to name match.
	}

	for i := range candidates {
		if strings.EqualFold(candidates[i].Name, doc.Name) {
			return Match{Page: &candidates[i]}, nil
		}
	}

	return Match{}, nil
}

func findByRemoteID(candidates []Page, remoteID int64) *Page {
	for i := range candidates {
		if candidates[i].RemoteID == remoteID {
			return &candidates[i]
		}
	}
	return nil
}
