// Package repository implements the ordered synced-path -> tag-set
// map, its diff and patch operators, and its JSON persistence.
package repository

import (
	"fmt"
	"sort"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/syncedpath"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/tag"
)

// Repository is an ordered mapping of synced paths to tag sets, plus
// the prefix list that gives those paths meaning. Two repositories
// are only comparable (Diff) when their prefix lists are equal.
type Repository struct {
	Prefixes syncedpath.List
	files    map[syncedpath.Path]tag.Set
}

// New returns an empty Repository scoped to prefixes.
func New(prefixes syncedpath.List) *Repository {
	return &Repository{
		Prefixes: prefixes,
		files:    make(map[syncedpath.Path]tag.Set),
	}
}

// Insert unconditionally upserts tags at path. An empty tags set
// removes the entry instead, so the repository holds tagged files only.
func (r *Repository) Insert(path syncedpath.Path, tags tag.Set) {
	if tags.IsEmpty() {
		delete(r.files, path)
		return
	}
	r.files[path] = tags
}

// InsertLocal derives a synced path from an absolute local path and
// upserts tags there.
func (r *Repository) InsertLocal(absPath string, tags tag.Set) error {
	path, err := syncedpath.FromLocal(absPath, r.Prefixes)
	if err != nil {
		return err
	}
	r.Insert(path, tags)
	return nil
}

// InsertRemote derives a synced path from an absolute remote URL path
// and upserts tags there, returning the derived path since remote
// callers typically need it to record a file-id mapping.
func (r *Repository) InsertRemote(absPath string, tags tag.Set) (syncedpath.Path, error) {
	path, err := syncedpath.FromRemote(absPath, r.Prefixes)
	if err != nil {
		return syncedpath.Path{}, err
	}
	r.Insert(path, tags)
	return path, nil
}

// Lookup returns the tag set stored at path, or an empty set if
// absent.
func (r *Repository) Lookup(path syncedpath.Path) tag.Set {
	if tags, ok := r.files[path]; ok {
		return tags
	}
	return tag.NewSet()
}

// Len returns the number of tagged files in the repository.
func (r *Repository) Len() int {
	return len(r.files)
}

// SortedPaths returns every path in the repository in the canonical
// (prefix id, relative path) order (spec.md §3).
func (r *Repository) SortedPaths() []syncedpath.Path {
	out := make([]syncedpath.Path, 0, len(r.files))
	for p := range r.files {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// Stats renders a short human-readable summary of the repository's
// contents, for the per-run log line described in SPEC_FULL.md §9.
func (r *Repository) Stats() string {
	tags := 0
	for _, t := range r.files {
		tags += t.Len()
	}
	return fmt.Sprintf("%d files, %d prefixes, %d total tag assignments", r.Len(), len(r.Prefixes), tags)
}

// Clone returns a deep copy of the repository.
func (r *Repository) Clone() *Repository {
	out := New(r.Prefixes)
	for p, t := range r.files {
		out.files[p] = t.Clone()
	}
	return out
}
