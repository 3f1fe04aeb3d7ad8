package repository

import (
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/syncedpath"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/tag"
)

// Hunk is the per-path decomposition of two tag sets into
// removed/unchanged/added (spec.md §3's "tag diff"), plus the path it
// belongs to.
type Hunk struct {
	Path      syncedpath.Path
	Removed   tag.Set
	Unchanged tag.Set
	Added     tag.Set
}

// Empty reports whether the hunk carries no change at all.
func (h Hunk) Empty() bool {
	return h.Removed.IsEmpty() && h.Added.IsEmpty()
}

// mismatchedPrefixesError backs the panic spec.md §4.4/§7 requires:
// two repositories are only comparable when their prefix lists are
// equal, and a mismatch is a programming-invariant violation, not an
// ordinary error.
type mismatchedPrefixesError struct{}

func (mismatchedPrefixesError) Error() string {
	return "diff: left and right repositories have different prefix lists"
}

// DiffIterator lazily merges two repositories' ordered path->tagset
// maps, path by path, yielding a Hunk for every path where the two
// sides disagree. It is single-pass and finite (spec.md §4.4).
type DiffIterator struct {
	left, right []syncedpath.Path
	leftMap     map[syncedpath.Path]tag.Set
	rightMap    map[syncedpath.Path]tag.Set
	li, ri      int
}

// NewDiffIterator builds a DiffIterator over left and right. Panics if
// the two repositories' prefix lists differ (spec.md §3, §7).
func NewDiffIterator(left, right *Repository) *DiffIterator {
	if !left.Prefixes.Equal(right.Prefixes) {
		panic(mismatchedPrefixesError{})
	}
	return &DiffIterator{
		left:     left.SortedPaths(),
		right:    right.SortedPaths(),
		leftMap:  left.files,
		rightMap: right.files,
	}
}

// Next returns the next non-empty diff hunk and true, or a zero Hunk
// and false once both sides are exhausted. Identical entries are
// skipped (spec.md §4.4).
func (it *DiffIterator) Next() (Hunk, bool) {
	for {
		hunk, ok := it.advance()
		if !ok {
			return Hunk{}, false
		}
		if !hunk.Empty() {
			return hunk, true
		}
	}
}

func (it *DiffIterator) advance() (Hunk, bool) {
	leftDone := it.li >= len(it.left)
	rightDone := it.ri >= len(it.right)

	switch {
	case leftDone && rightDone:
		return Hunk{}, false

	case rightDone || (!leftDone && it.left[it.li].Less(it.right[it.ri])):
		path := it.left[it.li]
		it.li++
		return diffHunk(path, it.leftMap[path], tag.NewSet()), true

	case leftDone || (!rightDone && it.right[it.ri].Less(it.left[it.li])):
		path := it.right[it.ri]
		it.ri++
		return diffHunk(path, tag.NewSet(), it.rightMap[path]), true

	default:
		path := it.left[it.li]
		it.li++
		it.ri++
		return diffHunk(path, it.leftMap[path], it.rightMap[path]), true
	}
}

func diffHunk(path syncedpath.Path, left, right tag.Set) Hunk {
	d := tag.DiffSets(left, right)
	return Hunk{
		Path:      path,
		Removed:   d.LeftOnly,
		Unchanged: d.Intersection,
		Added:     d.RightOnly,
	}
}

// Collect drains the iterator into a slice, in ascending path order.
func (it *DiffIterator) Collect() []Hunk {
	var out []Hunk
	for {
		h, ok := it.Next()
		if !ok {
			return out
		}
		out = append(out, h)
	}
}

// Diff is a convenience wrapper that drains NewDiffIterator(r, other)
// into a slice.
func (r *Repository) Diff(other *Repository) []Hunk {
	return NewDiffIterator(r, other).Collect()
}
