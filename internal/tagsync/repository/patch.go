package repository

import (
	"fmt"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/tag"
)

// patchPreImageMismatchError is the panic value raised when Patch's
// pre-image assertion fails — spec.md §4.3 calls this "a programming
// error (indicates a stale baseline used against a diff not produced
// from it)", and spec.md §7 requires programming-invariant violations
// to panic/abort rather than return an error.
type patchPreImageMismatchError struct {
	path     string
	expected string
	actual   string
}

func (e patchPreImageMismatchError) Error() string {
	return fmt.Sprintf("patch: pre-image mismatch at %s: expected %q, got %q", e.path, e.expected, e.actual)
}

// Patch applies hunks to the repository in place: for each hunk, the
// expected pre-image tag set (Unchanged ∪ Removed) must equal the
// repository's current tag set at that path; the entry is then
// replaced with Unchanged ∪ Added (spec.md §4.3).
func (r *Repository) Patch(hunks []Hunk) {
	for _, h := range hunks {
		preImage := tag.Union(h.Unchanged, h.Removed)
		current := r.Lookup(h.Path)

		if current.Serialize() != preImage.Serialize() {
			panic(patchPreImageMismatchError{
				path:     h.Path.String(),
				expected: preImage.Serialize(),
				actual:   current.Serialize(),
			})
		}

		r.Insert(h.Path, tag.Union(h.Unchanged, h.Added))
	}
}
