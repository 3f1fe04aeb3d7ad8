// Package reconcile implements the three-way tag reconciliation
// engine: given a baseline, a local, and a remote repository, it
// computes the commands each side must execute to converge and
// updates the baseline in place to the state those commands are
// expected to produce.
package reconcile

import (
	"fmt"
	"sort"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/repository"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/syncedpath"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/tag"
)

// ConflictPolicy decides how the baseline is seeded when no prior
// baseline exists. It has no effect once a baseline is present: every
// subsequent run behaves as Both, because the baseline is read from
// disk instead of seeded.
type ConflictPolicy int

const (
	// Left seeds the baseline with the local side's current state.
	Left ConflictPolicy = iota
	// Right seeds the baseline with the remote side's current state.
	Right
	// Both seeds the baseline empty.
	Both
)

// String renders the policy the way it appears in the config file and
// in redacted config logging ("Left", "Right", or "Both").
func (p ConflictPolicy) String() string {
	switch p {
	case Left:
		return "Left"
	case Right:
		return "Right"
	case Both:
		return "Both"
	default:
		return fmt.Sprintf("ConflictPolicy(%d)", int(p))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler so ConflictPolicy
// decodes directly from the keep_side_on_conflict TOML string.
func (p *ConflictPolicy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Left":
		*p = Left
	case "Right":
		*p = Right
	case "Both":
		*p = Both
	default:
		return fmt.Errorf("invalid keep_side_on_conflict %q: must be Left, Right, or Both", text)
	}
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p ConflictPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// SeedBaseline returns the baseline to reconcile against on a first
// run, where no persisted baseline exists yet. local and remote must
// be scoped to the same prefix list the returned repository will be
// patched against.
func SeedBaseline(policy ConflictPolicy, local, remote *repository.Repository, prefixes syncedpath.List) *repository.Repository {
	switch policy {
	case Left:
		return local.Clone()
	case Right:
		return remote.Clone()
	default:
		return repository.New(prefixes)
	}
}

// InMemory runs the pure core of the reconciliation engine: it diffs
// baseline against local and remote, splits out changes identical on
// both sides so they reach the baseline without generating any
// command, derives the two command lists, and patches baseline in
// place to the resulting state. It performs no I/O and never
// suspends, so it is the fuzz target for the whole engine.
//
// local_commands is what the local side must execute to match
// remote's independent changes; remote_commands is the symmetric list
// for the remote side.
func InMemory(baseline, local, remote *repository.Repository) (localCommands, remoteCommands []repository.Command) {
	hl := baseline.Diff(local)
	hr := baseline.Diff(remote)

	identical, leftOnly, rightOnly := split(hl, hr)

	localCommands = repository.CommandsFrom(rightOnly)
	remoteCommands = repository.CommandsFrom(leftOnly)

	baseline.Patch(merge(identical, leftOnly, rightOnly))

	return localCommands, remoteCommands
}

// split walks hl and hr jointly in ascending path order (both are
// already sorted, being the product of repository.Repository.Diff)
// and, for every path present in both, decomposes the two hunks'
// removed/unchanged/added fields into the components shared by both
// sides (identical) and the components unique to each.
func split(hl, hr []repository.Hunk) (identical, leftOnly, rightOnly []repository.Hunk) {
	i, j := 0, 0
	for i < len(hl) && j < len(hr) {
		l, r := hl[i], hr[j]
		switch {
		case l.Path.Less(r.Path):
			leftOnly = append(leftOnly, l)
			i++
		case r.Path.Less(l.Path):
			rightOnly = append(rightOnly, r)
			j++
		default:
			same, lRem, rRem := splitHunk(l, r)
			if !same.Empty() || !same.Unchanged.IsEmpty() {
				identical = append(identical, same)
			}
			if !lRem.Empty() {
				leftOnly = append(leftOnly, lRem)
			}
			if !rRem.Empty() {
				rightOnly = append(rightOnly, rRem)
			}
			i++
			j++
		}
	}
	leftOnly = append(leftOnly, hl[i:]...)
	rightOnly = append(rightOnly, hr[j:]...)
	return identical, leftOnly, rightOnly
}

// splitHunk decomposes two hunks at the same path into the parts of
// removed/added shared by both (identical) and the parts unique to
// each side. A baseline tag that only one side reports as unchanged
// was removed by the other side, so only the tags both sides kept
// unchanged are carried, and only by identical; leftRem and rightRem
// carry no unchanged tags. When l and r are equal, identical equals
// both and leftRem/rightRem come out empty, matching the "equal" row
// of spec.md §4.5's Step 2 table as a special case of the general rule.
func splitHunk(l, r repository.Hunk) (identical, leftRem, rightRem repository.Hunk) {
	removedI, removedL, removedR := splitField(l.Removed, r.Removed)
	unchangedI := l.Unchanged.Intersection(r.Unchanged)
	addedI, addedL, addedR := splitField(l.Added, r.Added)

	identical = repository.Hunk{Path: l.Path, Removed: removedI, Unchanged: unchangedI, Added: addedI}
	leftRem = repository.Hunk{Path: l.Path, Removed: removedL, Unchanged: tag.NewSet(), Added: addedL}
	rightRem = repository.Hunk{Path: l.Path, Removed: removedR, Unchanged: tag.NewSet(), Added: addedR}
	return identical, leftRem, rightRem
}

func splitField(l, r tag.Set) (inter, leftOnly, rightOnly tag.Set) {
	return l.Intersection(r), l.Difference(r), r.Difference(l)
}

// merge flattens any number of hunk lists into one, summing the
// removed/unchanged/added sets of every hunk that shares a path (a
// path can appear in more than one input list after split) and
// returns the result in ascending path order, ready for
// repository.Repository.Patch.
func merge(lists ...[]repository.Hunk) []repository.Hunk {
	type acc struct {
		path      syncedpath.Path
		removed   tag.Set
		unchanged tag.Set
		added     tag.Set
	}

	byPath := make(map[syncedpath.Path]*acc)
	var order []syncedpath.Path

	for _, list := range lists {
		for _, h := range list {
			a, ok := byPath[h.Path]
			if !ok {
				a = &acc{path: h.Path, removed: tag.NewSet(), unchanged: tag.NewSet(), added: tag.NewSet()}
				byPath[h.Path] = a
				order = append(order, h.Path)
			}
			a.removed.UnionInto(h.Removed)
			a.unchanged.UnionInto(h.Unchanged)
			a.added.UnionInto(h.Added)
		}
	}

	sort.Slice(order, func(i, j int) bool { return order[i].Less(order[j]) })

	out := make([]repository.Hunk, 0, len(order))
	for _, p := range order {
		a := byPath[p]
		out = append(out, repository.Hunk{Path: a.path, Removed: a.removed, Unchanged: a.unchanged, Added: a.added})
	}
	return out
}
