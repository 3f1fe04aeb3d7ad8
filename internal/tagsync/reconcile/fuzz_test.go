package reconcile

import (
	"testing"

	fuzz "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/require"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/repository"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/syncedpath"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/tag"
)

// tagState is one of the seven per-tag states spec.md §4.5's fuzz
// target draws from: whether and how a tag's presence differs between
// baseline, local and remote.
type tagState int

const (
	stateUnchanged tagState = iota
	stateAddLocal
	stateRemoveLocal
	stateAddRemote
	stateRemoveRemote
	stateAddBoth
	stateRemoveBoth
	numTagStates
)

// presence maps a state onto the (in_baseline, in_local, in_remote)
// triple from the state machine table.
func (s tagState) presence() (b, l, r bool) {
	switch s {
	case stateUnchanged:
		return true, true, true
	case stateAddLocal:
		return false, true, false
	case stateRemoveLocal:
		return true, false, true
	case stateAddRemote:
		return false, false, true
	case stateRemoveRemote:
		return true, true, false
	case stateAddBoth:
		return false, true, true
	case stateRemoveBoth:
		return true, false, false
	default:
		return false, false, false
	}
}

var fuzzTagPool = []string{"alpha", "beta", "gamma", "delta", "epsilon"}
var fuzzPathPool = []string{"file0", "file1", "file2", "file3"}

// FuzzReconcileInMemory builds arbitrary (path, per-tag state)
// matrices, derives the expected command lists and new baseline
// directly from the state machine table, and checks InMemory against
// that expectation — the fuzz target spec.md §4.5 describes.
func FuzzReconcileInMemory(f *testing.F) {
	f.Add([]byte{0, 1, 2, 3, 4, 5, 6, 0, 1, 2, 3, 4, 5, 6, 0, 1, 2, 3, 4, 5})

	f.Fuzz(func(t *testing.T, data []byte) {
		fc := fuzz.NewConsumer(data)

		mapping, err := syncedpath.NewPrefixMapping("/local", "/remote.php/dav/files/alice")
		require.NoError(t, err)
		prefixes := syncedpath.List{mapping}

		baseline := repository.New(prefixes)
		local := repository.New(prefixes)
		remote := repository.New(prefixes)

		wantLocalActions := make(map[syncedpath.Path][]repository.Action)
		wantRemoteActions := make(map[syncedpath.Path][]repository.Action)
		wantBaselineTags := make(map[syncedpath.Path]tag.Set)

		for _, relPath := range fuzzPathPool {
			path := syncedpath.Path{PrefixID: 0, Relative: relPath}

			bTags := tag.NewSet()
			lTags := tag.NewSet()
			rTags := tag.NewSet()
			newTags := tag.NewSet()
			var localActions, remoteActions []repository.Action

			for _, name := range fuzzTagPool {
				n, err := fc.GetInt()
				if err != nil {
					return
				}
				state := tagState(n % int(numTagStates))
				if state < 0 {
					state += numTagStates
				}
				b, l, r := state.presence()
				tg := tag.MustNew(name)

				if b {
					bTags.Insert(tg)
				}
				if l {
					lTags.Insert(tg)
				}
				if r {
					rTags.Insert(tg)
				}

				switch {
				case !b && l && !r:
					remoteActions = append(remoteActions, repository.Action{Tag: tg, Modification: repository.Add})
					newTags.Insert(tg)
				case !b && !l && r:
					localActions = append(localActions, repository.Action{Tag: tg, Modification: repository.Add})
					newTags.Insert(tg)
				case !b && l && r:
					newTags.Insert(tg)
				case b && l && !r:
					localActions = append(localActions, repository.Action{Tag: tg, Modification: repository.Remove})
				case b && !l && r:
					remoteActions = append(remoteActions, repository.Action{Tag: tg, Modification: repository.Remove})
				case b && l && r:
					newTags.Insert(tg)
				case b && !l && !r:
					// removed on both sides: drops out of the new baseline
				}
			}

			if !bTags.IsEmpty() {
				baseline.Insert(path, bTags)
			}
			if !lTags.IsEmpty() {
				local.Insert(path, lTags)
			}
			if !rTags.IsEmpty() {
				remote.Insert(path, rTags)
			}
			if len(localActions) > 0 {
				wantLocalActions[path] = localActions
			}
			if len(remoteActions) > 0 {
				wantRemoteActions[path] = remoteActions
			}
			wantBaselineTags[path] = newTags
		}

		localCmds, remoteCmds := InMemory(baseline, local, remote)

		gotLocal := make(map[syncedpath.Path][]repository.Action)
		for _, c := range localCmds {
			gotLocal[c.Path] = c.Actions
		}
		gotRemote := make(map[syncedpath.Path][]repository.Action)
		for _, c := range remoteCmds {
			gotRemote[c.Path] = c.Actions
		}

		for _, relPath := range fuzzPathPool {
			path := syncedpath.Path{PrefixID: 0, Relative: relPath}
			require.ElementsMatch(t, wantLocalActions[path], gotLocal[path], "local actions at %s", path)
			require.ElementsMatch(t, wantRemoteActions[path], gotRemote[path], "remote actions at %s", path)
			require.Equal(t, wantBaselineTags[path].Serialize(), baseline.Lookup(path).Serialize(), "baseline at %s", path)
		}
	})
}
