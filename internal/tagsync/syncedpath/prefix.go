// Package syncedpath implements the canonical cross-side file identity
// (prefix id + relative path) and the prefix mappings that translate
// it to local and remote absolute paths.
package syncedpath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// RemoteRootPrefix is the literal prefix every prefix mapping's remote
// root must start with (spec.md §3).
const RemoteRootPrefix = "/remote.php/dav/files/"

// ErrInvalidRemoteRoot is returned by NewPrefixMapping when Remote
// does not start with RemoteRootPrefix.
var ErrInvalidRemoteRoot = errors.New("remote root must start with " + RemoteRootPrefix)

// PrefixMapping pairs a local directory root with a remote one.
type PrefixMapping struct {
	Local  string
	Remote string
}

// NewPrefixMapping validates and builds a PrefixMapping. local is
// cleaned to a canonical absolute-style form; remote must start with
// RemoteRootPrefix.
func NewPrefixMapping(local, remote string) (PrefixMapping, error) {
	if !strings.HasPrefix(remote, RemoteRootPrefix) {
		return PrefixMapping{}, fmt.Errorf("%w: got %q", ErrInvalidRemoteRoot, remote)
	}
	return PrefixMapping{
		Local:  filepath.Clean(local),
		Remote: strings.TrimSuffix(remote, "/"),
	}, nil
}

// List is an ordered list of prefix mappings; an entry's index in the
// list is its prefix id.
type List []PrefixMapping

// Equal reports whether two prefix lists are identical, which is the
// precondition for comparing two repositories (spec.md §3).
func (l List) Equal(other List) bool {
	if len(l) != len(other) {
		return false
	}
	for i := range l {
		if l[i] != other[i] {
			return false
		}
	}
	return true
}
