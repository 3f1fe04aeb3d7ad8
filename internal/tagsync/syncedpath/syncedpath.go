package syncedpath

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrMissingPrefix is returned when no configured prefix mapping
// matches the given absolute path.
var ErrMissingPrefix = errors.New("no configured prefix mapping matches path")

// Path is the canonical cross-side identity of a file: a prefix id
// (an index into a List) plus the path relative to that prefix's
// root. The relative path never has a leading separator.
type Path struct {
	PrefixID int
	Relative string
}

// String serializes the path as "<id>:<relative>", the form used as
// a JSON object key in the baseline file (spec.md §3).
func (p Path) String() string {
	return strconv.Itoa(p.PrefixID) + ":" + p.Relative
}

// Parse parses the "<id>:<relative>" form produced by String.
func Parse(s string) (Path, error) {
	idx := strings.IndexByte(s, ':')
	if idx < 0 {
		return Path{}, fmt.Errorf("synced path %q: missing ':' separator", s)
	}
	id, err := strconv.Atoi(s[:idx])
	if err != nil {
		return Path{}, fmt.Errorf("synced path %q: invalid prefix id: %w", s, err)
	}
	return Path{PrefixID: id, Relative: s[idx+1:]}, nil
}

// Less orders paths by (prefix id, lexicographic relative path),
// which is the ordering the repository's ordered map and the diff
// iterator both depend on (spec.md §3, §4.4).
func (p Path) Less(other Path) bool {
	if p.PrefixID != other.PrefixID {
		return p.PrefixID < other.PrefixID
	}
	return p.Relative < other.Relative
}

// LocalAbsolute returns the absolute local filesystem path for p
// under the given prefix list.
func (p Path) LocalAbsolute(prefixes List) (string, error) {
	if p.PrefixID < 0 || p.PrefixID >= len(prefixes) {
		return "", fmt.Errorf("%w: prefix id %d out of range", ErrMissingPrefix, p.PrefixID)
	}
	return filepath.Join(prefixes[p.PrefixID].Local, p.Relative), nil
}

// RemoteAbsolute returns the percent-encoded absolute remote URL path
// for p under the given prefix list.
func (p Path) RemoteAbsolute(prefixes List) (string, error) {
	if p.PrefixID < 0 || p.PrefixID >= len(prefixes) {
		return "", fmt.Errorf("%w: prefix id %d out of range", ErrMissingPrefix, p.PrefixID)
	}
	joined := strings.TrimSuffix(prefixes[p.PrefixID].Remote, "/") + "/" + p.Relative
	return EncodePath(joined), nil
}

// FromLocal finds the first prefix in prefixes whose local root is a
// path-prefix of abs, and returns the resulting synced Path.
func FromLocal(abs string, prefixes List) (Path, error) {
	abs = filepath.Clean(abs)
	for i, prefix := range prefixes {
		if suffix, ok := stripPrefix(abs, prefix.Local); ok {
			return Path{PrefixID: i, Relative: suffix}, nil
		}
	}
	return Path{}, fmt.Errorf("%w: %s", ErrMissingPrefix, abs)
}

// FromRemote percent-decodes abs and then finds the first prefix
// whose remote root is a path-prefix of it.
func FromRemote(abs string, prefixes List) (Path, error) {
	decoded, err := DecodePath(abs)
	if err != nil {
		return Path{}, fmt.Errorf("decoding remote path %q: %w", abs, err)
	}
	for i, prefix := range prefixes {
		if suffix, ok := stripPrefix(decoded, prefix.Remote); ok {
			return Path{PrefixID: i, Relative: suffix}, nil
		}
	}
	return Path{}, fmt.Errorf("%w: %s", ErrMissingPrefix, decoded)
}

// stripPrefix removes root from path if path has root as a clean
// path-component prefix, returning the remainder with no leading
// separator.
func stripPrefix(path, root string) (string, bool) {
	root = strings.TrimSuffix(root, "/")
	if path == root {
		return "", true
	}
	if !strings.HasPrefix(path, root+"/") {
		return "", false
	}
	return strings.TrimPrefix(path, root+"/"), true
}
