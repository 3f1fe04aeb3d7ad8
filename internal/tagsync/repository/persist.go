package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/syncedpath"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/tag"
)

// ErrBaselineNotFound is returned by Load when the baseline file does not
// exist yet, distinct from other I/O errors (spec.md §6, §7): a fresh
// install has no baseline and should build one from scratch instead
// of failing the run.
var ErrBaselineNotFound = errors.New("baseline file not found")

// ErrPrefixMismatch is returned by ValidatePrefixMapping when the
// stored prefix list is not a prefix of the configured one.
var ErrPrefixMismatch = errors.New("baseline prefix list does not match configuration")

type wirePrefix struct {
	Local  string `json:"local"`
	Remote string `json:"remote"`
}

type wireFormat struct {
	Prefixes []wirePrefix       `json:"prefixes"`
	Files    map[string]tag.Set `json:"files"`
}

// Persist atomically writes the repository to path as JSON
// (write-to-temp + rename), matching spec.md §6's baseline file
// format.
func (r *Repository) Persist(path string) error {
	wire := wireFormat{
		Prefixes: make([]wirePrefix, len(r.Prefixes)),
		Files:    make(map[string]tag.Set, len(r.files)),
	}
	for i, p := range r.Prefixes {
		wire.Prefixes[i] = wirePrefix{Local: p.Local, Remote: p.Remote}
	}
	for p, tags := range r.files {
		wire.Files[p.String()] = tags
	}

	data, err := json.MarshalIndent(wire, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling baseline: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tagsync-baseline-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp baseline file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp baseline file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp baseline file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp baseline file into place: %w", err)
	}
	return nil
}

// Load reads the baseline JSON file at path. Returns ErrBaselineNotFound,
// wrapped, when the file does not exist.
func Load(path string) (*Repository, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrBaselineNotFound, path)
		}
		return nil, fmt.Errorf("reading baseline file: %w", err)
	}

	var wire wireFormat
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("parsing baseline file: %w", err)
	}

	prefixes := make(syncedpath.List, len(wire.Prefixes))
	for i, p := range wire.Prefixes {
		prefixes[i] = syncedpath.PrefixMapping{Local: p.Local, Remote: p.Remote}
	}

	repo := New(prefixes)
	for key, tags := range wire.Files {
		p, err := syncedpath.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("parsing baseline file: %w", err)
		}
		repo.Insert(p, tags)
	}
	return repo, nil
}

// ValidatePrefixMapping checks that the repository's stored prefix
// list equals the leading k entries of expected, where k is the
// stored list's length: a baseline may cover fewer prefixes than the
// current configuration (trailing additions are allowed), but may not
// disagree with any entry it does cover (spec.md §4.3).
func (r *Repository) ValidatePrefixMapping(expected syncedpath.List) error {
	if len(r.Prefixes) > len(expected) {
		return fmt.Errorf("%w: baseline has %d prefixes, configuration only has %d",
			ErrPrefixMismatch, len(r.Prefixes), len(expected))
	}
	if !r.Prefixes.Equal(expected[:len(r.Prefixes)]) {
		return ErrPrefixMismatch
	}
	return nil
}
