package localfs

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/logsetup"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/syncedpath"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/tag"
)

// walkPrefix walks prefix's local root, calling found for every
// regular file that carries a non-empty tag extended attribute.
// Grounded on fs_walker.rs's LocalFsWalker::build_repository: a
// directory that cannot be read is logged and skipped rather than
// aborting the whole walk, but filepath.WalkDir (unlike walkdir's
// Rust counterpart) has no distinct "symlink loop" error to special
// case, so every walk error is handled uniformly.
func walkPrefix(ctx context.Context, prefixID int, prefix syncedpath.PrefixMapping, tagProperty string, found func(syncedpath.Path, tag.Set)) error {
	return filepath.WalkDir(prefix.Local, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logsetup.Errorf("could not access %s: %v", path, err)
			if d != nil && d.IsDir() {
				logsetup.Warnf("ignoring all files under %s", path)
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		tags, readErr := readTags(path, tagProperty)
		if readErr != nil {
			if errors.Is(readErr, errUntagged) {
				logsetup.Debugf("skipping file %s: no tags set", path)
				return nil
			}
			logsetup.Errorf("skipping file %s: %v", path, readErr)
			return nil
		}

		relPath, relErr := syncedpath.FromLocal(path, syncedpath.List{prefix})
		if relErr != nil {
			logsetup.Errorf("skipping file %s: %v", path, relErr)
			return nil
		}
		relPath.PrefixID = prefixID
		found(relPath, tags)
		return nil
	})
}
