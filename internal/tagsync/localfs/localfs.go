// Package localfs is the local-filesystem side collaborator
// (executor.Side): it walks the configured local prefixes to build a
// repository snapshot, and applies commands by reading/writing the
// configured extended attribute on each target file. Grounded on
// original_source/src/local_fs/{fs.rs,fs_walker.rs}.
package localfs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/logsetup"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/repository"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/syncedpath"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/tag"
)

// LocalFS implements executor.Side against the local filesystem.
type LocalFS struct {
	Prefixes        syncedpath.List
	TagPropertyName string
	MaxConcurrency  int
	DryRun          bool

	// pathLocks serializes read-modify-write xattr updates per local
	// absolute path, so two commands touching the same file within one
	// ApplyCommands batch cannot race (fs.rs itself processes commands
	// sequentially; this module parallelizes across paths so a mutex
	// per path is needed where original_source had none).
	pathLocks sync.Map // map[string]*sync.Mutex
}

// New returns a LocalFS scoped to prefixes, reading/writing the given
// extended attribute name on every file.
func New(prefixes syncedpath.List, tagPropertyName string, maxConcurrency int, dryRun bool) *LocalFS {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &LocalFS{
		Prefixes:        prefixes,
		TagPropertyName: tagPropertyName,
		MaxConcurrency:  maxConcurrency,
		DryRun:          dryRun,
	}
}

// BuildRepository walks every configured local prefix and reads each
// regular file's tag extended attribute, grounded on
// fs_walker.rs's LocalFsWalker::build_repository.
func (l *LocalFS) BuildRepository(ctx context.Context) (*repository.Repository, error) {
	repo := repository.New(l.Prefixes)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.MaxConcurrency)

	for i, prefix := range l.Prefixes {
		i, prefix := i, prefix
		g.Go(func() error {
			return walkPrefix(gctx, i, prefix, l.TagPropertyName, func(path syncedpath.Path, tags tag.Set) {
				mu.Lock()
				repo.Insert(path, tags)
				mu.Unlock()
			})
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return repo, nil
}

// ApplyCommands applies each command's tag actions to the extended
// attribute of its local file, returning the commands that failed
// instead of aborting on the first error (fs.rs's update_tags logs and
// continues per-command; this preserves that "best effort" behavior).
func (l *LocalFS) ApplyCommands(ctx context.Context, cmds []repository.Command) ([]repository.Command, error) {
	if l.DryRun {
		logsetup.Infof("dry-run: would apply %d local commands", len(cmds))
		return nil, nil
	}

	var mu sync.Mutex
	var failed []repository.Command

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.MaxConcurrency)

	for _, cmd := range cmds {
		cmd := cmd
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := l.applyOne(cmd); err != nil {
				logsetup.Errorf("failed to update tags for %s: %v", cmd.Path, err)
				mu.Lock()
				failed = append(failed, cmd)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return failed, err
	}
	return failed, nil
}

func (l *LocalFS) applyOne(cmd repository.Command) error {
	abs, err := cmd.Path.LocalAbsolute(l.Prefixes)
	if err != nil {
		return err
	}

	unlock := l.lockPath(abs)
	defer unlock()

	tags, err := readTags(abs, l.TagPropertyName)
	if err != nil && !errors.Is(err, errUntagged) {
		return err
	}

	for _, action := range cmd.Actions {
		switch action.Modification {
		case repository.Add:
			tags.Insert(action.Tag)
		case repository.Remove:
			tags.Remove(action.Tag)
		}
	}

	return writeTags(abs, l.TagPropertyName, tags)
}

func (l *LocalFS) lockPath(abs string) func() {
	v, _ := l.pathLocks.LoadOrStore(abs, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// errUntagged mirrors fs.rs's FileError::Untagged: a file with no
// xattr set (or an empty one) is treated as having an empty tag set,
// not as an error.
var errUntagged = errors.New("file has no tags set")

func readTags(abs, attr string) (tag.Set, error) {
	size, err := unix.Lgetxattr(abs, attr, nil)
	if err != nil {
		if errors.Is(err, unix.ENODATA) {
			return tag.NewSet(), errUntagged
		}
		return tag.NewSet(), fmt.Errorf("reading xattr %s of %s: %w", attr, abs, err)
	}
	if size == 0 {
		return tag.NewSet(), errUntagged
	}

	buf := make([]byte, size)
	n, err := unix.Lgetxattr(abs, attr, buf)
	if err != nil {
		return tag.NewSet(), fmt.Errorf("reading xattr %s of %s: %w", attr, abs, err)
	}
	if !utf8.Valid(buf[:n]) {
		return tag.NewSet(), fmt.Errorf("xattr %s of %s is not valid UTF-8", attr, abs)
	}

	tags, dropped := tag.Parse(string(buf[:n]))
	for _, d := range dropped {
		logsetup.Warnf("dropping invalid tag %q on %s", d, abs)
	}
	if tags.IsEmpty() {
		return tags, errUntagged
	}
	return tags, nil
}

func writeTags(abs, attr string, tags tag.Set) error {
	if tags.IsEmpty() {
		err := unix.Lremovexattr(abs, attr)
		if err != nil && !errors.Is(err, unix.ENODATA) {
			return fmt.Errorf("removing xattr %s of %s: %w", attr, abs, err)
		}
		return nil
	}
	if err := unix.Lsetxattr(abs, attr, []byte(tags.Serialize()), 0); err != nil {
		return fmt.Errorf("setting xattr %s of %s: %w", attr, abs, err)
	}
	return nil
}
