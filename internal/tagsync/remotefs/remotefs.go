// Package remotefs is the Nextcloud side collaborator
// (executor.Side): it drives the systemtags WebDAV API to build a
// repository snapshot and to apply tag commands, grounded on
// original_source/src/remote_fs/{fs.rs,fs_walker.rs,common.rs}.
package remotefs

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/logsetup"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/repository"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/syncedpath"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/tag"
)

// RemoteFS implements executor.Side against a Nextcloud instance's
// systemtags and WebDAV files APIs.
type RemoteFS struct {
	conn           *connection
	Prefixes       syncedpath.List
	User           string
	MaxConcurrency int
	DryRun         bool

	mu    sync.Mutex
	tags  *biMap[TagID, tag.Tag]
	files *biMap[FileID, syncedpath.Path]
}

// New builds a RemoteFS talking to instance as user, scoped to
// prefixes.
func New(instance, user, token string, prefixes syncedpath.List, maxConcurrency int, dryRun bool) (*RemoteFS, error) {
	conn, err := newConnection(instance, user, token)
	if err != nil {
		return nil, err
	}
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &RemoteFS{
		conn:           conn,
		Prefixes:       prefixes,
		User:           user,
		MaxConcurrency: maxConcurrency,
		DryRun:         dryRun,
		tags:           newBiMap[TagID, tag.Tag](),
		files:          newBiMap[FileID, syncedpath.Path](),
	}, nil
}

// BuildRepository loads every systemtag, then for each one fetches
// the files that carry it, merging per-file tag sets into one
// repository snapshot, grounded on fs.rs's create_repo +
// FileTagHelper::group_tags_by_file.
func (r *RemoteFS) BuildRepository(ctx context.Context) (*repository.Repository, error) {
	allTags, err := listTags(ctx, r.conn)
	if err != nil {
		return nil, fmt.Errorf("building remote repository: %w", err)
	}

	repo := repository.New(r.Prefixes)
	fileIDs := newBiMap[FileID, syncedpath.Path]()
	var mergeMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.MaxConcurrency)

	for id, t := range allTags {
		id, t := id, t
		g.Go(func() error {
			files, err := listFilesWithTag(gctx, r.conn, r.User, id)
			if err != nil {
				logsetup.Errorf("failed to fetch files for tag %s: %v", t, err)
				return nil
			}
			logsetup.Debugf("processing tag %s with %d files", t, len(files))

			mergeMu.Lock()
			defer mergeMu.Unlock()
			for _, f := range files {
				path, perr := syncedpath.FromRemote(f.Href, r.Prefixes)
				if perr != nil {
					logsetup.Debugf("ignoring %s: %v", f.Href, perr)
					continue
				}
				tags := repo.Lookup(path)
				tags.Insert(t)
				repo.Insert(path, tags)
				if f.ID != 0 {
					fileIDs.Insert(f.ID, path)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("building remote repository: %w", err)
	}

	r.mu.Lock()
	r.tags = newBiMap[TagID, tag.Tag]()
	for id, t := range allTags {
		r.tags.Insert(id, t)
	}
	r.files = fileIDs
	r.mu.Unlock()

	logsetup.Infof("finished building remote repository: %s", repo.Stats())
	return repo, nil
}

// ApplyCommands creates whatever tags and resolves whatever file ids
// the commands reference but this collaborator does not know about
// yet, then dispatches each command's tag/untag calls concurrently,
// grounded on fs.rs's update_tags (create_missing_tags +
// get_missing_file_ids + per-command dispatch).
func (r *RemoteFS) ApplyCommands(ctx context.Context, cmds []repository.Command) ([]repository.Command, error) {
	if r.DryRun {
		logsetup.Infof("dry-run: would apply %d remote commands", len(cmds))
		return nil, nil
	}

	if err := r.refreshTags(ctx); err != nil {
		logsetup.Warnf("failed to refresh tags before applying commands: %v", err)
	}
	r.createMissingTags(ctx, cmds)
	r.resolveMissingFileIDs(ctx, cmds)

	var mu sync.Mutex
	var failed []repository.Command

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.MaxConcurrency)

	for _, cmd := range cmds {
		cmd := cmd
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := r.runCommand(gctx, cmd); err != nil {
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

func (r *RemoteFS) refreshTags(ctx context.Context) error {
	fresh, err := listTags(ctx, r.conn)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range fresh {
		r.tags.Insert(id, t)
	}
	return nil
}

// createMissingTags creates, sequentially (tag creation is rare
// compared to per-command dispatch, and concurrent creation of the
// same new tag name would race), every tag an Add action references
// that this collaborator has not seen before.
func (r *RemoteFS) createMissingTags(ctx context.Context, cmds []repository.Command) {
	seen := make(map[string]struct{})
	for _, cmd := range cmds {
		for _, action := range cmd.Actions {
			if action.Modification != repository.Add {
				continue
			}
			name := action.Tag.String()
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}

			r.mu.Lock()
			_, known := r.tags.First(action.Tag)
			r.mu.Unlock()
			if known {
				continue
			}

			id, err := createTag(ctx, r.conn, action.Tag)
			if err != nil {
				logsetup.Warnf("failed to create tag %s: %v", action.Tag, err)
				continue
			}
			r.mu.Lock()
			r.tags.Insert(id, action.Tag)
			r.mu.Unlock()
		}
	}
}

// resolveMissingFileIDs fetches the file id of every command's path
// that this collaborator has not already resolved, concurrently and
// bounded by MaxConcurrency.
func (r *RemoteFS) resolveMissingFileIDs(ctx context.Context, cmds []repository.Command) {
	var toResolve []syncedpath.Path
	seen := make(map[syncedpath.Path]struct{})
	for _, cmd := range cmds {
		if _, ok := seen[cmd.Path]; ok {
			continue
		}
		seen[cmd.Path] = struct{}{}

		r.mu.Lock()
		_, known := r.files.First(cmd.Path)
		r.mu.Unlock()
		if !known {
			toResolve = append(toResolve, cmd.Path)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.MaxConcurrency)
	for _, path := range toResolve {
		path := path
		g.Go(func() error {
			remote, err := path.RemoteAbsolute(r.Prefixes)
			if err != nil {
				logsetup.Warnf("failed to format remote path for %s: %v", path, err)
				return nil
			}
			id, err := getFileID(gctx, r.conn, remote)
			if err != nil {
				logsetup.Warnf("failed to query file id for %s: %v", path, err)
				return nil
			}
			r.mu.Lock()
			r.files.Insert(id, path)
			r.mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

// runCommand applies every action of cmd, stopping at (and reporting)
// the first action whose tag or file id is unknown — matching fs.rs's
// run_command, which logs and skips such actions individually, but
// this reimplementation surfaces the command as failed so the
// executor can roll its effects back out of the baseline.
func (r *RemoteFS) runCommand(ctx context.Context, cmd repository.Command) error {
	r.mu.Lock()
	fileID, knownFile := r.files.First(cmd.Path)
	r.mu.Unlock()
	if !knownFile {
		return fmt.Errorf("unknown file %s: ensure it is synced so it has an id", cmd.Path)
	}

	for _, action := range cmd.Actions {
		r.mu.Lock()
		tagID, knownTag := r.tags.First(action.Tag)
		r.mu.Unlock()
		if !knownTag {
			return fmt.Errorf("unknown tag %s", action.Tag)
		}

		var err error
		switch action.Modification {
		case repository.Add:
			err = tagFile(ctx, r.conn, tagID, fileID)
		case repository.Remove:
			err = untagFile(ctx, r.conn, tagID, fileID)
		}
		if err != nil {
			return fmt.Errorf("%s tag %s: %w", action.Modification, action.Tag, err)
		}
		logsetup.Debugf("successfully %sd tag %s for file %s", action.Modification, action.Tag, cmd.Path)
	}
	return nil
}
