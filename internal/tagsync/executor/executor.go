// Package executor drives the two side collaborators through one
// reconciliation run: build both repositories concurrently, reconcile
// them against the baseline, dispatch the resulting commands
// concurrently, and roll back baseline entries for commands that did
// not take effect.
package executor

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/reconcile"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/repository"
)

// Side is the capability contract a collaborator (local filesystem,
// remote Nextcloud instance) offers the engine: build a snapshot
// repository, and execute a batch of commands, reporting back
// whichever ones did not take effect. Implementations must be safe to
// call concurrently with the other side but serialize per-path
// operations on their own end.
type Side interface {
	BuildRepository(ctx context.Context) (*repository.Repository, error)
	ApplyCommands(ctx context.Context, cmds []repository.Command) (failed []repository.Command, err error)
}

// Result is the outcome of one reconciliation run.
type Result struct {
	Baseline     *repository.Repository
	FailedLocal  []repository.Command
	FailedRemote []repository.Command
}

// sideBuildError names which side's BuildRepository call failed, for
// the aggregate error spec.md §7 requires when one side succeeds and
// the other doesn't.
type sideBuildError struct {
	side string
	err  error
}

func (e *sideBuildError) Error() string {
	return fmt.Sprintf("building %s repository: %v", e.side, e.err)
}

func (e *sideBuildError) Unwrap() error { return e.err }

// ErrBothSidesFailed is returned by Run when neither side's
// BuildRepository call succeeded (spec.md §7: bulk initialization
// fails the run if neither repository could be built).
var ErrBothSidesFailed = errors.New("both sides failed to build a repository")

// Run executes one full reconciliation pass. The baseline is patched
// to the post-reconciliation state, then rolled back for whatever
// commands failed to apply; Result.Baseline holds the outcome.
//
// firstRun must be true when baseline was not loaded from a prior
// persisted run (spec.md §4.5's conflict policy applies only then);
// the passed baseline is then replaced by reconcile.SeedBaseline's
// repository for policy and left untouched. Otherwise the passed
// baseline is mutated in place.
func Run(ctx context.Context, local, remote Side, baseline *repository.Repository, firstRun bool, policy reconcile.ConflictPolicy) (*Result, error) {
	var localRepo, remoteRepo *repository.Repository
	var localBuildErr, remoteBuildErr error

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		localRepo, localBuildErr = local.BuildRepository(gctx)
		return nil
	})
	g.Go(func() error {
		remoteRepo, remoteBuildErr = remote.BuildRepository(gctx)
		return nil
	})
	g.Wait()

	switch {
	case localBuildErr != nil && remoteBuildErr != nil:
		return nil, fmt.Errorf("%w: local: %v, remote: %v", ErrBothSidesFailed, localBuildErr, remoteBuildErr)
	case localBuildErr != nil:
		return nil, &sideBuildError{side: "local", err: localBuildErr}
	case remoteBuildErr != nil:
		return nil, &sideBuildError{side: "remote", err: remoteBuildErr}
	}

	if firstRun {
		baseline = reconcile.SeedBaseline(policy, localRepo, remoteRepo, baseline.Prefixes)
	}

	localCommands, remoteCommands := reconcile.InMemory(baseline, localRepo, remoteRepo)

	var failedLocal, failedRemote []repository.Command
	var localApplyErr, remoteApplyErr error

	d, dctx := errgroup.WithContext(ctx)
	d.Go(func() error {
		failedLocal, localApplyErr = local.ApplyCommands(dctx, localCommands)
		return nil
	})
	d.Go(func() error {
		failedRemote, remoteApplyErr = remote.ApplyCommands(dctx, remoteCommands)
		return nil
	})
	d.Wait()

	// A side that returned a transport-level error is treated as
	// having failed every command it was given, not just the ones it
	// happened to report individually.
	if localApplyErr != nil {
		failedLocal = localCommands
	}
	if remoteApplyErr != nil {
		failedRemote = remoteCommands
	}

	rollback := make([]repository.Command, 0, len(failedLocal)+len(failedRemote))
	rollback = append(rollback, failedLocal...)
	rollback = append(rollback, failedRemote...)
	baseline.RollbackCommands(rollback)

	return &Result{
		Baseline:     baseline,
		FailedLocal:  failedLocal,
		FailedRemote: failedRemote,
	}, nil
}
