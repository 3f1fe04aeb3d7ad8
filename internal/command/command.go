// Package command wires the cobra command tree around one
// reconciliation run: load configuration, load or seed the baseline,
// build both collaborators, hand everything to executor.Run, then
// persist the result. Grounded on original_source/src/main.rs's single
// load -> initialize -> sync -> persist sequence — the tool runs one
// pass per invocation rather than looping internally; a calling cron
// job or systemd timer is responsible for repetition.
package command

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/logsetup"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/config"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/executor"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/localfs"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/remotefs"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/repository"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/syncedpath"
)

// NewRootCommand builds the tagsync command tree.
func NewRootCommand() *cobra.Command {
	var logLevel string
	var dryRunOverride bool

	cmd := &cobra.Command{
		Use:           "tagsync",
		Short:         "Reconcile file tags between a local filesystem and a Nextcloud instance",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := logsetup.SetupLogger(logLevel, os.Stderr); err != nil {
				return fmt.Errorf("setting up logging: %w", err)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading configuration: %w", err)
			}
			if cmd.Flags().Changed("dry-run") {
				cfg.DryRun = dryRunOverride
			}

			logsetup.Infof("starting with configuration: %v", cfg.LogValue())
			return RunOnce(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "info", "minimum log level: debug, info, warn, error, critical")
	cmd.Flags().BoolVar(&dryRunOverride, "dry-run", false, "override the configured dry_run setting")

	return cmd
}

// RunOnce performs one full load-reconcile-persist pass, the same
// sequence original_source/src/main.rs runs once per process
// invocation.
func RunOnce(ctx context.Context, cfg config.Config) error {
	prefixes, err := cfg.PrefixMappings()
	if err != nil {
		return fmt.Errorf("resolving prefix mappings: %w", err)
	}

	baseline, firstRun, err := loadOrSeedBaseline(cfg.TagDatabase, prefixes)
	if err != nil {
		return err
	}

	local := localfs.New(prefixes, cfg.LocalTagPropertyName, cfg.MaxConcurrentRequests, cfg.DryRun)
	remote, err := remotefs.New(cfg.NextcloudInstance, cfg.User, cfg.Token, prefixes, cfg.MaxConcurrentRequests, cfg.DryRun)
	if err != nil {
		return fmt.Errorf("setting up remote collaborator: %w", err)
	}

	result, err := executor.Run(ctx, local, remote, baseline, firstRun, cfg.KeepSideOnConflict)
	if err != nil {
		return fmt.Errorf("reconciling: %w", err)
	}

	for _, c := range result.FailedLocal {
		logsetup.Warnf("local command did not take effect: %+v", c)
	}
	for _, c := range result.FailedRemote {
		logsetup.Warnf("remote command did not take effect: %+v", c)
	}

	if err := result.Baseline.Persist(cfg.TagDatabase); err != nil {
		return fmt.Errorf("persisting baseline: %w", err)
	}

	logsetup.Infof("reconciliation complete: %s", result.Baseline)
	return nil
}

// loadOrSeedBaseline loads the baseline persisted by a prior run. A
// missing baseline file is not an error: it means this is the first
// run for this prefix set, so an empty repository is returned with
// firstRun set, and executor.Run seeds the baseline from the
// configured conflict policy (Left: local, Right: remote, Both: empty).
func loadOrSeedBaseline(path string, prefixes syncedpath.List) (*repository.Repository, bool, error) {
	baseline, err := repository.Load(path)
	switch {
	case errors.Is(err, repository.ErrBaselineNotFound):
		return repository.New(prefixes), true, nil
	case err != nil:
		return nil, false, fmt.Errorf("loading baseline: %w", err)
	}

	if err := baseline.ValidatePrefixMapping(prefixes); err != nil {
		return nil, false, fmt.Errorf("validating baseline against configured prefixes: %w", err)
	}
	return baseline, false, nil
}
