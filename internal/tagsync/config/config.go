// Package config loads the tool's configuration from
// nextcloud-tag-sync.toml, overlaid by NCTS_-prefixed environment
// variables, matching spec.md §6 and original_source/src/config.rs's
// figment-based layering (Serialized defaults -> Toml -> Env).
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/reconcile"
	"github.com/ede1998/nextcloud-tag-sync-go/internal/tagsync/syncedpath"
)

// fileName is the config file searched for in the current working
// directory and then in os.UserConfigDir(), mirroring figment's
// Toml::file_exact(...).or_else(...) chain in config.rs.
const fileName = "nextcloud-tag-sync.toml"

// Prefix is the TOML representation of one local<->remote root
// mapping, decoded into a syncedpath.PrefixMapping during Load.
type Prefix struct {
	Local  string `toml:"local"`
	Remote string `toml:"remote"`
}

// Config is the fully resolved configuration, matching spec.md §6's
// table field for field.
type Config struct {
	MaxConcurrentRequests int                      `toml:"max_concurrent_requests"`
	KeepSideOnConflict    reconcile.ConflictPolicy `toml:"keep_side_on_conflict"`
	Prefixes              []Prefix                 `toml:"prefixes"`
	NextcloudInstance     string                   `toml:"nextcloud_instance"`
	User                  string                   `toml:"user"`
	Token                 string                   `toml:"token"`
	LocalTagPropertyName  string                   `toml:"local_tag_property_name"`
	TagDatabase           string                   `toml:"tag_database"`
	DryRun                bool                     `toml:"dry_run"`
}

// Default mirrors original_source/src/config.rs's Default impl: a
// configuration that is deliberately unusable for real syncing
// (missing instance/credentials) but safe to merge TOML and env
// values on top of, and safe by default (dry_run: true).
func Default() Config {
	return Config{
		MaxConcurrentRequests: 10,
		KeepSideOnConflict:    reconcile.Both,
		NextcloudInstance:     "https://missing_nextcloud_instance",
		User:                  "missing_username",
		Token:                 "missing_token",
		LocalTagPropertyName:  "user.xdg.tags",
		TagDatabase:           "nextcloud-tag-sync.db.json",
		DryRun:                true,
	}
}

// Load resolves the configuration: start from Default, merge in
// whichever of CWD or os.UserConfigDir() has a nextcloud-tag-sync.toml
// (CWD takes priority, matching figment's .exact(...).or_else(...)
// fallback), then overlay NCTS_-prefixed environment variables.
// Prefix entries are not validated here; PrefixMappings reports a
// malformed remote root.
func Load() (Config, error) {
	cfg := Default()

	path, err := findConfigFile()
	if err != nil {
		return Config{}, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := overlayEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func findConfigFile() (string, error) {
	if _, err := os.Stat(fileName); err == nil {
		return fileName, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("checking for config file in working directory: %w", err)
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		// No config directory available (e.g. $HOME unset): fall back
		// to compiled-in defaults, same as a missing file.
		return "", nil
	}
	candidate := filepath.Join(dir, fileName)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}
	return "", nil
}

// PrefixMappings decodes the TOML-level Prefix entries into
// syncedpath.PrefixMapping, validating each remote root.
func (c Config) PrefixMappings() (syncedpath.List, error) {
	out := make(syncedpath.List, len(c.Prefixes))
	for i, p := range c.Prefixes {
		pm, err := syncedpath.NewPrefixMapping(p.Local, p.Remote)
		if err != nil {
			return nil, fmt.Errorf("prefix %d: %w", i, err)
		}
		out[i] = pm
	}
	return out, nil
}

// LogValue implements slog.LogValuer, redacting the credential token
// to its last three characters the same way config.rs's Display impl
// prints "...xyz" instead of the real token.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("max_concurrent_requests", c.MaxConcurrentRequests),
		slog.String("keep_side_on_conflict", c.KeepSideOnConflict.String()),
		slog.Int("prefix_count", len(c.Prefixes)),
		slog.String("nextcloud_instance", c.NextcloudInstance),
		slog.String("user", c.User),
		slog.String("token", "..."+lastNChars(c.Token, 3)),
		slog.String("local_tag_property_name", c.LocalTagPropertyName),
		slog.String("tag_database", c.TagDatabase),
		slog.Bool("dry_run", c.DryRun),
	)
}

func lastNChars(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return string(r)
	}
	return string(r[len(r)-n:])
}
