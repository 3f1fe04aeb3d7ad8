package config

import (
	"fmt"
	"os"
	"strconv"
)

// envPrefix matches original_source/src/config.rs's
// Env::prefixed("NCTS_"): each field is overlaid from
// NCTS_<UPPER_SNAKE_CASE_OF_THE_TOML_KEY> when that variable is set.
const envPrefix = "NCTS_"

// overlayEnv mirrors figment's Env provider field by field, since this
// module's dependency graph has no struct-tag-driven env binding
// library (see DESIGN.md); the field set is small and fixed, so a
// direct mapping costs little and keeps every override visible in one
// place.
func overlayEnv(cfg *Config) error {
	if v, ok := lookupEnv("MAX_CONCURRENT_REQUESTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, "MAX_CONCURRENT_REQUESTS", err)
		}
		cfg.MaxConcurrentRequests = n
	}
	if v, ok := lookupEnv("KEEP_SIDE_ON_CONFLICT"); ok {
		if err := cfg.KeepSideOnConflict.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, "KEEP_SIDE_ON_CONFLICT", err)
		}
	}
	if v, ok := lookupEnv("NEXTCLOUD_INSTANCE"); ok {
		cfg.NextcloudInstance = v
	}
	if v, ok := lookupEnv("USER"); ok {
		cfg.User = v
	}
	if v, ok := lookupEnv("TOKEN"); ok {
		cfg.Token = v
	}
	if v, ok := lookupEnv("LOCAL_TAG_PROPERTY_NAME"); ok {
		cfg.LocalTagPropertyName = v
	}
	if v, ok := lookupEnv("TAG_DATABASE"); ok {
		cfg.TagDatabase = v
	}
	if v, ok := lookupEnv("DRY_RUN"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, "DRY_RUN", err)
		}
		cfg.DryRun = b
	}
	return nil
}

func lookupEnv(suffix string) (string, bool) {
	return os.LookupEnv(envPrefix + suffix)
}
