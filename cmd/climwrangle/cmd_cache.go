package main

import (
	"fmt"
	"path/filepath"

	"github.com/pcmdi/climwrangle/internal/cache"
	"github.com/spf13/cobra"
)

var cacheDir string

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the search response cache",
		Long: `Manage the search response cache.

When cache.enabled is set in the config file, raw ESGF search responses are
stored on disk keyed by request URL and reused for 24 hours.`,
	}

	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheClearCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the search response cache",
		Long: `Clear all cached search responses.

The directory is removed only if it holds nothing but cache entries.`,
		RunE: cacheClearE,
	}

	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "Cache directory to clear (default from config)")

	return cmd
}

func cacheClearE(cmd *cobra.Command, args []string) error {
	dir := cacheDir
	if dir == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dir = cfg.Cache.Dir
	}

	// Resolve to absolute path
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolving cache directory: %w", err)
	}

	c := cache.New(absDir, cache.DefaultTTL)
	if err := c.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", absDir) //nolint:errcheck
	return nil
}
