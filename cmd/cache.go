package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/internal/iocache"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cache is the disk cache the cache subcommands operate on.
var cache *iocache.DiskCache

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup(_ *cobra.Command, _ []string) error {
	if err := loadInput(); err != nil {
		return err
	}

	dir := contract.ExpandHome(viper.GetString("cache-dir"))
	if dir == "" {
		dir = contract.GetDefaultCacheDir()
	}
	ttl := contract.DefaultCacheTTL
	if raw := viper.GetString("cache-ttl"); raw != "" {
		d, err := contract.ParseLookbackDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid cache-ttl: %w", err)
		}
		ttl = d
	}

	cfg.CacheDir = dir
	cfg.CacheTTL = ttl
	cache = iocache.NewDiskCache(dir, ttl)
	return nil
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by scrape. This avoids host and collection
// validation for simple cache operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the on-disk cache of upstream responses",
	Long: `Manage the cache of raw DevOps and Sonar responses.

Every response is stored as one JSON record under the cache directory,
keyed by collection, project and resource. Fresh records are never fetched
again, which is what makes reruns after a failure cheap.

Subcommands:
  status     - Show record counts, sizes and age
  clear      - Remove every cached record
  invalidate - Remove one record or subtree so it is fetched again

Examples:
  # Check cache status
  devhealth cache status

  # Refetch the builds of one project on the next scrape
  devhealth cache invalidate main payments builds`,
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display cache statistics",
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := cache.Status()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(os.Stdout, status)
	},
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached responses",
	Long: `Delete the whole cache directory. The next scrape fetches everything again.

Examples:
  # Clear the default cache
  devhealth cache clear

  # Clear a custom cache directory
  DEVHEALTH_CACHE_DIR=/tmp/dh-cache devhealth cache clear`,
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, _ []string) {
		if err := cache.Clear(); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheInvalidateCmd removes one cache key or subtree.
var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <collection> [project] [resource...]",
	Short: "Remove cached responses below a key prefix",
	Long: `Remove the record named by the given key segments and everything below it.

Examples:
  # Forget everything about one collection
  devhealth cache invalidate main

  # Forget the repositories of one project
  devhealth cache invalidate main payments repositories`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: cacheSetup,
	Run: func(_ *cobra.Command, args []string) {
		if err := cache.Invalidate(args); err != nil {
			contract.LogFatal("Failed to invalidate cache", err)
		}
		fmt.Printf("Invalidated %s.\n", strings.Join(args, "/"))
	},
}
