package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psalterhq/psalter/internal/cache"
	"github.com/psalterhq/psalter/internal/mediautil"
)

var cacheConfirm bool

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "manage the hymn cache",
	Long:  `manage cached hymn records, including viewing statistics, pruning expired entries, and clearing the cache.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "show cache statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cache.GetGlobalStore()
		defer store.Close()

		count, sizeBytes, err := store.Stats()
		if err != nil {
			return fmt.Errorf("failed to get cache stats: %w", err)
		}

		location := store.Location()
		if location == "" {
			location = "(memory only)"
		}

		fmt.Println("cache statistics:")
		fmt.Printf("  location: %s\n", location)
		fmt.Printf("  entries:  %d\n", count)
		fmt.Printf("  size:     %s\n", mediautil.FormatFileSize(sizeBytes))

		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "remove all cached hymns",
	Long:  `remove all cached hymn records. use --confirm to skip the prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cache.GetGlobalStore()
		defer store.Close()

		if !cacheConfirm {
			fmt.Print("clear the entire hymn cache? (y/n): ")
			var response string
			fmt.Scanln(&response)
			response = strings.ToLower(response)
			if response != "y" && response != "yes" {
				fmt.Println("cancelled")
				return nil
			}
		}

		if err := store.Clear(); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		fmt.Println("cache cleared")
		return nil
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := cache.GetGlobalStore()
		defer store.Close()

		pruned, err := store.Prune()
		if err != nil {
			return fmt.Errorf("failed to prune cache: %w", err)
		}

		fmt.Printf("removed %d expired entries\n", pruned)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePruneCmd)

	cacheClearCmd.Flags().BoolVar(&cacheConfirm, "confirm", false, "skip confirmation prompt")
}
