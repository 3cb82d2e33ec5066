package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dshills/codecritic/internal/cache"
)

func newCacheCmd() *cobra.Command {
	var cacheDir string

	root := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the review cache",
	}
	root.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Cache directory (default: ~/.codecritic)")

	root.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cacheDir, func(s *cache.Store) error {
				stats, err := s.Stats()
				if err != nil {
					return err
				}
				fmt.Printf("Total entries:   %d\n", stats.TotalEntries)
				fmt.Printf("Valid entries:   %d\n", stats.ValidEntries)
				fmt.Printf("Expired entries: %d\n", stats.ExpiredEntries)
				for category, count := range stats.ByCategory {
					fmt.Printf("  %s: %d\n", category, count)
				}
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "cleanup",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cacheDir, func(s *cache.Store) error {
				n, err := s.CleanupExpired()
				if err != nil {
					return err
				}
				fmt.Printf("Removed %d expired entries\n", n)
				return nil
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete every cache entry",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cacheDir, func(s *cache.Store) error {
				if err := s.Clear(); err != nil {
					return err
				}
				fmt.Println("Cache cleared")
				return nil
			})
		},
	})

	return root
}

func withStore(dir string, fn func(*cache.Store) error) error {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return exitError(3, "no home directory: %v", err)
		}
		dir = filepath.Join(home, ".codecritic")
	}
	store, err := cache.Open(filepath.Join(dir, "cache.db"), 0, nil)
	if err != nil {
		return exitError(3, "open cache: %v", err)
	}
	defer store.Close()
	return fn(store)
}
