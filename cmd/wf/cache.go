package main

import (
	"fmt"
	"time"

	"github.com/franz/wayfarer/internal/util"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the offline directions cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show directions cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove cached directions",
	Long: `Remove cached directions responses. With --older-than only entries
cached before that age are removed.`,
	Args: cobra.NoArgs,
	RunE: runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)

	cacheClearCmd.Flags().Duration("older-than", 0, "only remove entries older than this (e.g. 720h)")
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	_, cache, err := newDirections(db)
	if err != nil {
		return err
	}

	entries, hits, err := cache.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read cache stats: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cached routes: %d\n", entries)
	fmt.Fprintf(out, "Cache hits:    %d\n", hits)
	if ttl := GetConfigDuration("cache-ttl"); ttl > 0 {
		fmt.Fprintf(out, "Lifetime:      %s\n", ttl)
	} else {
		fmt.Fprintln(out, "Lifetime:      never expires")
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	olderThan, _ := cmd.Flags().GetDuration("older-than")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	_, cache, err := newDirections(db)
	if err != nil {
		return err
	}

	if olderThan > 0 {
		n, err := cache.ClearOldEntries(olderThan)
		if err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}
		util.SuccessLog("Removed %d cached routes older than %s", n, olderThan.Round(time.Second))
		return nil
	}

	if err := cache.ClearCache(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	util.SuccessLog("Directions cache cleared")
	return nil
}
