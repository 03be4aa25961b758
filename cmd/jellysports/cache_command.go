package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"jellysports/internal/catalogcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the catalog cache",
	}
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))
	return cacheCmd
}

func openCache(ctx *commandContext) (*catalogcache.Cache, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return catalogcache.New(nil, cfg.Paths.CacheDir,
		catalogcache.WithTTL(
			time.Duration(cfg.Sportsdb.MemoryTTLSeconds)*time.Second,
			time.Duration(cfg.Sportsdb.DiskTTLSeconds)*time.Second,
		),
	), nil
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show cache files and their age",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, 2)
			for _, st := range cache.Status() {
				rows = append(rows, statusRow(st))
			}
			headers := []string{"File", "Present", "Entries", "Cached", "Expired", "Path"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignLeft}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
}

func statusRow(st catalogcache.FileStatus) []string {
	if !st.Exists {
		return []string{st.Name, "no", "-", "-", "-", st.Path}
	}
	if st.Err != nil {
		return []string{st.Name, "corrupt", "-", "-", "-", st.Path}
	}
	return []string{
		st.Name,
		"yes",
		strconv.Itoa(st.Entries),
		st.CachedAt.Local().Format(time.DateTime),
		yesNo(st.Expired),
		st.Path,
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the cache files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx)
			if err != nil {
				return err
			}
			if err := cache.Clear(); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Catalog cache cleared")
			return nil
		},
	}
}
