package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"jellysports/internal/daemonrun"
	"jellysports/internal/processor"
	"jellysports/internal/services"
	"jellysports/internal/watcher"
)

const defaultDepth = 1

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var depth int

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Resolve one file and write its sidecars",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", path)
			}
			if depth < 0 {
				depth = depthBelow(cfg.Paths.LibraryRoots, path)
			}

			logger, err := ctx.logger()
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			stack, err := daemonrun.Build(cfg, logger)
			if err != nil {
				return err
			}

			rec, err := stack.Processor.Process(cmd.Context(), path, depth)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderFields(recordFields(rec)))
			if errors.Is(err, services.ErrRejected) {
				return fmt.Errorf("record rejected: %w", err)
			}
			return err
		},
	}

	cmd.Flags().IntVar(&depth, "depth", -1, "Folders between the library root and the file's folder (detected from library roots when omitted)")
	return cmd
}

// depthBelow measures path from the nearest library root holding it.
func depthBelow(roots []string, path string) int {
	best, found := 0, false
	for _, root := range roots {
		d, ok := watcher.Depth(root, path)
		if !ok {
			continue
		}
		if !found || d < best {
			best, found = d, true
		}
	}
	if !found {
		return defaultDepth
	}
	return best
}

func recordFields(rec processor.Record) [][2]string {
	strategy := rec.Strategy
	if strategy == "" {
		strategy = "none"
	}
	return [][2]string{
		{"File", rec.Path},
		{"Depth", strconv.Itoa(rec.Depth)},
		{"Show", orDash(rec.Show)},
		{"Season", strconv.Itoa(rec.Season)},
		{"Episode", strconv.Itoa(rec.Episode)},
		{"Title", orDash(rec.Title)},
		{"Season name", orDash(rec.SeasonName)},
		{"Aired", orDash(rec.AirDate)},
		{"Venue", orDash(rec.Venue)},
		{"Event id", orDash(rec.EventID)},
		{"Catalog match", strategy},
		{"Season poster", orDash(rec.Artwork.SeasonPoster)},
	}
}
