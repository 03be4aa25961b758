package main

import (
	"github.com/spf13/cobra"

	"jellysports/internal/daemonrun"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [root]...",
		Short: "Watch library roots in the foreground",
		Long: "Watch the given library roots, the configured paths.library_roots, or the\n" +
			"Jellyfin library folders, and resolve every video file that settles.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return daemonrun.Run(cmd.Context(), cfg, daemonrun.Options{
				LogLevel: ctx.logLevel(),
				Roots:    args,
			})
		},
	}
}
