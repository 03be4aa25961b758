package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"jellysports/internal/daemonrun"
	"jellysports/internal/logging"
	"jellysports/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check library paths, the catalog and Jellyfin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stack, err := daemonrun.Build(cfg, logging.NewNop())
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg, stack.Client, stack.Media)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				state := "ok"
				if !r.Passed {
					state = "fail"
				}
				rows = append(rows, []string{r.Name, state, r.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Check", "State", "Detail"}, rows, nil))
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
}
