package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"jellysports/internal/episode"
	"jellysports/internal/processor"
)

func newParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "parse <name>...",
		Short:       "Show how file names are read, without the catalog",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			proc := processor.New(nil, nil)
			rows := make([][]string, 0, len(args))
			for _, name := range args {
				rows = append(rows, parseRow(proc.Derive(name)))
			}
			headers := []string{"Name", "Clean", "Pattern", "Show", "Season", "Event", "Session", "Episode"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft, alignRight}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}
}

func parseRow(d processor.Derived) []string {
	clean := d.Title.Clean
	if d.Title.Reversed {
		clean += " (reversed)"
	}
	if !d.Episode.Matched() {
		return []string{d.Name, clean, "none", "-", "-", "-", "-", "-"}
	}
	ep := d.Episode
	season := ep.Year
	switch {
	case ep.Preseason:
		season = "preseason"
	case ep.Week > 0 && ep.Week != episode.WeekNotApplicable:
		season = "week " + strconv.Itoa(ep.Week)
	case ep.Season > 0:
		season = strconv.Itoa(ep.Season)
	}
	session := string(d.Session.Kind)
	if d.Session.Label != "" {
		session += ": " + d.Session.Label
	}
	number := "-"
	if d.Session.Number > 0 {
		number = strconv.Itoa(d.Session.Number)
	}
	return []string{
		d.Name,
		clean,
		string(ep.Kind),
		orDash(ep.Show),
		orDash(season),
		orDash(d.Session.EventName),
		orDash(session),
		number,
	}
}
