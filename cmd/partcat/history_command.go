package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"partcat/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var partFilter string
	var limit int

	cmd := &cobra.Command{
		Use:   "history <project>",
		Short: "Show parts imported, created, and migrated in a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := projectRoot(args[0])
			if err != nil {
				return err
			}
			path := cfg.HistoryPath(root)
			if path == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "History is disabled in the configuration")
				return nil
			}

			store, err := history.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer store.Close()
			events, err := store.List(cmd.Context(), history.Filter{PartNumber: partFilter, Limit: limit})
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				if events == nil {
					events = []history.Event{}
				}
				return writeJSON(cmd, events)
			}
			out := cmd.OutOrStdout()
			if len(events) == 0 {
				fmt.Fprintln(out, "No history recorded")
				return nil
			}
			rows := make([][]string, 0, len(events))
			for _, ev := range events {
				rows = append(rows, []string{
					ev.CreatedAt.Local().Format(time.DateTime),
					string(ev.Action),
					ev.PartNumber,
					ev.Library,
					ev.Version,
					strconv.Itoa(ev.Files),
				})
			}
			writeTable(out, []string{"When", "Action", "Part", "Library", "Version", "Files>"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&partFilter, "part", "", "Only show events for this part number")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Maximum number of events to show (0 for all)")
	return cmd
}
