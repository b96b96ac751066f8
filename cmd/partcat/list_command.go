package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"partcat/internal/catalog"
	"partcat/internal/libtable"
)

type listedEntry struct {
	Table  string `json:"table"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	URI    string `json:"uri"`
	Legacy bool   `json:"legacy"`
}

func newListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <project>",
		Short: "Show the project's footprint and symbol library tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := projectRoot(args[0])
			if err != nil {
				return err
			}

			var entries []listedEntry
			for _, kind := range []libtable.Kind{libtable.KindFootprint, libtable.KindSymbol} {
				table, err := libtable.LoadOrCreate(kind, libtable.ProjectPath(root, kind))
				if err != nil {
					return err
				}
				for _, e := range table.Entries() {
					entries = append(entries, listedEntry{
						Table:  libtable.FileName(kind),
						Name:   e.Name,
						Type:   e.Type,
						URI:    e.URI,
						Legacy: catalog.IsLegacyNickname(e.Name),
					})
				}
			}

			if ctx.JSONMode() {
				if entries == nil {
					entries = []listedEntry{}
				}
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No libraries registered")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Table, e.Name, e.Type, e.URI})
			}
			writeTable(out, []string{"Table", "Name", "Type", "URI"}, rows)
			return nil
		},
	}
}
