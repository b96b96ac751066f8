package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"partcat/internal/migrate"
)

func newPostMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "post-migrate <project>",
		Short: "Merge symbol libraries migrated in KiCad back into their category library",
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

			result, err := migrate.New(cfg, root, ctx.loggerValue()).Merge(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				merged := make([]map[string]any, 0, len(result.Merged))
				for _, m := range result.Merged {
					merged = append(merged, map[string]any{
						"migrated": m.Migrated,
						"library":  m.Library,
						"symbols":  m.Symbols,
					})
				}
				return writeJSON(cmd, map[string]any{
					"run_id":  result.RunID,
					"merged":  merged,
					"removed": len(result.Removed),
				})
			}
			out := cmd.OutOrStdout()
			for _, m := range result.Merged {
				fmt.Fprintf(out, "Merged %s into %s: %s\n", m.Migrated, m.Library, strings.Join(m.Symbols, ", "))
			}
			fmt.Fprintln(out, "Symbol libraries are ready. Reopen KiCad to pick up the changes.")
			return nil
		},
	}
}
