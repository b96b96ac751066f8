package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"partcat/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check <project>",
		Short: "Verify partcat can write to a project",
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
			results := preflight.RunAll(cfg, root)

			if ctx.JSONMode() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
				return preflight.Err(results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				status := "ok"
				if !r.Passed {
					status = "FAIL"
				}
				rows = append(rows, []string{r.Name, status, r.Detail})
			}
			writeTable(cmd.OutOrStdout(), []string{"Check", "Status", "Detail"}, rows)
			if err := preflight.Err(results); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Project is ready")
			return nil
		},
	}
}
