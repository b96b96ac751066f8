package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"partcat/internal/importer"
	"partcat/internal/preflight"
)

func newNewPartCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "new <project> <part> <category>",
		Short: "Create an empty symbol and footprint for a hand-drawn part",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := projectRoot(args[0])
			if err != nil {
				return err
			}
			if err := preflight.Err(preflight.RunAll(cfg, root)); err != nil {
				return err
			}

			result, err := importer.New(cfg, root, ctx.loggerValue()).NewPart(cmd.Context(), args[1], args[2])
			if err != nil {
				return err
			}
			if ctx.JSONMode() {
				return writeJSON(cmd, importJSON(result))
			}
			for _, part := range result.Parts {
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s in %s (footprint %s)\n", part.PartNumber, part.Library, part.Footprint)
			}
			return nil
		},
	}
}
