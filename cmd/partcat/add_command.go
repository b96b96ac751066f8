package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"partcat/internal/archive"
	"partcat/internal/importer"
	"partcat/internal/libtable"
	"partcat/internal/preflight"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <project> <archive>",
		Short: "Import parts from a vendor zip or unpacked vendor directory",
		Args:  cobra.ExactArgs(2),
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

			src, err := archive.Open(args[1])
			if err != nil {
				return err
			}
			defer src.Close()
			bundles, err := archive.Extract(src.FS)
			if err != nil {
				return err
			}

			imp := importer.New(cfg, root, ctx.loggerValue())
			result, err := imp.Import(cmd.Context(), bundles)
			if err != nil {
				return err
			}

			if ctx.JSONMode() {
				return writeJSON(cmd, importJSON(result))
			}
			out := cmd.OutOrStdout()
			for _, part := range result.Parts {
				fmt.Fprintf(out, "Imported %s into %s (%d 3D models)\n", part.PartNumber, part.Library, len(part.Models))
			}
			for _, warning := range result.Warnings {
				fmt.Fprintf(out, "Warning: %s\n", warning)
			}
			if len(result.LegacyLibraries) > 0 {
				printMigrationSteps(out, result.LegacyLibraries)
			}
			return nil
		},
	}
}

func printMigrationSteps(out io.Writer, entries []libtable.Entry) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "New legacy symbol libraries were registered:")
	for _, entry := range entries {
		fmt.Fprintf(out, "  %s\n", entry.Name)
	}
	fmt.Fprintln(out, "To make their symbols editable:")
	fmt.Fprintln(out, "  1. Quit KiCad, then reopen the project so the library tables reload")
	fmt.Fprintln(out, "  2. In the Symbol Editor open Preferences > Manage Symbol Libraries > Project Specific Libraries")
	fmt.Fprintln(out, "  3. Select each LEGACY_ entry in turn and press Migrate Libraries")
	fmt.Fprintln(out, "  4. Press OK, quit KiCad, and run: partcat post-migrate <project>")
}

func importJSON(result importer.Result) map[string]any {
	parts := make([]map[string]any, 0, len(result.Parts))
	for _, part := range result.Parts {
		models := part.Models
		if models == nil {
			models = []string{}
		}
		parts = append(parts, map[string]any{
			"part_number": part.PartNumber,
			"category":    part.Category,
			"library":     part.Library,
			"footprint":   part.Footprint,
			"models":      models,
		})
	}
	legacy := make([]string, 0, len(result.LegacyLibraries))
	for _, entry := range result.LegacyLibraries {
		legacy = append(legacy, entry.Name)
	}
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return map[string]any{
		"run_id":           result.RunID,
		"parts":            parts,
		"files":            len(result.Files),
		"warnings":         warnings,
		"legacy_libraries": legacy,
	}
}
