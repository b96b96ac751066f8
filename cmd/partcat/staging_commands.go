package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"partcat/internal/projectlock"
	"partcat/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage leftover import staging areas",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list <project>",
		Short: "List staging areas left in a project",
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
			stagingDir := cfg.StagingRoot(root)
			dirs, err := staging.ListDirectories(stagingDir)
			if err != nil {
				return fmt.Errorf("list staging areas: %w", err)
			}

			if ctx.JSONMode() {
				if dirs == nil {
					dirs = []staging.DirInfo{}
				}
				return writeJSON(cmd, map[string]any{
					"staging_dir": stagingDir,
					"directories": dirs,
				})
			}
			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No staging areas found")
				return nil
			}
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				rows = append(rows, []string{
					dir.Name,
					formatAge(time.Since(dir.ModTime).Truncate(time.Minute)),
					fmt.Sprintf("%d", dir.Size),
				})
			}
			writeTable(out, []string{"Run", "Age>", "Bytes>"}, rows)
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean <project>",
		Short: "Remove stale staging areas",
		Long: `Remove staging areas left behind by interrupted or failed runs.

By default only areas older than staging.max_age_hours are removed.
Use --all to remove every staging area; no run can be active while the
project lock is held, so this is safe.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			root, err := projectRoot(args[0])
			if err != nil {
				return err
			}
			lock, err := projectlock.Acquire(cfg.LockPath(root))
			if err != nil {
				return err
			}
			defer func() { _ = lock.Release() }()

			logger := ctx.loggerValue()
			stagingDir := cfg.StagingRoot(root)
			var result staging.SweepResult
			if cleanAll {
				result = staging.CleanOrphaned(cmd.Context(), stagingDir, nil, logger)
			} else {
				result = staging.CleanStale(cmd.Context(), stagingDir, cfg.StagingMaxAge(), logger)
			}

			if ctx.JSONMode() {
				errs := make([]string, 0, len(result.Failed))
				for _, e := range result.Failed {
					errs = append(errs, fmt.Sprintf("%s: %v", e.Path, e.Err))
				}
				return writeJSON(cmd, map[string]any{
					"removed": len(result.Removed),
					"errors":  errs,
				})
			}
			out := cmd.OutOrStdout()
			if len(result.Removed) == 0 && len(result.Failed) == 0 {
				fmt.Fprintln(out, "No staging areas to clean")
				return nil
			}
			fmt.Fprintf(out, "Removed %d staging areas\n", len(result.Removed))
			for _, e := range result.Failed {
				fmt.Fprintf(out, "  Error: %s: %v\n", e.Path, e.Err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove every staging area regardless of age")
	return cmd
}
