package main

import (
	"fmt"
	"os"
	"path/filepath"

	"bayesim/app"
	"bayesim/domain/core"

	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var flags runFlags
	var out, runID string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run (or replay) a simulation and write it as an .xlsx workbook",
		Long: `Write the samples, marginals, joint tables, profiles and insights of a run
to a spreadsheet. With --run the recorded run is replayed from its seed.

Example: bayesim export --samples 5000 --seed 7 --out exports/run.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := openContainer(ctx)
			if err != nil {
				return err
			}
			defer c.Shutdown(ctx)

			var result *app.SimulationResult
			if runID != "" {
				id, err := core.ParseRunID(runID)
				if err != nil {
					return err
				}
				result, err = c.Simulation.Replay(ctx, id)
				if err != nil {
					return err
				}
			} else {
				result, err = c.Simulation.Run(ctx, flags.request(cmd, c.Config))
				if err != nil {
					return err
				}
			}

			path := out
			if path == "" {
				path = filepath.Join(c.Config.Paths.ExportDir, fmt.Sprintf("run-%s.xlsx", result.RunID))
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return fmt.Errorf("failed to create export directory: %w", err)
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			if err := c.Exporter.Export(ctx, f, result.Batch, result.Summary); err != nil {
				f.Close()
				return fmt.Errorf("failed to export run %s: %w", result.RunID, err)
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d samples of run %s to %s\n", result.Batch.Len(), result.RunID, path)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Output path (default EXPORT_DIR/run-<id>.xlsx)")
	cmd.Flags().StringVar(&runID, "run", "", "Replay a recorded run instead of starting a new one")
	return cmd
}
