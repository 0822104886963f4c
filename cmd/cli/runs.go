package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"bayesim/domain/core"
	"bayesim/domain/scenario"
	"bayesim/internal/report"

	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded simulation runs",
		Long: `List runs recorded in the ledger, newest first. Without DATABASE_URL the
ledger lives in memory and only holds runs of the current process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			runs, err := c.Simulation.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCREATED\tSAMPLES\tSEED\tWORKERS\tFINGERPRINT\tP(CANCER)")
			for _, r := range runs {
				cancer := "-"
				for _, rate := range r.Rates {
					if rate.Variable == scenario.LungCancer {
						cancer = report.Percent(rate.Rate)
					}
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.SampleCount, r.Seed, r.Workers, r.Fingerprint.Short(), cancer)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list (0 = all)")

	cmd.AddCommand(&cobra.Command{
		Use:   "show [run-id]",
		Short: "Print one recorded run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			run, err := c.Simulation.GetRun(cmd.Context(), id)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(run)
		},
	})
	return cmd
}
