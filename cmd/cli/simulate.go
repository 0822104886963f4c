package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"bayesim/app"
	"bayesim/domain/scenario"
	"bayesim/domain/stats"
	"bayesim/internal/config"
	"bayesim/internal/report"

	"github.com/spf13/cobra"
)

// runFlags are the simulation parameters shared by simulate and export.
type runFlags struct {
	smoking         float64
	cancer          float64
	breath          float64
	cancerSmoker    float64
	cancerNonSmoker float64
	breathCancer    float64
	breathNoCancer  float64
	samples         int
	seed            int64
	workers         int
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Float64Var(&f.smoking, "smoking", 0, "P(Smoking)")
	fs.Float64Var(&f.cancer, "cancer", 0, "P(LungCancer) for smokers and non-smokers alike")
	fs.Float64Var(&f.breath, "breath", 0, "P(ShortnessOfBreath) with and without cancer alike")
	fs.Float64Var(&f.cancerSmoker, "cancer-smoker", 0, "P(LungCancer | smoker)")
	fs.Float64Var(&f.cancerNonSmoker, "cancer-nonsmoker", 0, "P(LungCancer | non-smoker)")
	fs.Float64Var(&f.breathCancer, "breath-cancer", 0, "P(ShortnessOfBreath | cancer)")
	fs.Float64Var(&f.breathNoCancer, "breath-no-cancer", 0, "P(ShortnessOfBreath | no cancer)")
	fs.IntVar(&f.samples, "samples", 0, "Number of samples (default SAMPLE_COUNT)")
	fs.Int64Var(&f.seed, "seed", 0, "Random seed (default SEED)")
	fs.IntVar(&f.workers, "workers", 0, "Sampling workers (default SAMPLER_WORKERS)")

	cmd.MarkFlagsMutuallyExclusive("cancer", "cancer-smoker")
	cmd.MarkFlagsMutuallyExclusive("cancer", "cancer-nonsmoker")
	cmd.MarkFlagsMutuallyExclusive("breath", "breath-cancer")
	cmd.MarkFlagsMutuallyExclusive("breath", "breath-no-cancer")
}

// request overlays the flags that were set on the configured defaults.
func (f *runFlags) request(cmd *cobra.Command, cfg *config.Config) app.SimulationRequest {
	changed := cmd.Flags().Changed
	req := app.SimulationRequest{
		Inputs:  cfg.Inputs(),
		Samples: cfg.Sampling.SampleCount,
		Seed:    cfg.Sampling.Seed,
		Workers: cfg.Sampling.Workers,
	}

	if changed("smoking") {
		req.Inputs.Smoking = f.smoking
	}
	if changed("cancer") {
		req.Inputs.LungCancer = scenario.ConditionalRisk{GivenPositive: f.cancer, GivenNegative: f.cancer}
	}
	if changed("breath") {
		req.Inputs.Breath = scenario.ConditionalRisk{GivenPositive: f.breath, GivenNegative: f.breath}
	}
	if changed("cancer-smoker") {
		req.Inputs.LungCancer.GivenPositive = f.cancerSmoker
	}
	if changed("cancer-nonsmoker") {
		req.Inputs.LungCancer.GivenNegative = f.cancerNonSmoker
	}
	if changed("breath-cancer") {
		req.Inputs.Breath.GivenPositive = f.breathCancer
	}
	if changed("breath-no-cancer") {
		req.Inputs.Breath.GivenNegative = f.breathNoCancer
	}
	if changed("samples") {
		req.Samples = f.samples
	}
	if changed("seed") {
		req.Seed = f.seed
	}
	if changed("workers") {
		req.Workers = f.workers
	}
	return req
}

func newSimulateCmd() *cobra.Command {
	var flags runFlags
	var format string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run a simulation and print its summary",
		Long: `Build the network from the given probabilities, draw samples and print
marginals, joint tables and insights.

Example: bayesim simulate --smoking 0.3 --cancer-smoker 0.9 --cancer-nonsmoker 0.01 --samples 10000 --seed 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" && format != "markdown" {
				return fmt.Errorf("unknown format %q (use table, json or markdown)", format)
			}

			c, err := openContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			result, err := c.Simulation.Run(cmd.Context(), flags.request(cmd, c.Config))
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), format, result)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table, json or markdown")
	return cmd
}

func printResult(w io.Writer, format string, result *app.SimulationResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Record  interface{}   `json:"record"`
			Summary stats.Summary `json:"summary"`
		}{result.Record, result.Summary})
	case "markdown":
		_, err := fmt.Fprint(w, report.Markdown(report.Header{
			RunID:       result.RunID.String(),
			Seed:        result.Record.Seed,
			Workers:     result.Record.Workers,
			Fingerprint: result.Record.Fingerprint.Short(),
			Inputs:      result.Record.Inputs,
		}, result.Summary))
		return err
	default:
		return printTables(w, result)
	}
}

func printTables(w io.Writer, result *app.SimulationResult) error {
	s := result.Summary
	fmt.Fprintf(w, "Run %s: %d samples, seed %d, fingerprint %s\n\n", result.RunID, s.Total, result.Record.Seed, result.Record.Fingerprint.Short())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tLABEL\tCOUNT\tFREQUENCY")
	for _, m := range s.Marginals {
		for i, label := range m.Labels {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\n", m.Variable, label, m.Counts[i], m.Frequencies[i])
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, j := range s.Joints {
		fmt.Fprintf(w, "\n%s x %s\n", j.RowVariable, j.ColumnVariable)
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, c := range j.ColumnLabels {
			fmt.Fprintf(tw, "\t%s", c)
		}
		fmt.Fprintln(tw)
		for r, label := range j.RowLabels {
			fmt.Fprint(tw, label)
			for _, n := range j.Counts[r] {
				fmt.Fprintf(tw, "\t%d", n)
			}
			fmt.Fprintln(tw)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w, "\nInsights")
	for _, r := range s.Rates {
		fmt.Fprintf(w, "  P(%s=%s) = %s  [95%% CI %s, %s]\n", r.Variable, r.Label, report.Percent(r.Rate), report.Percent(r.Lower), report.Percent(r.Upper))
	}
	return nil
}
