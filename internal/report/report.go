// Package report renders a simulation summary as markdown and HTML.
package report

import (
	"fmt"
	"html/template"
	"sort"
	"strings"

	"bayesim/domain/scenario"
	"bayesim/domain/stats"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Header identifies the run a report describes.
type Header struct {
	RunID       string
	Seed        int64
	Workers     int
	Fingerprint string
	Inputs      scenario.Inputs
}

// Markdown writes the summary as a markdown document: inputs, per-variable
// distributions, joint tables, profiles and insights.
func Markdown(h Header, s stats.Summary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Simulation report\n\n")
	if h.RunID != "" {
		fmt.Fprintf(&b, "Run `%s`, seed %d, %d worker(s), %d samples", h.RunID, h.Seed, max(h.Workers, 1), s.Total)
	} else {
		fmt.Fprintf(&b, "Seed %d, %d samples", h.Seed, s.Total)
	}
	if h.Fingerprint != "" {
		fmt.Fprintf(&b, ", fingerprint `%s`", h.Fingerprint)
	}
	b.WriteString(".\n\n")

	b.WriteString("## Network parameters\n\n")
	b.WriteString("| Parameter | Probability |\n|---|---|\n")
	fmt.Fprintf(&b, "| P(Smoking) | %.4f |\n", h.Inputs.Smoking)
	fmt.Fprintf(&b, "| P(LungCancer \\| smoker) | %.4f |\n", h.Inputs.LungCancer.GivenPositive)
	fmt.Fprintf(&b, "| P(LungCancer \\| non-smoker) | %.4f |\n", h.Inputs.LungCancer.GivenNegative)
	fmt.Fprintf(&b, "| P(ShortnessOfBreath \\| cancer) | %.4f |\n", h.Inputs.Breath.GivenPositive)
	fmt.Fprintf(&b, "| P(ShortnessOfBreath \\| no cancer) | %.4f |\n\n", h.Inputs.Breath.GivenNegative)

	b.WriteString("## Distributions\n\n")
	for _, m := range s.Marginals {
		fmt.Fprintf(&b, "### %s\n\n| Label | Count | Frequency |\n|---|---|---|\n", m.Variable)
		for i, label := range m.Labels {
			fmt.Fprintf(&b, "| %s | %d | %.4f |\n", label, m.Counts[i], m.Frequencies[i])
		}
		b.WriteString("\n")
	}

	if len(s.Joints) > 0 {
		b.WriteString("## Joint counts\n\n")
		for i, j := range s.Joints {
			fmt.Fprintf(&b, "### %s × %s\n\n", j.RowVariable, j.ColumnVariable)
			fmt.Fprintf(&b, "| %s \\\\ %s |", j.RowVariable, j.ColumnVariable)
			for _, c := range j.ColumnLabels {
				fmt.Fprintf(&b, " %s |", c)
			}
			b.WriteString("\n|---|" + strings.Repeat("---|", len(j.ColumnLabels)) + "\n")
			for r, label := range j.RowLabels {
				fmt.Fprintf(&b, "| %s |", label)
				for _, n := range j.Counts[r] {
					fmt.Fprintf(&b, " %d |", n)
				}
				b.WriteString("\n")
			}
			if i < len(s.Independence) {
				ind := s.Independence[i]
				fmt.Fprintf(&b, "\nχ² = %.3f (df %d), p = %.4g, Cramér's V = %.3f, mutual information %.4f bits\n",
					ind.ChiSquare, ind.DegreesOfFreedom, ind.PValue, ind.CramersV, ind.MutualInformation)
			}
			b.WriteString("\n")
		}
	}

	if len(s.Profiles) > 0 {
		b.WriteString("## Profiles\n\n|")
		for _, name := range s.Variables {
			fmt.Fprintf(&b, " %s |", name)
		}
		b.WriteString(" Count | Frequency |\n|" + strings.Repeat("---|", len(s.Variables)+2) + "\n")
		profiles := append([]stats.Profile(nil), s.Profiles...)
		sort.SliceStable(profiles, func(i, j int) bool { return profiles[i].Count > profiles[j].Count })
		for _, p := range profiles {
			b.WriteString("|")
			for _, name := range s.Variables {
				fmt.Fprintf(&b, " %s |", p.Labels[name])
			}
			fmt.Fprintf(&b, " %d | %.4f |\n", p.Count, p.Frequency)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Insights\n\n")
	for _, r := range s.Rates {
		fmt.Fprintf(&b, "- Probability of %s=%s: %s (95%% CI %.2f%% to %.2f%%)\n", r.Variable, r.Label, Percent(r.Rate), 100*r.Lower, 100*r.Upper)
	}
	return b.String()
}

// HTML renders markdown produced by Markdown into an HTML fragment.
func HTML(md string) template.HTML {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return template.HTML(markdown.ToHTML([]byte(md), p, renderer))
}

// Percent formats a fraction as a percentage with two decimals.
func Percent(p float64) string {
	return fmt.Sprintf("%.2f%%", 100*p)
}
