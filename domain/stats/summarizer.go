// Package stats turns a batch of samples into empirical frequencies and a
// few diagnostics for presentation.
package stats

import (
	"fmt"
	"math"

	"bayesim/domain/core"
	"bayesim/domain/sampling"

	mstats "github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

// confidenceLevel is the coverage of the Wilson interval reported in Rate.
const confidenceLevel = 0.95

// Summarizer computes statistics over one immutable batch. Counts are taken
// once at construction; every query is then answered from them.
type Summarizer struct {
	batch  sampling.Batch
	counts [][]int
}

// NewSummarizer tallies per-variable label counts for batch.
func NewSummarizer(batch sampling.Batch) *Summarizer {
	s := &Summarizer{batch: batch}
	schema := batch.Schema()
	if schema == nil {
		return s
	}

	vars := schema.Variables()
	s.counts = make([][]int, len(vars))
	for c, v := range vars {
		s.counts[c] = make([]int, v.Cardinality())
	}
	for _, sample := range batch.Samples() {
		for c := range vars {
			s.counts[c][sample.LabelIndex(c)]++
		}
	}
	return s
}

// Total returns the number of samples summarised.
func (s *Summarizer) Total() int { return s.batch.Len() }

func (s *Summarizer) column(name string) (int, []string, error) {
	schema := s.batch.Schema()
	if schema == nil {
		return 0, nil, fmt.Errorf("empty batch has no variables: %w", core.NewUnknownVariableError(name))
	}
	v, c, err := schema.Variable(name)
	if err != nil {
		return 0, nil, err
	}
	return c, v.Domain(), nil
}

// Marginal returns the fraction of samples carrying each label of the
// variable. An empty batch yields all-zero frequencies.
func (s *Summarizer) Marginal(name string) (Marginal, error) {
	c, labels, err := s.column(name)
	if err != nil {
		return Marginal{}, err
	}

	total := s.Total()
	counts := make([]int, len(labels))
	copy(counts, s.counts[c])
	freqs := make([]float64, len(labels))
	if total > 0 {
		for i, n := range counts {
			freqs[i] = float64(n) / float64(total)
		}
	}
	return Marginal{
		Variable:    name,
		Labels:      labels,
		Counts:      counts,
		Frequencies: freqs,
		Total:       total,
	}, nil
}

// Joint cross-tabulates two variables over the product of their domains.
func (s *Summarizer) Joint(a, b string) (Joint, error) {
	ca, rows, err := s.column(a)
	if err != nil {
		return Joint{}, err
	}
	cb, cols, err := s.column(b)
	if err != nil {
		return Joint{}, err
	}

	counts := make([][]int, len(rows))
	for r := range counts {
		counts[r] = make([]int, len(cols))
	}
	for _, sample := range s.batch.Samples() {
		counts[sample.LabelIndex(ca)][sample.LabelIndex(cb)]++
	}

	total := s.Total()
	freqs := make([][]float64, len(rows))
	for r := range freqs {
		freqs[r] = make([]float64, len(cols))
		if total == 0 {
			continue
		}
		for c, n := range counts[r] {
			freqs[r][c] = float64(n) / float64(total)
		}
	}

	return Joint{
		RowVariable:    a,
		ColumnVariable: b,
		RowLabels:      rows,
		ColumnLabels:   cols,
		Counts:         counts,
		Frequencies:    freqs,
		Total:          total,
	}, nil
}

// Profiles counts every observed combination of labels across all
// variables, in domain order with the last variable varying fastest.
func (s *Summarizer) Profiles() []Profile {
	schema := s.batch.Schema()
	if schema == nil || s.Total() == 0 {
		return []Profile{}
	}
	vars := schema.Variables()

	radix := make([]int, len(vars))
	size := 1
	for i, v := range vars {
		radix[i] = v.Cardinality()
		size *= radix[i]
	}
	counts := make([]int, size)
	for _, sample := range s.batch.Samples() {
		idx := 0
		for c := range vars {
			idx = idx*radix[c] + sample.LabelIndex(c)
		}
		counts[idx]++
	}

	var profiles []Profile
	total := float64(s.Total())
	for idx, n := range counts {
		if n == 0 {
			continue
		}
		labels := make(map[string]string, len(vars))
		rest := idx
		for c := len(vars) - 1; c >= 0; c-- {
			labels[vars[c].Name()] = vars[c].Label(rest % radix[c])
			rest /= radix[c]
		}
		profiles = append(profiles, Profile{Labels: labels, Count: n, Frequency: float64(n) / total})
	}
	return profiles
}

// Rate reports the share of the variable's positive label with a standard
// error and a Wilson score interval.
func (s *Summarizer) Rate(name string) (Rate, error) {
	c, labels, err := s.column(name)
	if err != nil {
		return Rate{}, err
	}

	total := s.Total()
	rate := Rate{Variable: name, Label: labels[0], Count: s.counts[c][0], Total: total}
	if total == 0 {
		return rate, nil
	}

	indicator := make(mstats.Float64Data, 0, total)
	for _, sample := range s.batch.Samples() {
		if sample.LabelIndex(c) == 0 {
			indicator = append(indicator, 1)
		} else {
			indicator = append(indicator, 0)
		}
	}

	mean, err := mstats.Mean(indicator)
	if err != nil {
		return Rate{}, err
	}
	rate.Rate = mean
	if total > 1 {
		sd, err := mstats.StandardDeviationSample(indicator)
		if err != nil {
			return Rate{}, err
		}
		rate.StdErr = sd / math.Sqrt(float64(total))
	}
	rate.Lower, rate.Upper = wilson(mean, total)
	return rate, nil
}

// Independence runs a chi-square test of independence on the joint table of
// a and b and measures their mutual information in bits. Rows or columns
// that never occurred are left out of the degrees of freedom; a table with
// fewer than two occupied rows or columns reports p = 1.
func (s *Summarizer) Independence(a, b string) (Independence, error) {
	joint, err := s.Joint(a, b)
	if err != nil {
		return Independence{}, err
	}
	result := Independence{RowVariable: a, ColumnVariable: b, PValue: 1}
	if joint.Total == 0 {
		return result, nil
	}

	rowTotals := make([]int, len(joint.RowLabels))
	colTotals := make([]int, len(joint.ColumnLabels))
	for r, row := range joint.Counts {
		for c, n := range row {
			rowTotals[r] += n
			colTotals[c] += n
		}
	}
	occupiedRows, occupiedCols := nonZero(rowTotals), nonZero(colTotals)
	if occupiedRows < 2 || occupiedCols < 2 {
		return result, nil
	}

	n := float64(joint.Total)
	chi2, mi := 0.0, 0.0
	for r, row := range joint.Counts {
		for c, observed := range row {
			expected := float64(rowTotals[r]) * float64(colTotals[c]) / n
			if expected == 0 {
				continue
			}
			d := float64(observed) - expected
			chi2 += d * d / expected
			if observed > 0 {
				mi += float64(observed) / n * math.Log2(float64(observed)/expected)
			}
		}
	}

	df := (occupiedRows - 1) * (occupiedCols - 1)
	result.ChiSquare = chi2
	result.DegreesOfFreedom = df
	result.PValue = distuv.ChiSquared{K: float64(df)}.Survival(chi2)
	result.CramersV = math.Sqrt(chi2 / (n * float64(min(occupiedRows, occupiedCols)-1)))
	result.MutualInformation = mi
	return result, nil
}

// Summarize computes marginals, rates and profiles for every variable, and
// joint tables plus independence tests for the requested pairs.
func (s *Summarizer) Summarize(pairs ...Pair) (Summary, error) {
	summary := Summary{
		Total:        s.Total(),
		Marginals:    []Marginal{},
		Joints:       []Joint{},
		Rates:        []Rate{},
		Independence: []Independence{},
		Profiles:     s.Profiles(),
	}
	if schema := s.batch.Schema(); schema != nil {
		summary.Variables = schema.Names()
	}

	for _, name := range summary.Variables {
		m, err := s.Marginal(name)
		if err != nil {
			return Summary{}, err
		}
		summary.Marginals = append(summary.Marginals, m)

		r, err := s.Rate(name)
		if err != nil {
			return Summary{}, err
		}
		summary.Rates = append(summary.Rates, r)
	}

	for _, p := range pairs {
		j, err := s.Joint(p.A, p.B)
		if err != nil {
			return Summary{}, err
		}
		summary.Joints = append(summary.Joints, j)

		ind, err := s.Independence(p.A, p.B)
		if err != nil {
			return Summary{}, err
		}
		summary.Independence = append(summary.Independence, ind)
	}
	return summary, nil
}

func wilson(p float64, n int) (float64, float64) {
	z := distuv.UnitNormal.Quantile(1 - (1-confidenceLevel)/2)
	nf := float64(n)
	z2 := z * z
	denom := 1 + z2/nf
	center := (p + z2/(2*nf)) / denom
	half := z * math.Sqrt(p*(1-p)/nf+z2/(4*nf*nf)) / denom
	return math.Max(0, center-half), math.Min(1, center+half)
}

func nonZero(totals []int) int {
	n := 0
	for _, t := range totals {
		if t > 0 {
			n++
		}
	}
	return n
}
