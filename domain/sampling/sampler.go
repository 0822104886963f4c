// Package sampling draws joint samples from a validated network by
// ancestral (forward) sampling.
package sampling

import (
	"fmt"
	"math/rand"

	"bayesim/domain/core"
	"bayesim/domain/network"

	"gonum.org/v1/gonum/floats"
)

// step holds the precomputed draw tables for one variable. Entries are
// indexed by the parents' label indices in mixed radix, last parent fastest,
// which matches ConditionalTable.Assignments order.
type step struct {
	variable   *network.Variable
	parents    []int // schema columns of the parents, in table key order
	radix      []int
	dists      []network.Distribution
	cumulative [][]float64
}

func (s *step) entry(labels []int) int {
	idx := 0
	for i, col := range s.parents {
		idx = idx*s.radix[i] + labels[col]
	}
	return idx
}

// Sampler performs ancestral sampling over a validated model. It never
// mutates the model and may be shared by goroutines that each own an rng.
type Sampler struct {
	schema *Schema
	steps  []step
}

// NewSampler prepares a sampler. The model must already be validated.
func NewSampler(model *network.Model) (*Sampler, error) {
	if model == nil || !model.IsValidated() {
		return nil, fmt.Errorf("%w: call Validate before sampling", core.ErrNotValidated)
	}

	// The order is fixed once for every draw of this sampler.
	order, err := model.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	schema := NewSchema(order)

	steps := make([]step, len(order))
	for i, v := range order {
		table, err := model.Table(v.Name())
		if err != nil {
			return nil, err
		}

		st := step{variable: v}
		for _, p := range table.Parents() {
			_, col, err := schema.Variable(p.Name())
			if err != nil {
				return nil, err
			}
			st.parents = append(st.parents, col)
			st.radix = append(st.radix, p.Cardinality())
		}

		for _, a := range table.Assignments() {
			d, err := table.Lookup(a)
			if err != nil {
				return nil, err
			}
			cum := make([]float64, len(d))
			floats.CumSum(cum, d)
			st.dists = append(st.dists, d)
			st.cumulative = append(st.cumulative, cum)
		}
		steps[i] = st
	}

	return &Sampler{schema: schema, steps: steps}, nil
}

// Schema returns the column layout of produced batches (topological order).
func (s *Sampler) Schema() *Schema { return s.schema }

// Sample draws n independent samples from rng. n == 0 yields an empty batch.
func (s *Sampler) Sample(rng *rand.Rand, n int) (Batch, error) {
	if n < 0 {
		return Batch{}, fmt.Errorf("%w: %d", core.ErrInvalidSampleCount, n)
	}
	samples := make([]Sample, n)
	for i := range samples {
		samples[i] = s.Draw(rng)
	}
	return Batch{schema: s.schema, samples: samples}, nil
}

// Draw produces one sample. Variables are visited in topological order, so
// every parent label is known before its child is drawn.
func (s *Sampler) Draw(rng *rand.Rand) Sample {
	labels := make([]int, len(s.steps))
	for i := range s.steps {
		st := &s.steps[i]
		e := st.entry(labels)
		labels[i] = Pick(st.dists[e], st.cumulative[e], rng.Float64())
	}
	return Sample{schema: s.schema, labels: labels}
}

// Pick inverts the cumulative distribution at u in [0,1): it returns the
// first label with positive mass whose cumulative probability meets or
// exceeds u. Rounding shortfall at the top falls back to the last label
// with positive mass.
func Pick(dist network.Distribution, cumulative []float64, u float64) int {
	last := -1
	for i, c := range cumulative {
		if dist[i] <= 0 {
			continue
		}
		last = i
		if c >= u {
			return i
		}
	}
	if last < 0 {
		return 0
	}
	return last
}
