package network

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"bayesim/domain/core"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// randomDAG builds n binary variables with edges i -> j (i < j) switched on
// by mask, then inserts them into a model in a shuffled order.
func randomDAG(t *testing.T, n int, mask []bool, seed int64) *Model {
	vars := make([]*Variable, n)
	for i := range vars {
		vars[i] = MustVariable(string(rune('A'+i)), "yes", "no")
	}

	parents := make([][]*Variable, n)
	bit := 0
	for j := 0; j < n; j++ {
		for i := 0; i < j; i++ {
			if mask[bit%len(mask)] {
				parents[j] = append(parents[j], vars[i])
			}
			bit++
		}
	}

	m := NewModel()
	for _, idx := range rand.New(rand.NewSource(seed)).Perm(n) {
		if err := m.AddVariable(vars[idx], uniformTable(t, vars[idx], parents[idx]...)); err != nil {
			t.Fatalf("add %s: %v", vars[idx].Name(), err)
		}
	}
	return m
}

// TestNetworkInvariants checks properties that must hold for any network
func TestNetworkInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("topological order places parents before children", prop.ForAll(
		func(n int, mask []bool, seed int64) bool {
			m := randomDAG(t, n, mask, seed)
			order, err := m.TopologicalOrder()
			if err != nil || len(order) != n {
				return false
			}

			position := make(map[string]int, n)
			for i, v := range order {
				position[v.Name()] = i
			}
			for _, e := range m.Edges() {
				if position[e.Parent] >= position[e.Child] {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 7),
		gen.SliceOfN(21, gen.Bool()),
		gen.Int64(),
	))

	properties.Property("closed tables hold normalised, non-negative distributions", prop.ForAll(
		func(weights []float64) bool {
			a := MustVariable("A", "yes", "no")
			b := MustVariable("B", "low", "mid", "high")
			child := MustVariable("C", "x", "y", "z")
			table, err := NewConditionalTable(child, a, b)
			if err != nil {
				return false
			}

			for i, as := range table.Assignments() {
				w := weights[i*3 : i*3+3]
				total := w[0] + w[1] + w[2]
				d := Distribution{w[0] / total, w[1] / total, 0}
				d[2] = 1 - d[0] - d[1]
				if d[2] < 0 {
					d[2] = 0
				}
				if err := table.Set(as, d); err != nil {
					return false
				}
			}
			if err := table.Close(); err != nil {
				return false
			}

			for _, as := range table.Assignments() {
				d, err := table.Lookup(as)
				if err != nil {
					return false
				}
				sum := 0.0
				for _, p := range d {
					if p < 0 {
						return false
					}
					sum += p
				}
				if math.Abs(sum-1) > Tolerance {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(18, gen.Float64Range(0.001, 10)),
	))

	properties.Property("a back edge always makes validation fail", prop.ForAll(
		func(n int) bool {
			vars := make([]*Variable, n)
			for i := range vars {
				vars[i] = MustVariable(string(rune('A'+i)), "yes", "no")
			}
			m := NewModel()
			for i, v := range vars {
				// v_i depends on v_{i-1}; v_0 closes the ring on v_{n-1}.
				parent := vars[(i+n-1)%n]
				if err := m.AddVariable(v, uniformTable(t, v, parent)); err != nil {
					return false
				}
			}
			err := m.Validate()
			return errors.Is(err, core.ErrCyclicDependency) && !m.IsValidated()
		},
		gen.IntRange(2, 8),
	))

	properties.TestingRun(t)
}
