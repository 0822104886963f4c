package network

import (
	"fmt"
	"math"

	"bayesim/domain/core"

	"gonum.org/v1/gonum/floats"
)

// Tolerance is the allowed deviation of a distribution's total mass from 1.
const Tolerance = 1e-6

// Distribution is a probability mass function aligned with a child's domain order.
type Distribution []float64

// Validate checks length, per-entry range and total mass.
func (d Distribution) Validate(cardinality int) error {
	if len(d) != cardinality {
		return fmt.Errorf("%w: expected %d probabilities, got %d", core.ErrMalformedDistribution, cardinality, len(d))
	}
	if floats.HasNaN(d) {
		return fmt.Errorf("%w: NaN mass", core.ErrMalformedDistribution)
	}
	for i, p := range d {
		if p < 0 || p > 1 || math.IsInf(p, 0) {
			return fmt.Errorf("%w: entry %d = %g outside [0,1]", core.ErrMalformedDistribution, i, p)
		}
	}
	if sum := floats.Sum(d); math.Abs(sum-1) > Tolerance {
		return fmt.Errorf("%w: mass sums to %.9f", core.ErrMalformedDistribution, sum)
	}
	return nil
}

func (d Distribution) clone() Distribution {
	out := make(Distribution, len(d))
	copy(out, d)
	return out
}

// ConditionalTable maps every joint state of the parents to a distribution
// over the child's domain. It is open for Set until Close succeeds.
type ConditionalTable struct {
	child   *Variable
	parents []*Variable
	entries map[AssignmentKey]Distribution
	closed  bool
}

// NewConditionalTable creates an empty table for child given parents, in order.
func NewConditionalTable(child *Variable, parents ...*Variable) (*ConditionalTable, error) {
	if child == nil {
		return nil, fmt.Errorf("%w: table needs a child variable", core.ErrInvalidDomain)
	}
	seen := map[string]bool{child.Name(): true}
	for _, p := range parents {
		if p == nil {
			return nil, fmt.Errorf("%w: nil parent for %s", core.ErrInvalidAssignment, child.Name())
		}
		if seen[p.Name()] {
			return nil, fmt.Errorf("%w: %s listed twice in the parents of %s", core.ErrInvalidAssignment, p.Name(), child.Name())
		}
		seen[p.Name()] = true
	}

	ps := make([]*Variable, len(parents))
	copy(ps, parents)
	return &ConditionalTable{
		child:   child,
		parents: ps,
		entries: make(map[AssignmentKey]Distribution),
	}, nil
}

// Child returns the variable the table belongs to.
func (t *ConditionalTable) Child() *Variable { return t.child }

// Parents returns the parent variables in key order.
func (t *ConditionalTable) Parents() []*Variable {
	out := make([]*Variable, len(t.parents))
	copy(out, t.parents)
	return out
}

// Closed reports whether Close has succeeded.
func (t *ConditionalTable) Closed() bool { return t.closed }

// Set stores the distribution for one parent assignment.
func (t *ConditionalTable) Set(a ParentAssignment, d Distribution) error {
	if t.closed {
		return fmt.Errorf("%w: table for %s is closed", core.ErrModelFrozen, t.child.Name())
	}
	if err := t.checkAssignment(a); err != nil {
		return err
	}
	if err := d.Validate(t.child.Cardinality()); err != nil {
		return fmt.Errorf("%s given %s: %w", t.child.Name(), a, err)
	}
	t.entries[a.Key()] = d.clone()
	return nil
}

// Lookup returns the distribution stored for exactly this assignment.
func (t *ConditionalTable) Lookup(a ParentAssignment) (Distribution, error) {
	if err := t.checkAssignment(a); err != nil {
		return nil, err
	}
	if !t.closed {
		if missing, ok := t.firstMissing(); ok {
			return nil, fmt.Errorf("table incomplete: %w", core.NewMissingAssignmentError(t.child.Name(), missing.String()))
		}
	}
	d, ok := t.entries[a.Key()]
	if !ok {
		return nil, core.NewMissingAssignmentError(t.child.Name(), a.String())
	}
	return d.clone(), nil
}

// Close validates completeness and soundness of every entry, then freezes
// the table. Closing a closed table is a no-op.
func (t *ConditionalTable) Close() error {
	if t.closed {
		return nil
	}
	if err := t.Check(); err != nil {
		return err
	}
	t.closed = true
	return nil
}

// Check runs the Close validation without changing the table.
func (t *ConditionalTable) Check() error {
	if missing, ok := t.firstMissing(); ok {
		return core.NewMissingAssignmentError(t.child.Name(), missing.String())
	}
	for _, a := range t.Assignments() {
		if err := t.entries[a.Key()].Validate(t.child.Cardinality()); err != nil {
			return fmt.Errorf("%s given %s: %w", t.child.Name(), a, err)
		}
	}
	return nil
}

// Assignments enumerates the Cartesian product of the parent domains, with
// the last parent varying fastest. A root variable yields one empty assignment.
func (t *ConditionalTable) Assignments() []ParentAssignment {
	total := 1
	for _, p := range t.parents {
		total *= p.Cardinality()
	}

	out := make([]ParentAssignment, 0, total)
	digits := make([]int, len(t.parents))
	for n := 0; n < total; n++ {
		bindings := make([]Binding, len(t.parents))
		for i, p := range t.parents {
			bindings[i] = Binding{Variable: p.Name(), Label: p.Label(digits[i])}
		}
		out = append(out, ParentAssignment{bindings: bindings})

		for i := len(digits) - 1; i >= 0; i-- {
			digits[i]++
			if digits[i] < t.parents[i].Cardinality() {
				break
			}
			digits[i] = 0
		}
	}
	return out
}

// Len returns the number of stored entries.
func (t *ConditionalTable) Len() int { return len(t.entries) }

func (t *ConditionalTable) firstMissing() (ParentAssignment, bool) {
	for _, a := range t.Assignments() {
		if _, ok := t.entries[a.Key()]; !ok {
			return a, true
		}
	}
	return ParentAssignment{}, false
}

func (t *ConditionalTable) checkAssignment(a ParentAssignment) error {
	if len(a.bindings) != len(t.parents) {
		return fmt.Errorf("%w: %s expects %d parents, got %s", core.ErrInvalidAssignment, t.child.Name(), len(t.parents), a)
	}
	for i, b := range a.bindings {
		p := t.parents[i]
		if b.Variable != p.Name() {
			return fmt.Errorf("%w: position %d of %s must be %s, got %s", core.ErrInvalidAssignment, i, a, p.Name(), b.Variable)
		}
		if _, ok := p.IndexOf(b.Label); !ok {
			return fmt.Errorf("%w: %q is not a label of %s", core.ErrInvalidAssignment, b.Label, p.Name())
		}
	}
	return nil
}
