package network

import (
	"fmt"
	"strings"

	"bayesim/domain/core"
)

// State is the lifecycle state of a Model.
type State int

const (
	// Unvalidated models accept new variables and cannot be sampled.
	Unvalidated State = iota
	// Validated models are frozen and ready for sampling.
	Validated
)

func (s State) String() string {
	switch s {
	case Unvalidated:
		return "unvalidated"
	case Validated:
		return "validated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Edge is a parent -> child dependency implied by a conditional table.
type Edge struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

// Model is a directed acyclic graph of variables, each owning one
// conditional table. Once validated it is read-only and safe to share.
type Model struct {
	variables []*Variable
	tables    map[string]*ConditionalTable
	index     map[string]int
	state     State
	order     []*Variable
}

// NewModel returns an empty, unvalidated model.
func NewModel() *Model {
	return &Model{
		tables: make(map[string]*ConditionalTable),
		index:  make(map[string]int),
	}
}

// AddVariable registers a variable and the table that defines it.
func (m *Model) AddVariable(v *Variable, table *ConditionalTable) error {
	if m.state == Validated {
		return fmt.Errorf("%w: cannot add %s after validation", core.ErrModelFrozen, nameOf(v))
	}
	if v == nil || table == nil {
		return fmt.Errorf("%w: variable and table are both required", core.ErrInvalidAssignment)
	}
	if table.Child() != v {
		return fmt.Errorf("%w: table belongs to %s, not %s", core.ErrInvalidAssignment, table.Child().Name(), v.Name())
	}
	if _, exists := m.index[v.Name()]; exists {
		return fmt.Errorf("%w: %s", core.ErrDuplicateVariable, v.Name())
	}

	m.index[v.Name()] = len(m.variables)
	m.variables = append(m.variables, v)
	m.tables[v.Name()] = table
	return nil
}

// State returns the current lifecycle state.
func (m *Model) State() State { return m.state }

// IsValidated reports whether Validate has succeeded.
func (m *Model) IsValidated() bool { return m.state == Validated }

// Len returns the number of variables.
func (m *Model) Len() int { return len(m.variables) }

// Variables returns the variables in insertion order.
func (m *Model) Variables() []*Variable {
	out := make([]*Variable, len(m.variables))
	copy(out, m.variables)
	return out
}

// Variable looks up a variable by name.
func (m *Model) Variable(name string) (*Variable, error) {
	i, ok := m.index[name]
	if !ok {
		return nil, core.NewUnknownVariableError(name)
	}
	return m.variables[i], nil
}

// Table returns the conditional table owned by the named variable.
func (m *Model) Table(name string) (*ConditionalTable, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, core.NewUnknownVariableError(name)
	}
	return t, nil
}

// Edges lists parent -> child edges in insertion order of the children.
func (m *Model) Edges() []Edge {
	var edges []Edge
	for _, v := range m.variables {
		for _, p := range m.tables[v.Name()].parents {
			edges = append(edges, Edge{Parent: p.Name(), Child: v.Name()})
		}
	}
	return edges
}

// TopologicalOrder returns variables so that every parent precedes its
// children. Among variables that are ready at the same time, the one added
// first is placed first, so the order is deterministic.
func (m *Model) TopologicalOrder() ([]*Variable, error) {
	if m.state == Validated {
		out := make([]*Variable, len(m.order))
		copy(out, m.order)
		return out, nil
	}
	return m.computeOrder()
}

func (m *Model) computeOrder() ([]*Variable, error) {
	if err := m.checkParents(); err != nil {
		return nil, err
	}

	placed := make(map[string]bool, len(m.variables))
	order := make([]*Variable, 0, len(m.variables))
	for len(order) < len(m.variables) {
		progressed := false
		for _, v := range m.variables {
			if placed[v.Name()] || !m.parentsPlaced(v, placed) {
				continue
			}
			placed[v.Name()] = true
			order = append(order, v)
			progressed = true
			break
		}
		if !progressed {
			return nil, fmt.Errorf("%w: unresolved variables %s", core.ErrCyclicDependency, m.unplaced(placed))
		}
	}
	return order, nil
}

// Validate checks every table and the graph, then freezes the model.
// Nothing is committed unless every check passes, so a failed Validate
// leaves the model unvalidated and open for correction. Validating an
// already validated model is a no-op.
func (m *Model) Validate() error {
	if m.state == Validated {
		return nil
	}
	for _, v := range m.variables {
		if err := m.tables[v.Name()].Check(); err != nil {
			return err
		}
	}
	order, err := m.computeOrder()
	if err != nil {
		return err
	}

	for _, v := range m.variables {
		if err := m.tables[v.Name()].Close(); err != nil {
			return err
		}
	}
	m.order = order
	m.state = Validated
	return nil
}

func (m *Model) checkParents() error {
	for _, v := range m.variables {
		for _, p := range m.tables[v.Name()].parents {
			i, ok := m.index[p.Name()]
			if !ok {
				return fmt.Errorf("parent of %s: %w", v.Name(), core.NewUnknownVariableError(p.Name()))
			}
			if !m.variables[i].SameDomain(p) {
				return fmt.Errorf("%w: %s references %s with a different domain", core.ErrInvalidAssignment, v.Name(), p)
			}
		}
	}
	return nil
}

func (m *Model) parentsPlaced(v *Variable, placed map[string]bool) bool {
	for _, p := range m.tables[v.Name()].parents {
		if !placed[p.Name()] {
			return false
		}
	}
	return true
}

func (m *Model) unplaced(placed map[string]bool) string {
	var names []string
	for _, v := range m.variables {
		if !placed[v.Name()] {
			names = append(names, v.Name())
		}
	}
	return strings.Join(names, ", ")
}

func nameOf(v *Variable) string {
	if v == nil {
		return "<nil>"
	}
	return v.Name()
}
