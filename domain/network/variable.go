// Package network holds the discrete causal network: variables, conditional
// probability tables and the model that ties them into a DAG.
package network

import (
	"fmt"
	"strings"

	"bayesim/domain/core"
)

// Variable is a named discrete random variable with an ordered domain.
// The first label of the domain is the positive label ("yes", "present").
type Variable struct {
	name   string
	domain []string
	index  map[string]int
}

// NewVariable constructs a variable. The domain must hold at least two
// distinct, non-empty labels.
func NewVariable(name string, labels ...string) (*Variable, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: variable name cannot be empty", core.ErrInvalidDomain)
	}
	if len(labels) < 2 {
		return nil, fmt.Errorf("%w: %s needs at least 2 labels, got %d", core.ErrInvalidDomain, name, len(labels))
	}

	index := make(map[string]int, len(labels))
	for i, label := range labels {
		if label == "" {
			return nil, fmt.Errorf("%w: %s has an empty label at position %d", core.ErrInvalidDomain, name, i)
		}
		if _, dup := index[label]; dup {
			return nil, fmt.Errorf("%w: %s repeats label %q", core.ErrInvalidDomain, name, label)
		}
		index[label] = i
	}

	domain := make([]string, len(labels))
	copy(domain, labels)
	return &Variable{name: name, domain: domain, index: index}, nil
}

// MustVariable is NewVariable for fixed, known-good definitions.
func MustVariable(name string, labels ...string) *Variable {
	v, err := NewVariable(name, labels...)
	if err != nil {
		panic(err)
	}
	return v
}

// Name returns the variable name.
func (v *Variable) Name() string { return v.name }

// Domain returns a copy of the ordered labels.
func (v *Variable) Domain() []string {
	out := make([]string, len(v.domain))
	copy(out, v.domain)
	return out
}

// Cardinality returns the domain size.
func (v *Variable) Cardinality() int { return len(v.domain) }

// Label returns the label at position i.
func (v *Variable) Label(i int) string { return v.domain[i] }

// Positive returns the first domain label.
func (v *Variable) Positive() string { return v.domain[0] }

// IndexOf returns the position of label in the domain. Matching is exact.
func (v *Variable) IndexOf(label string) (int, bool) {
	i, ok := v.index[label]
	return i, ok
}

// SameDomain reports whether both variables carry identical ordered labels.
func (v *Variable) SameDomain(other *Variable) bool {
	if other == nil || len(v.domain) != len(other.domain) {
		return false
	}
	for i := range v.domain {
		if v.domain[i] != other.domain[i] {
			return false
		}
	}
	return true
}

func (v *Variable) String() string {
	return fmt.Sprintf("%s{%s}", v.name, strings.Join(v.domain, ","))
}
