package network

import (
	"strconv"
	"strings"
)

// Binding fixes one parent variable to one label.
type Binding struct {
	Variable string `json:"variable"`
	Label    string `json:"label"`
}

// AssignmentKey is the comparable form of a ParentAssignment, used as a map key.
type AssignmentKey string

// ParentAssignment is an ordered tuple of parent bindings. Two assignments
// are equal iff they name the same parents in the same order with the same labels.
type ParentAssignment struct {
	bindings []Binding
}

// NoParents is the empty assignment used by root variables.
var NoParents = ParentAssignment{}

// Given starts an assignment with a single binding.
func Given(variable, label string) ParentAssignment {
	return NoParents.And(variable, label)
}

// Assign builds an assignment from bindings in order.
func Assign(bindings ...Binding) ParentAssignment {
	out := make([]Binding, len(bindings))
	copy(out, bindings)
	return ParentAssignment{bindings: out}
}

// And returns a new assignment extended with one more binding.
func (a ParentAssignment) And(variable, label string) ParentAssignment {
	out := make([]Binding, len(a.bindings), len(a.bindings)+1)
	copy(out, a.bindings)
	return ParentAssignment{bindings: append(out, Binding{Variable: variable, Label: label})}
}

// Bindings returns a copy of the ordered bindings.
func (a ParentAssignment) Bindings() []Binding {
	out := make([]Binding, len(a.bindings))
	copy(out, a.bindings)
	return out
}

// Len returns the number of bindings.
func (a ParentAssignment) Len() int { return len(a.bindings) }

// Key encodes the assignment with length-prefixed fields so that distinct
// assignments never collide.
func (a ParentAssignment) Key() AssignmentKey {
	if len(a.bindings) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, b := range a.bindings {
		writeField(&sb, b.Variable)
		writeField(&sb, b.Label)
	}
	return AssignmentKey(sb.String())
}

// Equal compares two assignments exactly.
func (a ParentAssignment) Equal(other ParentAssignment) bool {
	if len(a.bindings) != len(other.bindings) {
		return false
	}
	for i := range a.bindings {
		if a.bindings[i] != other.bindings[i] {
			return false
		}
	}
	return true
}

func (a ParentAssignment) String() string {
	parts := make([]string, len(a.bindings))
	for i, b := range a.bindings {
		parts[i] = b.Variable + "=" + b.Label
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func writeField(sb *strings.Builder, s string) {
	sb.WriteString(strconv.Itoa(len(s)))
	sb.WriteByte(':')
	sb.WriteString(s)
}
