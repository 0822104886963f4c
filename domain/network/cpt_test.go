package network

import (
	"math"
	"testing"

	"bayesim/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binary(name string) *Variable { return MustVariable(name, "yes", "no") }

func TestDistribution_Validate(t *testing.T) {
	tests := []struct {
		name    string
		dist    Distribution
		wantErr bool
	}{
		{"valid", Distribution{0.3, 0.7}, false},
		{"within tolerance", Distribution{0.3, 0.7 + 5e-7}, false},
		{"degenerate", Distribution{1, 0}, false},
		{"sum too low", Distribution{0.3, 0.6}, true},
		{"sum too high", Distribution{0.5, 0.6}, true},
		{"negative", Distribution{-0.1, 1.1}, true},
		{"NaN", Distribution{math.NaN(), 1}, true},
		{"wrong length", Distribution{1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dist.Validate(2)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrMalformedDistribution)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConditionalTable_RootVariable(t *testing.T) {
	smoking := binary("Smoking")
	table, err := NewConditionalTable(smoking)
	require.NoError(t, err)

	assigns := table.Assignments()
	require.Len(t, assigns, 1)
	assert.Equal(t, 0, assigns[0].Len())

	require.NoError(t, table.Set(NoParents, Distribution{0.3, 0.7}))
	require.NoError(t, table.Close())

	d, err := table.Lookup(NoParents)
	require.NoError(t, err)
	assert.Equal(t, Distribution{0.3, 0.7}, d)
}

func TestConditionalTable_SetRejectsMalformed(t *testing.T) {
	table, err := NewConditionalTable(binary("Smoking"))
	require.NoError(t, err)

	err = table.Set(NoParents, Distribution{0.4, 0.4})
	assert.ErrorIs(t, err, core.ErrMalformedDistribution)

	err = table.Set(NoParents, Distribution{1.2, -0.2})
	assert.ErrorIs(t, err, core.ErrMalformedDistribution)
	assert.Equal(t, 0, table.Len(), "rejected entries are not stored")
}

func TestConditionalTable_SetRejectsForeignAssignment(t *testing.T) {
	smoking := binary("Smoking")
	cancer := binary("Cancer")
	table, err := NewConditionalTable(cancer, smoking)
	require.NoError(t, err)

	assert.ErrorIs(t, table.Set(NoParents, Distribution{0.5, 0.5}), core.ErrInvalidAssignment)
	assert.ErrorIs(t, table.Set(Given("Breath", "yes"), Distribution{0.5, 0.5}), core.ErrInvalidAssignment)
	assert.ErrorIs(t, table.Set(Given("Smoking", "maybe"), Distribution{0.5, 0.5}), core.ErrInvalidAssignment)
}

func TestConditionalTable_LookupIncomplete(t *testing.T) {
	smoking := binary("Smoking")
	cancer := binary("Cancer")
	table, err := NewConditionalTable(cancer, smoking)
	require.NoError(t, err)
	require.NoError(t, table.Set(Given("Smoking", "yes"), Distribution{0.4, 0.6}))

	_, err = table.Lookup(Given("Smoking", "yes"))
	assert.ErrorIs(t, err, core.ErrMissingAssignment, "an incomplete table cannot serve lookups")

	assert.ErrorIs(t, table.Close(), core.ErrMissingAssignment)
	assert.False(t, table.Closed())

	require.NoError(t, table.Set(Given("Smoking", "no"), Distribution{0.05, 0.95}))
	require.NoError(t, table.Close())

	d, err := table.Lookup(Given("Smoking", "no"))
	require.NoError(t, err)
	assert.InDelta(t, 0.05, d[0], 1e-12)
}

func TestConditionalTable_ClosedIsFrozen(t *testing.T) {
	table, err := NewConditionalTable(binary("Smoking"))
	require.NoError(t, err)
	require.NoError(t, table.Set(NoParents, Distribution{0.5, 0.5}))
	require.NoError(t, table.Close())
	require.NoError(t, table.Close(), "closing twice is a no-op")

	assert.ErrorIs(t, table.Set(NoParents, Distribution{0.1, 0.9}), core.ErrModelFrozen)
}

func TestConditionalTable_LookupReturnsCopy(t *testing.T) {
	table, err := NewConditionalTable(binary("Smoking"))
	require.NoError(t, err)
	require.NoError(t, table.Set(NoParents, Distribution{0.5, 0.5}))

	d, err := table.Lookup(NoParents)
	require.NoError(t, err)
	d[0] = 0.9

	again, err := table.Lookup(NoParents)
	require.NoError(t, err)
	assert.Equal(t, 0.5, again[0])
}

func TestConditionalTable_AssignmentsCartesianProduct(t *testing.T) {
	a := binary("A")
	b := MustVariable("B", "low", "mid", "high")
	child := binary("C")
	table, err := NewConditionalTable(child, a, b)
	require.NoError(t, err)

	assigns := table.Assignments()
	require.Len(t, assigns, 6)
	assert.Equal(t, "{A=yes, B=low}", assigns[0].String())
	assert.Equal(t, "{A=yes, B=mid}", assigns[1].String())
	assert.Equal(t, "{A=no, B=high}", assigns[5].String())

	keys := make(map[AssignmentKey]bool)
	for _, as := range assigns {
		keys[as.Key()] = true
	}
	assert.Len(t, keys, 6)
}

func TestNewConditionalTable_RejectsBadParents(t *testing.T) {
	a := binary("A")
	_, err := NewConditionalTable(a, a)
	assert.ErrorIs(t, err, core.ErrInvalidAssignment)

	b := binary("B")
	_, err = NewConditionalTable(a, b, b)
	assert.ErrorIs(t, err, core.ErrInvalidAssignment)

	_, err = NewConditionalTable(nil)
	assert.ErrorIs(t, err, core.ErrInvalidDomain)
}
