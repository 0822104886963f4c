package scenario

import (
	"math"
	"testing"

	"bayesim/domain/core"
	"bayesim/domain/network"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Defaults(t *testing.T) {
	m, err := Build(Defaults())
	require.NoError(t, err)
	assert.True(t, m.IsValidated())

	order, err := m.TopologicalOrder()
	require.NoError(t, err)
	require.Len(t, order, 3)
	assert.Equal(t, Smoking, order[0].Name())
	assert.Equal(t, LungCancer, order[1].Name())
	assert.Equal(t, ShortnessOfBreath, order[2].Name())

	cancer, err := m.Table(LungCancer)
	require.NoError(t, err)
	d, err := cancer.Lookup(network.Given(Smoking, Yes))
	require.NoError(t, err)
	assert.InDelta(t, 0.9, d[0], 1e-12)
	d, err = cancer.Lookup(network.Given(Smoking, No))
	require.NoError(t, err)
	assert.InDelta(t, 0.01, d[0], 1e-12)

	assert.Equal(t, []network.Edge{
		{Parent: Smoking, Child: LungCancer},
		{Parent: LungCancer, Child: ShortnessOfBreath},
	}, m.Edges())
}

func TestFromScalars_AppliesToEveryParentState(t *testing.T) {
	m, err := Build(FromScalars(0.3, 0.1, 0.2))
	require.NoError(t, err)

	breath, err := m.Table(ShortnessOfBreath)
	require.NoError(t, err)
	for _, a := range breath.Assignments() {
		d, err := breath.Lookup(a)
		require.NoError(t, err)
		assert.InDelta(t, 0.2, d[0], 1e-12)
		assert.InDelta(t, 0.8, d[1], 1e-12)
	}
}

func TestFromPercent(t *testing.T) {
	in := FromPercent(30, 10, 20)
	assert.InDelta(t, 0.3, in.Smoking, 1e-12)
	assert.InDelta(t, 0.1, in.LungCancer.GivenNegative, 1e-12)
	assert.InDelta(t, 0.2, in.Breath.GivenPositive, 1e-12)
}

func TestBuild_RejectsOutOfRange(t *testing.T) {
	tests := []Inputs{
		FromScalars(-0.1, 0.1, 0.1),
		FromScalars(0.1, 1.5, 0.1),
		FromScalars(0.1, 0.1, math.NaN()),
		{Smoking: 0.3, LungCancer: ConditionalRisk{0.4, 0.05}, Breath: ConditionalRisk{0.8, -1}},
	}
	for _, in := range tests {
		_, err := Build(in)
		assert.ErrorIs(t, err, core.ErrInvalidProbability)
	}
}

func TestBuild_Extremes(t *testing.T) {
	_, err := Build(FromScalars(0, 1, 0))
	assert.NoError(t, err)
	_, err = Build(FromScalars(1, 0, 1))
	assert.NoError(t, err)
}

func TestPairs(t *testing.T) {
	pairs := Pairs()
	require.Len(t, pairs, 2)
	assert.Equal(t, Smoking, pairs[0].A)
	assert.Equal(t, ShortnessOfBreath, pairs[1].B)
}
