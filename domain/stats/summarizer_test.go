package stats

import (
	"math"
	"math/rand"
	"testing"

	"bayesim/domain/core"
	"bayesim/domain/network"
	"bayesim/domain/sampling"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func draw(t *testing.T, pSmoke, pCancerYes, pCancerNo float64, n int, seed int64) sampling.Batch {
	t.Helper()
	smoking := network.MustVariable("Smoking", "yes", "no")
	cancer := network.MustVariable("Cancer", "present", "absent")

	st, err := network.NewConditionalTable(smoking)
	require.NoError(t, err)
	require.NoError(t, st.Set(network.NoParents, network.Distribution{pSmoke, 1 - pSmoke}))
	ct, err := network.NewConditionalTable(cancer, smoking)
	require.NoError(t, err)
	require.NoError(t, ct.Set(network.Given("Smoking", "yes"), network.Distribution{pCancerYes, 1 - pCancerYes}))
	require.NoError(t, ct.Set(network.Given("Smoking", "no"), network.Distribution{pCancerNo, 1 - pCancerNo}))

	m := network.NewModel()
	require.NoError(t, m.AddVariable(smoking, st))
	require.NoError(t, m.AddVariable(cancer, ct))
	require.NoError(t, m.Validate())

	s, err := sampling.NewSampler(m)
	require.NoError(t, err)
	batch, err := s.Sample(rand.New(rand.NewSource(seed)), n)
	require.NoError(t, err)
	return batch
}

func TestMarginal_MatchesManualCount(t *testing.T) {
	batch := draw(t, 0.3, 0.4, 0.05, 4000, 11)
	sum := NewSummarizer(batch)

	m, err := sum.Marginal("Smoking")
	require.NoError(t, err)

	yes := 0
	for _, s := range batch.Samples() {
		if l, _ := s.Label("Smoking"); l == "yes" {
			yes++
		}
	}
	assert.Equal(t, []string{"yes", "no"}, m.Labels)
	assert.Equal(t, []int{yes, batch.Len() - yes}, m.Counts)
	assert.InDelta(t, 1.0, m.Frequencies[0]+m.Frequencies[1], 1e-12)
	assert.InDelta(t, float64(yes)/4000, m.Frequency("yes"), 1e-12)
	assert.Equal(t, 0.0, m.Frequency("maybe"))
}

func TestMarginal_EmptyBatch(t *testing.T) {
	sum := NewSummarizer(draw(t, 0.3, 0.4, 0.05, 0, 1))

	m, err := sum.Marginal("Cancer")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, m.Frequencies)
	assert.Equal(t, 0, m.Total)

	j, err := sum.Joint("Smoking", "Cancer")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 0}, {0, 0}}, j.Frequencies)

	r, err := sum.Rate("Smoking")
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.Rate)

	ind, err := sum.Independence("Smoking", "Cancer")
	require.NoError(t, err)
	assert.Equal(t, 1.0, ind.PValue)

	assert.Empty(t, sum.Profiles())
}

func TestSummarizer_UnknownVariable(t *testing.T) {
	sum := NewSummarizer(draw(t, 0.3, 0.4, 0.05, 10, 1))

	_, err := sum.Marginal("Breath")
	assert.ErrorIs(t, err, core.ErrUnknownVariable)
	_, err = sum.Joint("Smoking", "Breath")
	assert.ErrorIs(t, err, core.ErrUnknownVariable)
	_, err = sum.Rate("Breath")
	assert.ErrorIs(t, err, core.ErrUnknownVariable)

	_, err = NewSummarizer(sampling.Batch{}).Marginal("Smoking")
	assert.ErrorIs(t, err, core.ErrUnknownVariable)
}

func TestJoint_ConsistentWithMarginals(t *testing.T) {
	batch := draw(t, 0.3, 0.4, 0.05, 3000, 5)
	sum := NewSummarizer(batch)

	j, err := sum.Joint("Smoking", "Cancer")
	require.NoError(t, err)
	ms, err := sum.Marginal("Smoking")
	require.NoError(t, err)
	mc, err := sum.Marginal("Cancer")
	require.NoError(t, err)

	total := 0.0
	for r := range j.RowLabels {
		rowCount := 0
		for c := range j.ColumnLabels {
			rowCount += j.Counts[r][c]
			total += j.Frequencies[r][c]
		}
		assert.Equal(t, ms.Counts[r], rowCount)
	}
	for c := range j.ColumnLabels {
		assert.Equal(t, mc.Counts[c], j.Counts[0][c]+j.Counts[1][c])
	}
	assert.InDelta(t, 1.0, total, 1e-9)

	cond := j.Conditional("yes")
	assert.InDelta(t, 1.0, cond[0]+cond[1], 1e-12)
	assert.InDelta(t, 0.4, cond[0], 0.06)
	assert.Equal(t, []float64{0, 0}, j.Conditional("maybe"))
}

func TestIndependence_DetectsDependence(t *testing.T) {
	dependent := NewSummarizer(draw(t, 0.5, 0.9, 0.1, 5000, 3))
	ind, err := dependent.Independence("Smoking", "Cancer")
	require.NoError(t, err)
	assert.Equal(t, 1, ind.DegreesOfFreedom)
	assert.Less(t, ind.PValue, 1e-6)
	assert.Greater(t, ind.CramersV, 0.5)
	// I = H(0.5) - H(0.9) bits
	assert.InDelta(t, 0.531, ind.MutualInformation, 0.05)

	// Cancer copies Smoking and Smoking never fires: only one occupied row.
	degenerate := NewSummarizer(draw(t, 0, 1, 0, 500, 3))
	ind, err = degenerate.Independence("Smoking", "Cancer")
	require.NoError(t, err)
	assert.Equal(t, 1.0, ind.PValue)
	assert.Equal(t, 0, ind.DegreesOfFreedom)
}

func TestIndependence_IndependentVariables(t *testing.T) {
	sum := NewSummarizer(draw(t, 0.5, 0.3, 0.3, 20000, 17))
	ind, err := sum.Independence("Smoking", "Cancer")
	require.NoError(t, err)
	assert.Greater(t, ind.PValue, 0.001)
	assert.Less(t, ind.CramersV, 0.05)
	assert.Less(t, ind.MutualInformation, 0.01)
}

func TestRate(t *testing.T) {
	sum := NewSummarizer(draw(t, 0.3, 0.4, 0.05, 10000, 21))

	r, err := sum.Rate("Smoking")
	require.NoError(t, err)
	m, err := sum.Marginal("Smoking")
	require.NoError(t, err)

	assert.Equal(t, "yes", r.Label)
	assert.Equal(t, m.Counts[0], r.Count)
	assert.InDelta(t, m.Frequencies[0], r.Rate, 1e-12)
	assert.InDelta(t, math.Sqrt(r.Rate*(1-r.Rate)/10000), r.StdErr, 1e-4)
	assert.LessOrEqual(t, r.Lower, r.Rate)
	assert.GreaterOrEqual(t, r.Upper, r.Rate)
	assert.InDelta(t, 0.3, r.Rate, 0.02)
}

func TestProfiles(t *testing.T) {
	batch := draw(t, 0.3, 0.4, 0.05, 2000, 8)
	profiles := NewSummarizer(batch).Profiles()

	require.NotEmpty(t, profiles)
	assert.LessOrEqual(t, len(profiles), 4)
	total := 0
	for _, p := range profiles {
		assert.Len(t, p.Labels, 2)
		assert.Positive(t, p.Count)
		total += p.Count
	}
	assert.Equal(t, batch.Len(), total)
	assert.Equal(t, map[string]string{"Smoking": "yes", "Cancer": "present"}, profiles[0].Labels)
}

func TestSummarize(t *testing.T) {
	sum := NewSummarizer(draw(t, 0.3, 0.4, 0.05, 1000, 2))

	summary, err := sum.Summarize(Pair{A: "Smoking", B: "Cancer"})
	require.NoError(t, err)
	assert.Equal(t, 1000, summary.Total)
	assert.Equal(t, []string{"Smoking", "Cancer"}, summary.Variables)
	assert.Len(t, summary.Marginals, 2)
	assert.Len(t, summary.Rates, 2)
	assert.Len(t, summary.Joints, 1)
	assert.Len(t, summary.Independence, 1)

	_, ok := summary.Marginal("Cancer")
	assert.True(t, ok)
	_, ok = summary.Rate("Breath")
	assert.False(t, ok)

	_, err = sum.Summarize(Pair{A: "Smoking", B: "Breath"})
	assert.ErrorIs(t, err, core.ErrUnknownVariable)
}
