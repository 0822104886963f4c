package excel

import (
	"bytes"
	"context"
	"math/rand"
	"testing"

	"bayesim/domain/sampling"
	"bayesim/domain/scenario"
	"bayesim/domain/stats"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRun(t *testing.T, n int) (sampling.Batch, stats.Summary) {
	t.Helper()
	model, err := scenario.Build(scenario.Defaults())
	require.NoError(t, err)
	sampler, err := sampling.NewSampler(model)
	require.NoError(t, err)
	batch, err := sampler.Sample(rand.New(rand.NewSource(42)), n)
	require.NoError(t, err)
	summary, err := stats.NewSummarizer(batch).Summarize(scenario.Pairs()...)
	require.NoError(t, err)
	return batch, summary
}

func TestWorkbookExporter_RoundTrip(t *testing.T) {
	batch, summary := sampleRun(t, 250)

	var buf bytes.Buffer
	require.NoError(t, NewWorkbookExporter().Export(context.Background(), &buf, batch, summary))

	table, err := ReadSamples(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{scenario.Smoking, scenario.LungCancer, scenario.ShortnessOfBreath}, table.Headers)
	assert.Equal(t, batch.Rows(), table.Rows)
}

func TestWorkbookExporter_SummarySheets(t *testing.T) {
	batch, summary := sampleRun(t, 100)

	var buf bytes.Buffer
	require.NoError(t, NewWorkbookExporter().Export(context.Background(), &buf, batch, summary))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSamples, SheetMarginals, SheetJoints, SheetProfiles, SheetInsights}, f.GetSheetList())

	marginals, err := f.GetRows(SheetMarginals)
	require.NoError(t, err)
	assert.Len(t, marginals, 1+6, "header plus two labels for each of three variables")
	assert.Equal(t, "Smoking", marginals[1][0])

	joints, err := f.GetRows(SheetJoints)
	require.NoError(t, err)
	assert.Equal(t, "Smoking \\ LungCancer", joints[0][0])
}

func TestWorkbookExporter_EmptyBatch(t *testing.T) {
	batch, summary := sampleRun(t, 0)

	var buf bytes.Buffer
	require.NoError(t, NewWorkbookExporter().Export(context.Background(), &buf, batch, summary))

	table, err := ReadSamples(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestWorkbookExporter_Cancelled(t *testing.T) {
	batch, summary := sampleRun(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewWorkbookExporter().Export(ctx, &buf, batch, summary)
	assert.ErrorIs(t, err, context.Canceled)
}
