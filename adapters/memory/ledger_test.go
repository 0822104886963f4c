package memory

import (
	"context"
	"testing"
	"time"

	"bayesim/domain/core"
	"bayesim/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLedger_RecordAndGet(t *testing.T) {
	ctx := context.Background()
	ledger := NewInMemoryLedgerAdapter()

	record := ports.RunRecord{ID: core.NewRunID(), Seed: 42, SampleCount: 100, CreatedAt: time.Now()}
	require.NoError(t, ledger.RecordRun(ctx, record))

	got, err := ledger.GetRun(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Seed)

	_, err = ledger.GetRun(ctx, core.RunID("missing"))
	assert.True(t, core.IsNotFoundError(err))
}

func TestInMemoryLedger_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	ledger := NewInMemoryLedgerAdapter()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, ledger.RecordRun(ctx, ports.RunRecord{
			ID:        core.RunID([]string{"a", "b", "c"}[i]),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := ledger.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, core.RunID("c"), all[0].ID)

	limited, err := ledger.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
