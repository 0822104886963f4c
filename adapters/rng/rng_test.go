package rng

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerStream_Deterministic(t *testing.T) {
	ctx := context.Background()
	adapter := NewSeededAdapter()

	a, err := adapter.WorkerStream(ctx, 42, 3)
	require.NoError(t, err)
	b, err := adapter.WorkerStream(ctx, 42, 3)
	require.NoError(t, err)
	other, err := adapter.WorkerStream(ctx, 42, 4)
	require.NoError(t, err)

	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
	first, err := adapter.WorkerStream(ctx, 42, 3)
	require.NoError(t, err)
	assert.NotEqual(t, first.Float64(), other.Float64())

	_, err = adapter.WorkerStream(ctx, 42, -1)
	assert.Error(t, err)
}

func TestWorkerStream_ZeroIsBaseSeed(t *testing.T) {
	stream, err := NewSeededAdapter().WorkerStream(context.Background(), 7, 0)
	require.NoError(t, err)

	plain := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		assert.Equal(t, plain.Int63(), stream.Int63())
	}
}
