package rng

import (
	"context"
	"fmt"
	"math/rand"

	"bayesim/ports"
)

// SeededAdapter implements ports.RNGPort with math/rand sources.
type SeededAdapter struct{}

var _ ports.RNGPort = (*SeededAdapter)(nil)

// NewSeededAdapter returns the deterministic RNG adapter.
func NewSeededAdapter() *SeededAdapter {
	return &SeededAdapter{}
}

// WorkerStream seeds worker i with baseSeed + i.
func (r *SeededAdapter) WorkerStream(ctx context.Context, baseSeed int64, worker int) (*rand.Rand, error) {
	if worker < 0 {
		return nil, fmt.Errorf("worker index must be non-negative, got %d", worker)
	}
	return rand.New(rand.NewSource(baseSeed + int64(worker))), nil
}
