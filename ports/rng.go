package ports

import (
	"context"
	"math/rand"
)

// RNGPort provides seeded random number generation for deterministic operations
type RNGPort interface {
	// WorkerStream creates the stream for one sampling worker. Worker i of a
	// run with base seed s always receives the same stream, so parallel
	// sampling stays reproducible.
	WorkerStream(ctx context.Context, baseSeed int64, worker int) (*rand.Rand, error)
}
