package app

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"

	"bayesim/domain/core"
	"bayesim/domain/sampling"
	"bayesim/ports"

	"golang.org/x/sync/errgroup"
)

// drawChunk is how many samples a worker draws between cancellation checks.
const drawChunk = 1024

// ParallelSampler spreads one batch over several workers. Worker i draws
// from the stream the RNG port hands out for (seed, i), and sub-batches are
// joined in worker order, so a run is reproducible for a fixed worker count.
type ParallelSampler struct {
	sampler *sampling.Sampler
	rngPort ports.RNGPort
	workers int
}

// NewParallelSampler wraps a sampler. workers < 1 is treated as 1.
func NewParallelSampler(sampler *sampling.Sampler, rngPort ports.RNGPort, workers int) *ParallelSampler {
	if workers < 1 {
		workers = 1
	}
	return &ParallelSampler{sampler: sampler, rngPort: rngPort, workers: workers}
}

// Workers returns the number of workers used per batch.
func (p *ParallelSampler) Workers() int { return p.workers }

// Sample draws n samples. With a single worker the batch equals
// sampler.Sample on rand.NewSource(seed).
func (p *ParallelSampler) Sample(ctx context.Context, seed int64, n int) (sampling.Batch, error) {
	if n < 0 {
		return sampling.Batch{}, fmt.Errorf("%w: %d", core.ErrInvalidSampleCount, n)
	}

	// Workers beyond n would draw nothing, so the batch is the same
	// without them.
	shares := split(n, min(p.workers, max(n, 1)))
	parts := make([]sampling.Batch, len(shares))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, share := range shares {
		i, share := i, share
		g.Go(func() error {
			stream, err := p.rngPort.WorkerStream(gctx, seed, i)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			part, err := p.drawShare(gctx, stream, share)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			parts[i] = part
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return sampling.Batch{}, err
	}

	return sampling.Concat(parts...)
}

func (p *ParallelSampler) drawShare(ctx context.Context, rng *rand.Rand, share int) (sampling.Batch, error) {
	var chunks []sampling.Batch
	for remaining := share; ; {
		if err := ctx.Err(); err != nil {
			return sampling.Batch{}, err
		}
		k := min(remaining, drawChunk)
		chunk, err := p.sampler.Sample(rng, k)
		if err != nil {
			return sampling.Batch{}, err
		}
		chunks = append(chunks, chunk)
		remaining -= k
		if remaining == 0 {
			break
		}
	}
	return sampling.Concat(chunks...)
}

// split divides n into parts whose sizes differ by at most one, the larger
// shares going to the lowest worker indices.
func split(n, parts int) []int {
	shares := make([]int, parts)
	for i := range shares {
		shares[i] = n / parts
		if i < n%parts {
			shares[i]++
		}
	}
	return shares
}
