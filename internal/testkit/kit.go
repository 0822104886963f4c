package testkit

import (
	"context"
	"math/rand"
	"testing"

	"bayesim/adapters/memory"
	"bayesim/adapters/rng"
	"bayesim/app"
	"bayesim/domain/network"
	"bayesim/domain/sampling"
	"bayesim/domain/scenario"
	"bayesim/internal"
	"bayesim/ports"
)

// DefaultSeed is the seed used by fixtures unless a test picks its own.
const DefaultSeed int64 = 42

// TestKit provides testing utilities and fixtures
type TestKit struct {
	ledger *memory.InMemoryLedgerAdapter // Shared ledger instance
	rng    *rng.SeededAdapter
	logger *internal.Logger
}

// NewTestKit creates a test kit backed by an in-memory ledger
func NewTestKit() *TestKit {
	return &TestKit{
		ledger: memory.NewInMemoryLedgerAdapter(),
		rng:    rng.NewSeededAdapter(),
		logger: internal.NewLogger(internal.LogLevelError),
	}
}

// LedgerAdapter returns the shared in-memory ledger
func (k *TestKit) LedgerAdapter() ports.LedgerPort { return k.ledger }

// RNGAdapter returns the deterministic RNG adapter
func (k *TestKit) RNGAdapter() ports.RNGPort { return k.rng }

// Logger returns a logger that only reports errors
func (k *TestKit) Logger() *internal.Logger { return k.logger }

// SimulationService wires a service to the kit's ledger and RNG
func (k *TestKit) SimulationService() *app.SimulationService {
	return app.NewSimulationService(k.ledger, k.rng, k.logger)
}

// ScenarioModel builds the validated chain for in, failing the test on error.
func ScenarioModel(t testing.TB, in scenario.Inputs) *network.Model {
	t.Helper()
	model, err := scenario.Build(in)
	if err != nil {
		t.Fatalf("build scenario: %v", err)
	}
	return model
}

// SampleBatch draws n samples from the default chain with seed.
func SampleBatch(t testing.TB, n int, seed int64) sampling.Batch {
	t.Helper()
	sampler, err := sampling.NewSampler(ScenarioModel(t, scenario.Defaults()))
	if err != nil {
		t.Fatalf("new sampler: %v", err)
	}
	batch, err := sampler.Sample(rand.New(rand.NewSource(seed)), n)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	return batch
}

// RecordRuns performs count default runs through the service so the ledger
// holds something to list.
func (k *TestKit) RecordRuns(t testing.TB, count, samples int) []*app.SimulationResult {
	t.Helper()
	svc := k.SimulationService()
	results := make([]*app.SimulationResult, 0, count)
	for i := 0; i < count; i++ {
		res, err := svc.Run(context.Background(), app.SimulationRequest{
			Inputs:  scenario.Defaults(),
			Samples: samples,
			Seed:    DefaultSeed + int64(i),
			Workers: 1,
		})
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		results = append(results, res)
	}
	return results
}
