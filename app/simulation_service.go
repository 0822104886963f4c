package app

import (
	"context"
	"fmt"
	"time"

	"bayesim/domain/core"
	"bayesim/domain/sampling"
	"bayesim/domain/scenario"
	"bayesim/domain/stats"
	"bayesim/internal"
	"bayesim/internal/errors"
	"bayesim/ports"
)

// SimulationRequest defines the inputs for one simulation run
type SimulationRequest struct {
	Inputs  scenario.Inputs `json:"inputs"`
	Samples int             `json:"samples"`
	Seed    int64           `json:"seed"`
	Workers int             `json:"workers"`
}

// SimulationResult contains the complete output of a run
type SimulationResult struct {
	RunID     core.RunID      `json:"run_id"`
	Batch     sampling.Batch  `json:"batch"`
	Summary   stats.Summary   `json:"summary"`
	Record    ports.RunRecord `json:"record"`
	RuntimeMs int64           `json:"runtime_ms"`
}

// Limits caps the size of a single run.
type Limits struct {
	MaxSamples int
	MaxWorkers int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{MaxSamples: 1_000_000, MaxWorkers: 64}
}

// Check rejects sample and worker counts outside the limits.
func (l Limits) Check(samples, workers int) error {
	if samples < 0 || samples > l.MaxSamples {
		return fmt.Errorf("%w: %d (allowed 0 to %d)", core.ErrInvalidSampleCount, samples, l.MaxSamples)
	}
	if workers > l.MaxWorkers {
		return fmt.Errorf("%w: %d (at most %d)", core.ErrInvalidWorkerCount, workers, l.MaxWorkers)
	}
	return nil
}

// SimulationService builds the chain from user inputs, samples it,
// summarises the batch and records the run in the ledger.
type SimulationService struct {
	ledgerPort ports.LedgerPort
	rngPort    ports.RNGPort
	logger     *internal.Logger
	limits     Limits
	now        func() time.Time
}

// NewSimulationService creates a simulation service
func NewSimulationService(ledgerPort ports.LedgerPort, rngPort ports.RNGPort, logger *internal.Logger) *SimulationService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &SimulationService{
		ledgerPort: ledgerPort,
		rngPort:    rngPort,
		logger:     logger,
		limits:     DefaultLimits(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithLimits replaces the run limits and returns the service. Fields
// below 1 keep their default.
func (s *SimulationService) WithLimits(limits Limits) *SimulationService {
	d := DefaultLimits()
	if limits.MaxSamples < 1 {
		limits.MaxSamples = d.MaxSamples
	}
	if limits.MaxWorkers < 1 {
		limits.MaxWorkers = d.MaxWorkers
	}
	s.limits = limits
	return s
}

// Limits returns the run limits in force.
func (s *SimulationService) Limits() Limits { return s.limits }

// Simulate builds, samples and summarises without touching the ledger.
func (s *SimulationService) Simulate(ctx context.Context, req SimulationRequest) (sampling.Batch, stats.Summary, error) {
	if err := s.limits.Check(req.Samples, req.Workers); err != nil {
		return sampling.Batch{}, stats.Summary{}, err
	}
	model, err := scenario.Build(req.Inputs)
	if err != nil {
		return sampling.Batch{}, stats.Summary{}, err
	}
	sampler, err := sampling.NewSampler(model)
	if err != nil {
		return sampling.Batch{}, stats.Summary{}, err
	}

	batch, err := NewParallelSampler(sampler, s.rngPort, req.Workers).Sample(ctx, req.Seed, req.Samples)
	if err != nil {
		return sampling.Batch{}, stats.Summary{}, err
	}

	summary, err := stats.NewSummarizer(batch).Summarize(scenario.Pairs()...)
	if err != nil {
		return sampling.Batch{}, stats.Summary{}, err
	}
	return batch, summary, nil
}

// Run executes a simulation and records it in the ledger.
func (s *SimulationService) Run(ctx context.Context, req SimulationRequest) (*SimulationResult, error) {
	start := time.Now()
	if req.Workers < 1 {
		req.Workers = 1
	}
	s.logger.Debug("simulation: n=%d seed=%d workers=%d inputs=%+v", req.Samples, req.Seed, req.Workers, req.Inputs)

	batch, summary, err := s.Simulate(ctx, req)
	if err != nil {
		s.logger.Warn("simulation rejected: %v", err)
		return nil, err
	}

	record := ports.RunRecord{
		ID:          core.NewRunID(),
		Inputs:      req.Inputs,
		Seed:        req.Seed,
		SampleCount: batch.Len(),
		Workers:     req.Workers,
		Fingerprint: batch.Fingerprint(),
		Rates:       summary.Rates,
		CreatedAt:   s.now(),
	}
	if err := s.ledgerPort.RecordRun(ctx, record); err != nil {
		s.logger.Error("failed to record run %s: %v", record.ID, err)
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "record run %s", record.ID))
	}

	elapsed := time.Since(start)
	s.logger.Info("simulation %s: %d samples, fingerprint %s, %s", record.ID, batch.Len(), record.Fingerprint.Short(), elapsed.Round(time.Millisecond))

	return &SimulationResult{
		RunID:     record.ID,
		Batch:     batch,
		Summary:   summary,
		Record:    record,
		RuntimeMs: elapsed.Milliseconds(),
	}, nil
}

// GetRun returns one recorded run.
func (s *SimulationService) GetRun(ctx context.Context, id core.RunID) (*ports.RunRecord, error) {
	return s.ledgerPort.GetRun(ctx, id)
}

// ListRuns returns recorded runs, newest first. limit <= 0 returns all.
func (s *SimulationService) ListRuns(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	return s.ledgerPort.ListRuns(ctx, limit)
}

// Replay re-runs a recorded simulation from its inputs, seed and worker
// count and checks that it reproduces the recorded fingerprint.
func (s *SimulationService) Replay(ctx context.Context, id core.RunID) (*SimulationResult, error) {
	record, err := s.ledgerPort.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}

	batch, summary, err := s.Simulate(ctx, SimulationRequest{
		Inputs:  record.Inputs,
		Samples: record.SampleCount,
		Seed:    record.Seed,
		Workers: record.Workers,
	})
	if err != nil {
		return nil, err
	}
	if fp := batch.Fingerprint(); fp != record.Fingerprint {
		return nil, fmt.Errorf("%w: run %s replayed to %s, recorded %s", core.ErrSeedMismatch, id, fp.Short(), record.Fingerprint.Short())
	}
	s.logger.Debug("replayed run %s", id)

	return &SimulationResult{RunID: record.ID, Batch: batch, Summary: summary, Record: *record}, nil
}
