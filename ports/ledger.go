package ports

import (
	"context"
	"time"

	"bayesim/domain/core"
	"bayesim/domain/scenario"
	"bayesim/domain/stats"
)

// RunRecord is the ledger entry of one finished simulation run. It records
// what was asked and what came out; the model itself is rebuilt per run.
type RunRecord struct {
	ID          core.RunID      `json:"id" db:"id"`
	Inputs      scenario.Inputs `json:"inputs" db:"-"`
	Seed        int64           `json:"seed" db:"seed"`
	SampleCount int             `json:"sample_count" db:"sample_count"`
	Workers     int             `json:"workers" db:"workers"`
	Fingerprint core.Hash       `json:"fingerprint" db:"fingerprint"`
	Rates       []stats.Rate    `json:"rates" db:"-"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// LedgerWriterPort provides append-only write access to run records
type LedgerWriterPort interface {
	RecordRun(ctx context.Context, record RunRecord) error
}

// LedgerReaderPort provides read-only access to stored runs
type LedgerReaderPort interface {
	GetRun(ctx context.Context, id core.RunID) (*RunRecord, error)
	ListRuns(ctx context.Context, limit int) ([]RunRecord, error)
}

// LedgerPort combines read and write access
type LedgerPort interface {
	LedgerWriterPort
	LedgerReaderPort
}
