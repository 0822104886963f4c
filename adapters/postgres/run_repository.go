package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bayesim/domain/core"
	"bayesim/domain/scenario"
	"bayesim/domain/stats"
	"bayesim/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect opens and pings a PostgreSQL connection.
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// jsonColumn stores any JSON-encodable value in a JSONB column.
type jsonColumn[T any] struct {
	V T
}

// Value implements driver.Valuer
func (j jsonColumn[T]) Value() (driver.Value, error) {
	return json.Marshal(j.V)
}

// Scan implements sql.Scanner
func (j *jsonColumn[T]) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into JSON column", value)
	}
	return json.Unmarshal(bytes, &j.V)
}

// runRow mirrors the simulation_runs table.
type runRow struct {
	ID          string                      `db:"id"`
	Seed        int64                       `db:"seed"`
	SampleCount int                         `db:"sample_count"`
	Workers     int                         `db:"workers"`
	Fingerprint string                      `db:"fingerprint"`
	Inputs      jsonColumn[scenario.Inputs] `db:"inputs"`
	Rates       jsonColumn[[]stats.Rate]    `db:"rates"`
	CreatedAt   time.Time                   `db:"created_at"`
}

func toRow(r ports.RunRecord) runRow {
	rates := r.Rates
	if rates == nil {
		rates = []stats.Rate{}
	}
	return runRow{
		ID:          r.ID.String(),
		Seed:        r.Seed,
		SampleCount: r.SampleCount,
		Workers:     r.Workers,
		Fingerprint: r.Fingerprint.String(),
		Inputs:      jsonColumn[scenario.Inputs]{V: r.Inputs},
		Rates:       jsonColumn[[]stats.Rate]{V: rates},
		CreatedAt:   r.CreatedAt,
	}
}

func (row runRow) record() ports.RunRecord {
	return ports.RunRecord{
		ID:          core.RunID(row.ID),
		Inputs:      row.Inputs.V,
		Seed:        row.Seed,
		SampleCount: row.SampleCount,
		Workers:     row.Workers,
		Fingerprint: core.Hash(row.Fingerprint),
		Rates:       row.Rates.V,
		CreatedAt:   row.CreatedAt,
	}
}

// RunRepository implements ports.LedgerPort for PostgreSQL
type RunRepository struct {
	db *sqlx.DB
}

var _ ports.LedgerPort = (*RunRepository)(nil)

// NewRunRepository creates a new PostgreSQL run ledger
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

// RecordRun inserts a run, replacing any previous row with the same ID
func (r *RunRepository) RecordRun(ctx context.Context, record ports.RunRecord) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO simulation_runs (id, seed, sample_count, workers, fingerprint, inputs, rates, created_at)
		VALUES (:id, :seed, :sample_count, :workers, :fingerprint, :inputs, :rates, :created_at)
		ON CONFLICT (id) DO UPDATE SET
			seed = EXCLUDED.seed,
			sample_count = EXCLUDED.sample_count,
			workers = EXCLUDED.workers,
			fingerprint = EXCLUDED.fingerprint,
			inputs = EXCLUDED.inputs,
			rates = EXCLUDED.rates
	`, toRow(record))
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", record.ID, err)
	}
	return nil
}

// GetRun loads one run by ID
func (r *RunRepository) GetRun(ctx context.Context, id core.RunID) (*ports.RunRecord, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, seed, sample_count, workers, fingerprint, inputs, rates, created_at
		FROM simulation_runs
		WHERE id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.NewNotFoundError("run", id.String())
	}
	if err != nil {
		return nil, err
	}
	record := row.record()
	return &record, nil
}

// ListRuns returns the most recent runs first; limit <= 0 means all
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	query := `
		SELECT id, seed, sample_count, workers, fingerprint, inputs, rates, created_at
		FROM simulation_runs
		ORDER BY created_at DESC
	`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	records := make([]ports.RunRecord, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}
