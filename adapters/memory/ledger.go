package memory

import (
	"context"
	"sort"
	"sync"

	"bayesim/domain/core"
	"bayesim/ports"
)

// InMemoryLedgerAdapter implements LedgerPort with in-memory storage
type InMemoryLedgerAdapter struct {
	runs  map[core.RunID]ports.RunRecord
	order []core.RunID
	mu    sync.RWMutex
}

var _ ports.LedgerPort = (*InMemoryLedgerAdapter)(nil)

func NewInMemoryLedgerAdapter() *InMemoryLedgerAdapter {
	return &InMemoryLedgerAdapter{
		runs: make(map[core.RunID]ports.RunRecord),
	}
}

// RecordRun stores a run. Recording the same ID twice replaces the entry.
func (s *InMemoryLedgerAdapter) RecordRun(ctx context.Context, record ports.RunRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[record.ID]; !exists {
		s.order = append(s.order, record.ID)
	}
	s.runs[record.ID] = record
	return nil
}

func (s *InMemoryLedgerAdapter) GetRun(ctx context.Context, id core.RunID) (*ports.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.runs[id]
	if !ok {
		return nil, core.NewNotFoundError("run", id.String())
	}
	return &record, nil
}

// ListRuns returns the most recent runs first; limit <= 0 means all.
func (s *InMemoryLedgerAdapter) ListRuns(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]ports.RunRecord, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		records = append(records, s.runs[s.order[i]])
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
