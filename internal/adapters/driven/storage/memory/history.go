package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.SyncHistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory implementation of driven.SyncHistoryStore.
type HistoryStore struct {
	mu      sync.RWMutex
	results []domain.CycleResult
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// RecordCycle logs a cycle result.
func (s *HistoryStore) RecordCycle(_ context.Context, result *domain.CycleResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, *result)
	return nil
}

// ListCycles returns recent results, most recent first.
func (s *HistoryStore) ListCycles(_ context.Context, limit int) ([]domain.CycleResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]domain.CycleResult{}, s.results...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// PruneHistory keeps only the most recent keep results.
func (s *HistoryStore) PruneHistory(ctx context.Context, keep int) error {
	recent, _ := s.ListCycles(ctx, keep)

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) <= keep {
		return nil
	}
	s.results = recent
	return nil
}
