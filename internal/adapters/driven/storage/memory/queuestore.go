package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
)

// Ensure QueueStore implements the interface.
var _ driven.QueueStore = (*QueueStore)(nil)

// QueueStore is an in-memory implementation of driven.QueueStore.
type QueueStore struct {
	mu       sync.RWMutex
	records  []domain.SyncRecord
	saved    bool
	lastSync time.Time
	saveErr  error
	loadErr  error
	saves    int
}

// NewQueueStore creates a new in-memory queue store.
func NewQueueStore() *QueueStore {
	return &QueueStore{}
}

// LoadRecords returns a copy of the stored queue.
func (s *QueueStore) LoadRecords(_ context.Context) ([]domain.SyncRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if !s.saved {
		return nil, nil
	}
	return append([]domain.SyncRecord{}, s.records...), nil
}

// SaveRecords replaces the stored queue.
func (s *QueueStore) SaveRecords(_ context.Context, records []domain.SyncRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records = append([]domain.SyncRecord{}, records...)
	s.saved = true
	s.saves++
	return nil
}

// LoadLastSync returns the stored last-sync time.
func (s *QueueStore) LoadLastSync(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.loadErr != nil {
		return time.Time{}, s.loadErr
	}
	if s.lastSync.IsZero() {
		return time.Time{}, domain.ErrNotFound
	}
	return s.lastSync, nil
}

// SaveLastSync stores the last-sync time.
func (s *QueueStore) SaveLastSync(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.lastSync = t
	return nil
}

// SetSaveError makes every subsequent save fail with err. Nil restores saving.
func (s *QueueStore) SetSaveError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveErr = err
}

// SetLoadError makes every subsequent load fail with err. Nil restores loading.
func (s *QueueStore) SetLoadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr = err
}

// SaveCount returns how many times the queue has been saved successfully.
func (s *QueueStore) SaveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
