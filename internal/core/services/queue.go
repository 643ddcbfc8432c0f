package services

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
	"github.com/custodia-labs/gridsync/internal/logger"
)

// queueStore is the best-effort persistence layer over a driven.QueueStore.
// Failures are logged and swallowed; the in-memory queue stays authoritative.
type queueStore struct {
	store driven.QueueStore
}

func newQueueStore(store driven.QueueStore) *queueStore {
	return &queueStore{store: store}
}

// load returns the persisted queue and last-sync time.
// Missing or unreadable data yields an empty queue and a zero time.
// Duplicate ids are dropped (first wins) and synced records discarded.
func (q *queueStore) load(ctx context.Context) ([]domain.SyncRecord, time.Time) {
	if q.store == nil {
		return nil, time.Time{}
	}

	records, err := q.store.LoadRecords(ctx)
	if err != nil {
		logger.Warn("sync: failed to load pending changes: %v", err)
		records = nil
	}

	seen := make(map[string]struct{}, len(records))
	kept := make([]domain.SyncRecord, 0, len(records))
	for i := range records {
		r := records[i]
		if r.Status == domain.StatusSynced {
			continue
		}
		if _, dup := seen[r.ID]; dup {
			logger.Warn("sync: dropping duplicate pending change %s", r.ID)
			continue
		}
		if r.Status == "" {
			r.Status = domain.StatusPending
		}
		seen[r.ID] = struct{}{}
		kept = append(kept, r)
	}

	lastSync, err := q.store.LoadLastSync(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("sync: failed to load last sync time: %v", err)
		}
		lastSync = time.Time{}
	}

	return kept, lastSync
}

// save replaces the persisted queue.
func (q *queueStore) save(ctx context.Context, records []domain.SyncRecord) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveRecords(ctx, records); err != nil {
		logger.Warn("sync: failed to save pending changes: %v", err)
	}
}

// saveLastSync replaces the persisted last-sync time.
func (q *queueStore) saveLastSync(ctx context.Context, t time.Time) {
	if q.store == nil {
		return
	}
	if err := q.store.SaveLastSync(ctx, t); err != nil {
		logger.Warn("sync: failed to save last sync time: %v", err)
	}
}
