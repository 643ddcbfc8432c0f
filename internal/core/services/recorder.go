package services

import (
	"context"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/logger"
)

// unknownEntity labels records queued without a usable payload.
const unknownEntity domain.EntityType = "unknown"

// AddChange queues a mutation, persists the queue and republishes state.
// It never fails; persistence errors are logged.
func (s *SyncService) AddChange(ctx context.Context, action domain.Action, payload domain.Payload) domain.SyncRecord {
	if payload == nil || payload.EntityType() == "" {
		logger.Warn("sync: %s change recorded without entity type", action)
		fields := map[string]any{}
		if g, ok := payload.(domain.GenericPayload); ok && g.Fields != nil {
			fields = g.Fields
		}
		payload = domain.GenericPayload{Type: unknownEntity, Fields: fields}
	}

	record := domain.SyncRecord{
		ID:         newID(),
		EntityType: payload.EntityType(),
		Action:     action,
		Data:       payload,
		Timestamp:  s.now().UTC(),
		Status:     domain.StatusPending,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, record)
	s.store.save(context.WithoutCancel(ctx), s.records)
	s.publishLocked()

	logger.Debug("sync: queued %s %s (%s)", record.Action, record.EntityType, record.ID)
	return record
}

// PendingChanges returns a copy of the queue in insertion order.
func (s *SyncService) PendingChanges() []domain.SyncRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.SyncRecord{}, s.records...)
}

// ClearPendingChanges empties the queue and persists the empty queue.
func (s *SyncService) ClearPendingChanges(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := len(s.records)
	s.records = nil
	s.store.save(context.WithoutCancel(ctx), []domain.SyncRecord{})
	s.publishLocked()

	logger.Info("sync: cleared %d queued changes", cleared)
}
