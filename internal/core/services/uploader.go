package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/logger"
)

// uploadChanges sends every queued record in one batch and reconciles
// the response. An empty queue sends nothing. Errors leave the queue as is.
// Returns the number of records sent and the number the server rejected.
func (s *SyncService) uploadChanges(ctx context.Context) (int, int, error) {
	s.mu.Lock()
	if len(s.records) == 0 {
		s.mu.Unlock()
		logger.Debug("sync: nothing to upload")
		return 0, 0, nil
	}
	batch := domain.SyncBatch{
		BatchID:   newID(),
		Timestamp: s.now().UTC(),
		Records:   append([]domain.SyncRecord{}, s.records...),
	}
	s.mu.Unlock()

	if s.remote == nil {
		return 0, 0, domain.ErrRemoteNotConfigured
	}

	logger.Info("sync: uploading batch %s with %d changes", batch.BatchID, len(batch.Records))
	result, err := s.remote.UploadBatch(ctx, batch)
	if err != nil {
		return 0, 0, fmt.Errorf("upload changes: %w", err)
	}
	if result == nil {
		return 0, 0, fmt.Errorf("upload changes: %w: empty response", domain.ErrTransport)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = reconcile(s.records, &batch, result)
	s.store.save(ctx, s.records)
	s.publishLocked()

	logger.Info("sync: batch %s processed=%d failed=%d", batch.BatchID, result.ProcessedCount, result.FailedCount)
	return len(batch.Records), len(result.Errors), nil
}

// reconcile applies a batch result to the queue and returns the new queue.
//
// Records named in result.Errors become failed with the server's message.
// On success every other record of the batch is removed. Records queued
// after the batch snapshot are never touched by the acknowledgement.
func reconcile(records []domain.SyncRecord, batch *domain.SyncBatch, result *domain.BatchResult) []domain.SyncRecord {
	rejected := make(map[string]string, len(result.Errors))
	for _, e := range result.Errors {
		if _, seen := rejected[e.RecordID]; !seen {
			rejected[e.RecordID] = e.Error
		}
	}

	if !result.Success && len(rejected) == 0 {
		logger.Warn("sync: batch %s rejected without record errors; changes stay queued", batch.BatchID)
	}

	inBatch := batch.RecordIDs()
	kept := make([]domain.SyncRecord, 0, len(records))
	for i := range records {
		r := records[i]
		if msg, ok := rejected[r.ID]; ok {
			r.MarkFailed(msg)
			kept = append(kept, r)
			continue
		}
		if _, ok := inBatch[r.ID]; ok && result.Success {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}
