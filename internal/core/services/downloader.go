package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/logger"
)

// downloadChanges fetches server changes since the last successful sync,
// or the last 24 hours if none, and hands them to the applier.
// The pending queue is never written.
func (s *SyncService) downloadChanges(ctx context.Context) (int, error) {
	s.mu.Lock()
	since := s.state.LastSyncTime
	if since.IsZero() {
		since = s.now().Add(-domain.DefaultDownloadWindow)
	}
	s.mu.Unlock()

	if s.remote == nil {
		return 0, domain.ErrRemoteNotConfigured
	}

	logger.Info("sync: downloading changes since %s", since.UTC().Format("2006-01-02T15:04:05Z"))
	result, err := s.remote.DownloadChanges(ctx, since.UTC())
	if err != nil {
		return 0, fmt.Errorf("download changes: %w", err)
	}
	if result != nil {
		for _, skipped := range result.Skipped {
			logger.Warn("sync: skipping unreadable server change: %v", skipped)
		}
	}
	if result == nil || len(result.Records) == 0 {
		logger.Debug("sync: no server changes")
		return 0, nil
	}

	logger.Info("sync: received %d server changes", len(result.Records))
	received := len(result.Records)
	if s.applier == nil {
		return received, nil
	}
	if err := s.applier.Apply(ctx, result.Records); err != nil {
		return received, fmt.Errorf("%w: %w", domain.ErrApplyFailed, err)
	}
	return received, nil
}
