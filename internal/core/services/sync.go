package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
	"github.com/custodia-labs/gridsync/internal/core/ports/driving"
	"github.com/custodia-labs/gridsync/internal/logger"
)

// Ensure SyncService implements the interface.
var _ driving.SyncService = (*SyncService)(nil)

// SyncService queues offline changes and synchronises them with the server.
//
// One mutex guards the queue and the state. Persistence happens while it is
// held, so durable order equals in-memory order. Network calls never do.
// At most one cycle runs at a time; a cycle uploads, then downloads.
type SyncService struct {
	store    *queueStore
	remote   driven.SyncRemote
	applier  driven.ChangeApplier
	notifier driven.RefreshNotifier
	history  driven.SyncHistoryStore

	// baseCtx carries values for cycles started by the scheduler.
	baseCtx context.Context
	now     func() time.Time

	broadcaster *stateBroadcaster
	scheduler   *AutoSyncScheduler

	mu       sync.Mutex
	records  []domain.SyncRecord
	state    domain.SyncState
	inflight chan struct{}
	closed   bool
}

// NewSyncService creates a sync service, loading the persisted queue and
// last-sync time from store. Remote, applier and notifier may be nil.
func NewSyncService(
	ctx context.Context,
	store driven.QueueStore,
	remote driven.SyncRemote,
	applier driven.ChangeApplier,
	notifier driven.RefreshNotifier,
) *SyncService {
	s := &SyncService{
		store:    newQueueStore(store),
		remote:   remote,
		applier:  applier,
		notifier: notifier,
		baseCtx:  context.WithoutCancel(ctx),
		now:      time.Now,
	}

	records, lastSync := s.store.load(ctx)
	s.records = records
	s.state = domain.SyncState{
		Phase:        domain.PhaseIdle,
		LastSyncTime: lastSync,
	}
	s.state.PendingRecords, s.state.FailedRecords = domain.CountRecords(records)

	s.broadcaster = newStateBroadcaster(s.state)
	s.scheduler = NewAutoSyncScheduler(func() {
		s.Sync(s.baseCtx)
	})

	logger.Debug("sync: loaded %d queued changes", len(records))
	return s
}

// Sync starts a cycle unless one is in flight, and returns a channel that is
// closed when the cycle finishes. The cycle is not cancelled with ctx.
func (s *SyncService) Sync(ctx context.Context) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		done := make(chan struct{})
		close(done)
		return done
	}
	if s.inflight != nil {
		logger.Debug("sync: cycle already in progress")
		return s.inflight
	}

	done := make(chan struct{})
	s.inflight = done
	s.state.IsSyncing = true
	s.state.Phase = domain.PhaseUploading
	s.state.Error = ""
	s.publishLocked()

	go s.runCycle(context.WithoutCancel(ctx), done)
	return done
}

// runCycle performs upload then download and settles the state.
func (s *SyncService) runCycle(ctx context.Context, done chan struct{}) {
	defer close(done)

	logger.Section("Sync cycle")
	result := domain.CycleResult{StartedAt: s.now().UTC()}

	var err error
	result.Uploaded, result.Rejected, err = s.uploadChanges(ctx)
	if err == nil {
		s.setPhase(domain.PhaseDownloading)
		result.Downloaded, err = s.downloadChanges(ctx)
	}

	s.mu.Lock()
	result.EndedAt = s.now().UTC()
	if err != nil {
		s.state.Error = err.Error()
		result.Error = err.Error()
		logger.Warn("sync: cycle failed: %v", err)
	} else {
		result.Success = true
		s.state.LastSyncTime = result.EndedAt
		s.store.saveLastSync(ctx, result.EndedAt)
		logger.Info("sync: cycle completed at %s", result.EndedAt.Format(time.RFC3339))
	}
	s.state.IsSyncing = false
	s.state.Phase = domain.PhaseIdle
	s.inflight = nil
	s.publishLocked()
	s.mu.Unlock()

	s.recordCycle(ctx, &result)

	if err == nil && s.notifier != nil {
		s.notifier.NotifyRefresh()
	}
}

// SetHistoryStore enables cycle history. Call before the first cycle.
func (s *SyncService) SetHistoryStore(history driven.SyncHistoryStore) {
	s.history = history
}

// History returns recent cycle results, most recent first.
func (s *SyncService) History(ctx context.Context, limit int) ([]domain.CycleResult, error) {
	if s.history == nil {
		return []domain.CycleResult{}, nil
	}
	if limit <= 0 {
		limit = domain.DefaultHistoryRetention
	}
	results, err := s.history.ListCycles(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list sync history: %w", err)
	}
	return results, nil
}

// recordCycle logs a cycle result and prunes old ones. Failures are logged.
func (s *SyncService) recordCycle(ctx context.Context, result *domain.CycleResult) {
	if s.history == nil {
		return
	}
	if err := s.history.RecordCycle(ctx, result); err != nil {
		logger.Warn("sync: failed to record cycle: %v", err)
		return
	}
	if err := s.history.PruneHistory(ctx, domain.DefaultHistoryRetention); err != nil {
		logger.Warn("sync: failed to prune history: %v", err)
	}
}

func (s *SyncService) setPhase(phase domain.SyncPhase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Phase = phase
	s.publishLocked()
}

// EnableAutoSync runs a cycle every interval, replacing any running schedule.
func (s *SyncService) EnableAutoSync(interval time.Duration) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.scheduler.Start(interval)

	s.mu.Lock()
	if s.closed {
		// Close ran while the schedule was starting.
		s.mu.Unlock()
		s.scheduler.Stop()
		return
	}
	defer s.mu.Unlock()
	s.state.AutoSync = true
	s.publishLocked()
}

// DisableAutoSync stops future automatic cycles. A running cycle completes.
func (s *SyncService) DisableAutoSync() {
	s.scheduler.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.AutoSync {
		s.state.AutoSync = false
		s.publishLocked()
	}
}

// AutoSyncInterval returns the active auto-sync interval, or zero when disabled.
func (s *SyncService) AutoSyncInterval() time.Duration {
	return s.scheduler.Interval()
}

// State returns the current state snapshot.
func (s *SyncService) State() domain.SyncState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe returns a stream of state snapshots starting with the current one.
// The stream is closed by the returned cancel func or by Close.
func (s *SyncService) Subscribe() (<-chan domain.SyncState, func()) {
	return s.broadcaster.subscribe()
}

// LastSyncTime returns when the last successful cycle completed.
func (s *SyncService) LastSyncTime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.LastSyncTime, !s.state.LastSyncTime.IsZero()
}

// Close stops automatic sync and ends every subscription. Idempotent.
// A cycle already in flight still completes and persists its outcome.
func (s *SyncService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.scheduler.Stop()
	s.broadcaster.close()
}

// publishLocked recomputes derived counts and broadcasts the state.
// Must be called with mu held.
func (s *SyncService) publishLocked() {
	s.state.PendingRecords, s.state.FailedRecords = domain.CountRecords(s.records)
	s.broadcaster.publish(s.state)
}
