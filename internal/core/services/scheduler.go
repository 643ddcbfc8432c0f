package services

import (
	"sync"
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/logger"
)

// AutoSyncScheduler fires a tick function at a fixed interval.
// The first tick fires one interval after Start. Start and Stop are
// idempotent and safe for concurrent use.
type AutoSyncScheduler struct {
	tick func()

	mu       sync.Mutex
	running  bool
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewAutoSyncScheduler creates a stopped scheduler.
func NewAutoSyncScheduler(tick func()) *AutoSyncScheduler {
	return &AutoSyncScheduler{tick: tick}
}

// Start begins ticking every interval, replacing any running schedule.
// Non-positive intervals use domain.DefaultSyncInterval.
func (s *AutoSyncScheduler) Start(interval time.Duration) {
	interval = normaliseInterval(interval)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		if s.interval == interval {
			return
		}
		s.stopLocked()
	}

	s.running = true
	s.interval = interval
	s.stopCh = make(chan struct{})

	s.wg.Add(1)
	go s.run(interval, s.stopCh)

	logger.Debug("auto-sync: started with interval %s", interval)
}

// Stop cancels future ticks. A tick already in progress is not interrupted.
func (s *AutoSyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.stopLocked()
	logger.Debug("auto-sync: stopped")
}

// Running returns true if the scheduler is ticking.
func (s *AutoSyncScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Interval returns the current tick interval, or zero when stopped.
func (s *AutoSyncScheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return 0
	}
	return s.interval
}

// stopLocked must be called with mu held.
func (s *AutoSyncScheduler) stopLocked() {
	s.running = false
	s.interval = 0
	close(s.stopCh)
	s.wg.Wait()
}

// run is the ticker loop.
func (s *AutoSyncScheduler) run(interval time.Duration, stopCh <-chan struct{}) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			select {
			case <-stopCh:
				return
			default:
			}
			if s.tick != nil {
				s.tick()
			}
		}
	}
}

// normaliseInterval applies the default to non-positive intervals.
func normaliseInterval(interval time.Duration) time.Duration {
	if interval <= 0 {
		return domain.DefaultSyncInterval
	}
	return interval
}
