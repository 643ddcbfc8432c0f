package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// SyncService records offline changes and synchronises them with the server.
type SyncService interface {
	// AddChange queues a mutation and returns the created record.
	// The entity type is taken from the payload variant.
	AddChange(ctx context.Context, action domain.Action, payload domain.Payload) domain.SyncRecord

	// Sync starts a sync cycle unless one is already running.
	// The returned channel is closed when that cycle (new or in-flight)
	// finishes. Failures are reported through SyncState.Error.
	Sync(ctx context.Context) <-chan struct{}

	// EnableAutoSync runs a cycle every interval, replacing any running
	// schedule. Non-positive intervals use the default.
	EnableAutoSync(interval time.Duration)

	// DisableAutoSync stops future automatic cycles.
	DisableAutoSync()

	// State returns the current state snapshot.
	State() domain.SyncState

	// Subscribe returns a stream of state snapshots, starting with the
	// current one, and a function that ends the subscription.
	Subscribe() (<-chan domain.SyncState, func())

	// LastSyncTime returns when the last successful cycle completed.
	LastSyncTime() (time.Time, bool)

	// PendingChanges returns a copy of the queue, pending and failed records.
	PendingChanges() []domain.SyncRecord

	// History returns recent cycle results, most recent first.
	// Returns an empty slice when no history store is configured.
	History(ctx context.Context, limit int) ([]domain.CycleResult, error)

	// ClearPendingChanges empties the queue.
	ClearPendingChanges(ctx context.Context)

	// Close stops automatic sync and ends every subscription.
	Close()
}
