package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// QueueStore persists the pending-changes queue and the last-sync time.
// The two slots are independent; writing one never touches the other.
type QueueStore interface {
	// LoadRecords returns the persisted queue in insertion order.
	// Returns a nil slice when nothing has been persisted.
	LoadRecords(ctx context.Context) ([]domain.SyncRecord, error)

	// SaveRecords replaces the persisted queue.
	SaveRecords(ctx context.Context, records []domain.SyncRecord) error

	// LoadLastSync returns the last successful sync time.
	// Returns domain.ErrNotFound if it has never been saved.
	LoadLastSync(ctx context.Context) (time.Time, error)

	// SaveLastSync replaces the last successful sync time.
	SaveLastSync(ctx context.Context, t time.Time) error
}
