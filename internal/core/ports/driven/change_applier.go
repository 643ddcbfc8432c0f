package driven

import (
	"context"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// ChangeApplier merges server-side changes into local state.
// It never writes to the pending-changes queue.
type ChangeApplier interface {
	// Apply receives every record of a non-empty download.
	Apply(ctx context.Context, records []domain.SyncRecord) error
}

// RefreshNotifier tells views to reload after a successful sync cycle.
type RefreshNotifier interface {
	// NotifyRefresh must not block.
	NotifyRefresh()
}
