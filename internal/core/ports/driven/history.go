package driven

import (
	"context"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// SyncHistoryStore persists the outcome of past sync cycles.
type SyncHistoryStore interface {
	// RecordCycle logs a cycle result.
	RecordCycle(ctx context.Context, result *domain.CycleResult) error

	// ListCycles returns recent results, most recent first.
	ListCycles(ctx context.Context, limit int) ([]domain.CycleResult, error)

	// PruneHistory keeps only the most recent keep results.
	PruneHistory(ctx context.Context, keep int) error
}
