package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// SyncRemote is the server side of synchronisation.
//
// Errors are cycle-level failures: the request never completed, the server
// answered with a non-success status, or the body could not be decoded.
// Per-record rejections are reported inside BatchResult, not as errors.
type SyncRemote interface {
	// UploadBatch submits a batch of queued changes.
	UploadBatch(ctx context.Context, batch domain.SyncBatch) (*domain.BatchResult, error)

	// DownloadChanges fetches server-side changes made after since.
	DownloadChanges(ctx context.Context, since time.Time) (*domain.DownloadResult, error)
}
