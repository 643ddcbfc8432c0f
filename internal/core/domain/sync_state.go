package domain

import "time"

// SyncPhase is the orchestrator's position in a sync cycle.
type SyncPhase string

// Sync phases. A cycle moves Idle -> Uploading -> Downloading -> Idle.
const (
	PhaseIdle        SyncPhase = "idle"
	PhaseUploading   SyncPhase = "uploading"
	PhaseDownloading SyncPhase = "downloading"
)

// SyncState is the observable state of the sync service.
// Values are snapshots; mutating one never affects the service.
type SyncState struct {
	// IsSyncing is true while a cycle is in flight.
	IsSyncing bool `json:"is_syncing"`

	// Phase is the current stage of the in-flight cycle.
	Phase SyncPhase `json:"phase"`

	// LastSyncTime is when the last successful cycle completed.
	// Zero if no cycle has ever succeeded.
	LastSyncTime time.Time `json:"last_sync_time,omitzero"`

	// PendingRecords is the number of queued records awaiting their first
	// acknowledgement. Derived from the queue, never stored.
	PendingRecords int `json:"pending_records"`

	// FailedRecords is the number of queued records rejected by the server.
	FailedRecords int `json:"failed_records"`

	// Error is the message of the most recent cycle failure.
	// Cleared when the next cycle starts.
	Error string `json:"error,omitempty"`

	// AutoSync reports whether periodic sync is enabled.
	AutoSync bool `json:"auto_sync"`
}

// HasSynced returns true if at least one cycle has succeeded.
func (s SyncState) HasSynced() bool {
	return !s.LastSyncTime.IsZero()
}

// HasError returns true if the last cycle failed.
func (s SyncState) HasError() bool {
	return s.Error != ""
}

// CountRecords returns the number of pending and failed records in a queue.
func CountRecords(records []SyncRecord) (pending, failed int) {
	for i := range records {
		switch records[i].Status {
		case StatusPending:
			pending++
		case StatusFailed:
			failed++
		}
	}
	return pending, failed
}
