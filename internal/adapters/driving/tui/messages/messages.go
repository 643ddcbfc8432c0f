// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// StateChanged carries a snapshot from the sync state stream.
type StateChanged struct {
	State domain.SyncState
}

// StreamClosed signals the sync state stream ended.
type StreamClosed struct{}

// SyncFinished signals a cycle started from the TUI has completed.
// State is the snapshot taken after it finished.
type SyncFinished struct {
	State domain.SyncState
}

// PendingLoaded carries the queued records.
type PendingLoaded struct {
	Records []domain.SyncRecord
}

// HistoryLoaded carries recent cycle results.
type HistoryLoaded struct {
	Results []domain.CycleResult
	Err     error
}

// SettingsLoaded carries the sync settings.
type SettingsLoaded struct {
	Settings *domain.SyncSettings
	Err      error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
