// Package tui provides an interactive terminal dashboard for gridsync.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/gridsync/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the TUI.
type Ports struct {
	// Sync provides the state stream, the queue and sync control.
	Sync driving.SyncService

	// Settings provides the server and interval shown on the dashboard.
	// Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Sync == nil {
		return ErrMissingSyncService
	}
	return nil
}
