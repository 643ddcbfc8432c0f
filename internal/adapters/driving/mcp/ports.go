package mcp

import (
	"github.com/custodia-labs/gridsync/internal/core/ports/driving"
)

// Ports aggregates the driving ports used by the MCP server.
type Ports struct {
	// Sync records changes and runs sync cycles.
	Sync driving.SyncService

	// Settings exposes the configured server. Optional.
	Settings driving.SettingsService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Sync == nil {
		return ErrMissingSyncService
	}
	return nil
}
