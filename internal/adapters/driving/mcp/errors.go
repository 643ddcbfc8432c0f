// Package mcp provides an MCP (Model Context Protocol) server adapter for gridsync.
// It lets AI assistants queue offline changes, trigger synchronisation and
// inspect the sync queue.
package mcp

import "errors"

// ErrMissingSyncService is returned when the sync service is not provided.
var ErrMissingSyncService = errors.New("mcp: sync service is required")
