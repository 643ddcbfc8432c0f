package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// AddChangeInput is the input schema for the add_change tool.
type AddChangeInput struct {
	EntityType string         `json:"entity_type" jsonschema:"entity type: power_line, pole, span, tap, equipment or substation"`
	Action     string         `json:"action" jsonschema:"create, update or delete"`
	Data       map[string]any `json:"data" jsonschema:"entity fields; update and delete need id or mrid"`
	Validate   bool           `json:"validate,omitempty" jsonschema:"reject the change if required fields are missing"`
}

// AddChangeOutput is the output schema for the add_change tool.
type AddChangeOutput struct {
	RecordID       string `json:"record_id"`
	EntityType     string `json:"entity_type"`
	Action         string `json:"action"`
	PendingRecords int    `json:"pending_records"`
}

// SyncInput is the input schema for the sync tool.
type SyncInput struct {
	NoWait bool `json:"no_wait,omitempty" jsonschema:"start the cycle and return without waiting for it"`
}

// SyncStateInput is the input schema for the sync_state tool.
type SyncStateInput struct{}

// StateOutput describes the sync state.
type StateOutput struct {
	IsSyncing      bool   `json:"is_syncing"`
	Phase          string `json:"phase"`
	LastSyncTime   string `json:"last_sync_time,omitempty"`
	PendingRecords int    `json:"pending_records"`
	FailedRecords  int    `json:"failed_records"`
	Error          string `json:"error,omitempty"`
	AutoSync       bool   `json:"auto_sync"`
	ServerURL      string `json:"server_url,omitempty"`
}

// ClearInput is the input schema for the clear_pending_changes tool.
type ClearInput struct {
	Confirm bool `json:"confirm" jsonschema:"must be true; queued changes are discarded without being sent"`
}

// ClearOutput is the output schema for the clear_pending_changes tool.
type ClearOutput struct {
	Cleared int `json:"cleared"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_change",
		Description: "Queue a grid asset change for the next sync",
	}, s.handleAddChange)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync",
		Description: "Upload queued changes and download server changes",
	}, s.handleSync)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "sync_state",
		Description: "Report the sync state and queue counts",
	}, s.handleSyncState)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "clear_pending_changes",
		Description: "Discard every queued change without sending it",
	}, s.handleClear)
}

// handleAddChange handles the add_change tool invocation.
func (s *Server) handleAddChange(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddChangeInput,
) (*mcp.CallToolResult, AddChangeOutput, error) {
	action, err := domain.ParseAction(strings.TrimSpace(input.Action))
	if err != nil {
		return nil, AddChangeOutput{}, err
	}

	data, err := json.Marshal(input.Data)
	if err != nil {
		return nil, AddChangeOutput{}, fmt.Errorf("encoding data: %w", err)
	}
	payload, err := domain.DecodePayload(domain.EntityType(strings.TrimSpace(input.EntityType)), data)
	if err != nil {
		return nil, AddChangeOutput{}, err
	}
	if input.Validate {
		if err := domain.ValidatePayload(action, payload); err != nil {
			return nil, AddChangeOutput{}, err
		}
	}

	record := s.ports.Sync.AddChange(ctx, action, payload)

	return nil, AddChangeOutput{
		RecordID:       record.ID,
		EntityType:     string(record.EntityType),
		Action:         string(record.Action),
		PendingRecords: s.ports.Sync.State().PendingRecords,
	}, nil
}

// handleSync handles the sync tool invocation.
func (s *Server) handleSync(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SyncInput,
) (*mcp.CallToolResult, StateOutput, error) {
	done := s.ports.Sync.Sync(ctx)
	if !input.NoWait {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, StateOutput{}, ctx.Err()
		}
	}
	return nil, s.stateOutput(), nil
}

// handleSyncState handles the sync_state tool invocation.
func (s *Server) handleSyncState(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ SyncStateInput,
) (*mcp.CallToolResult, StateOutput, error) {
	return nil, s.stateOutput(), nil
}

// handleClear handles the clear_pending_changes tool invocation.
func (s *Server) handleClear(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ClearInput,
) (*mcp.CallToolResult, ClearOutput, error) {
	if !input.Confirm {
		return nil, ClearOutput{}, fmt.Errorf("%w: confirm must be true", domain.ErrInvalidInput)
	}

	count := len(s.ports.Sync.PendingChanges())
	s.ports.Sync.ClearPendingChanges(ctx)

	return nil, ClearOutput{Cleared: count}, nil
}

// stateOutput snapshots the sync state and the configured server.
func (s *Server) stateOutput() StateOutput {
	state := s.ports.Sync.State()
	out := StateOutput{
		IsSyncing:      state.IsSyncing,
		Phase:          string(state.Phase),
		PendingRecords: state.PendingRecords,
		FailedRecords:  state.FailedRecords,
		Error:          state.Error,
		AutoSync:       state.AutoSync,
	}
	if state.HasSynced() {
		out.LastSyncTime = state.LastSyncTime.UTC().Format(time.RFC3339)
	}
	if s.ports.Settings != nil {
		if settings, err := s.ports.Settings.Get(); err == nil {
			out.ServerURL = settings.ServerURL
		}
	}
	return out
}
