package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

func newTestServer(t *testing.T, sync *mockSyncService, settings *mockSettingsService) *Server {
	t.Helper()
	ports := &Ports{Sync: sync}
	if settings != nil {
		ports.Settings = settings
	}
	server, err := NewServer(ports)
	require.NoError(t, err)
	return server
}

func TestServer_handleAddChange(t *testing.T) {
	ctx := context.Background()

	t.Run("queues typed payload", func(t *testing.T) {
		mock := &mockSyncService{}
		server := newTestServer(t, mock, nil)

		input := AddChangeInput{
			EntityType: "pole",
			Action:     "create",
			Data:       map[string]any{"power_line_id": 7, "pole_number": "P-12", "pole_type": "anchor"},
		}
		_, output, err := server.handleAddChange(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "rec-1", output.RecordID)
		assert.Equal(t, "pole", output.EntityType)
		assert.Equal(t, "create", output.Action)
		assert.Equal(t, 1, output.PendingRecords)

		require.Len(t, mock.added, 1)
		pole, ok := mock.added[0].Data.(domain.PolePayload)
		require.True(t, ok)
		assert.Equal(t, "P-12", pole.PoleNumber)
		assert.Equal(t, domain.IntID(7), pole.PowerLineID)
	})

	t.Run("unknown entity becomes generic payload", func(t *testing.T) {
		mock := &mockSyncService{}
		server := newTestServer(t, mock, nil)

		input := AddChangeInput{EntityType: "meter", Action: "update", Data: map[string]any{"id": "m-1"}}
		_, output, err := server.handleAddChange(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "meter", output.EntityType)
		_, ok := mock.added[0].Data.(domain.GenericPayload)
		assert.True(t, ok)
	})

	t.Run("rejects invalid action", func(t *testing.T) {
		mock := &mockSyncService{}
		server := newTestServer(t, mock, nil)

		input := AddChangeInput{EntityType: "pole", Action: "upsert"}
		_, _, err := server.handleAddChange(ctx, nil, input)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidAction)
		assert.Empty(t, mock.added)
	})

	t.Run("rejects missing entity type", func(t *testing.T) {
		server := newTestServer(t, &mockSyncService{}, nil)

		_, _, err := server.handleAddChange(ctx, nil, AddChangeInput{Action: "create"})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("validate reports missing fields", func(t *testing.T) {
		mock := &mockSyncService{}
		server := newTestServer(t, mock, nil)

		input := AddChangeInput{
			EntityType: "equipment",
			Action:     "create",
			Data:       map[string]any{"name": "Recloser"},
			Validate:   true,
		}
		_, _, err := server.handleAddChange(ctx, nil, input)

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Contains(t, err.Error(), "pole_id")
		assert.Empty(t, mock.added)
	})

	t.Run("without validate incomplete change is queued", func(t *testing.T) {
		mock := &mockSyncService{}
		server := newTestServer(t, mock, nil)

		input := AddChangeInput{EntityType: "equipment", Action: "create", Data: map[string]any{"name": "Recloser"}}
		_, _, err := server.handleAddChange(ctx, nil, input)

		require.NoError(t, err)
		assert.Len(t, mock.added, 1)
	})
}

func TestServer_handleSync(t *testing.T) {
	ctx := context.Background()

	t.Run("waits and returns state", func(t *testing.T) {
		last := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		mock := &mockSyncService{state: domain.SyncState{
			Phase:         domain.PhaseIdle,
			LastSyncTime:  last,
			FailedRecords: 1,
			Error:         "boom",
		}}
		server := newTestServer(t, mock, nil)

		_, output, err := server.handleSync(ctx, nil, SyncInput{})

		require.NoError(t, err)
		assert.Equal(t, 1, mock.syncCalls)
		assert.Equal(t, "idle", output.Phase)
		assert.Equal(t, "2026-03-01T10:00:00Z", output.LastSyncTime)
		assert.Equal(t, 1, output.FailedRecords)
		assert.Equal(t, "boom", output.Error)
	})

	t.Run("no wait returns while cycle runs", func(t *testing.T) {
		mock := &mockSyncService{
			block: make(chan struct{}),
			state: domain.SyncState{IsSyncing: true, Phase: domain.PhaseUploading},
		}
		server := newTestServer(t, mock, nil)

		_, output, err := server.handleSync(ctx, nil, SyncInput{NoWait: true})

		require.NoError(t, err)
		assert.True(t, output.IsSyncing)
		assert.Equal(t, "uploading", output.Phase)
	})

	t.Run("cancelled context stops waiting", func(t *testing.T) {
		mock := &mockSyncService{block: make(chan struct{})}
		server := newTestServer(t, mock, nil)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, _, err := server.handleSync(cctx, nil, SyncInput{})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestServer_handleSyncState(t *testing.T) {
	t.Run("never synced omits last sync time", func(t *testing.T) {
		mock := &mockSyncService{state: domain.SyncState{Phase: domain.PhaseIdle, PendingRecords: 3, AutoSync: true}}
		server := newTestServer(t, mock, nil)

		_, output, err := server.handleSyncState(context.Background(), nil, SyncStateInput{})

		require.NoError(t, err)
		assert.Empty(t, output.LastSyncTime)
		assert.Equal(t, 3, output.PendingRecords)
		assert.True(t, output.AutoSync)
		assert.Empty(t, output.ServerURL)
	})

	t.Run("includes configured server", func(t *testing.T) {
		settings := &mockSettingsService{settings: &domain.SyncSettings{ServerURL: "https://grid.example.com"}}
		server := newTestServer(t, &mockSyncService{}, settings)

		_, output, err := server.handleSyncState(context.Background(), nil, SyncStateInput{})

		require.NoError(t, err)
		assert.Equal(t, "https://grid.example.com", output.ServerURL)
	})
}

func TestServer_handleClear(t *testing.T) {
	ctx := context.Background()

	t.Run("requires confirmation", func(t *testing.T) {
		mock := &mockSyncService{records: []domain.SyncRecord{{ID: "a"}}}
		server := newTestServer(t, mock, nil)

		_, _, err := server.handleClear(ctx, nil, ClearInput{})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.False(t, mock.cleared)
	})

	t.Run("clears and reports count", func(t *testing.T) {
		mock := &mockSyncService{records: []domain.SyncRecord{{ID: "a"}, {ID: "b"}}}
		server := newTestServer(t, mock, nil)

		_, output, err := server.handleClear(ctx, nil, ClearInput{Confirm: true})

		require.NoError(t, err)
		assert.True(t, mock.cleared)
		assert.Equal(t, 2, output.Cleared)
	})
}
