package mcp

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// mockSyncService is a mock implementation of driving.SyncService.
type mockSyncService struct {
	mu      sync.Mutex
	state   domain.SyncState
	records []domain.SyncRecord
	history []domain.CycleResult
	err     error

	added     []domain.SyncRecord
	syncCalls int
	cleared   bool
	block     chan struct{}
}

func (m *mockSyncService) AddChange(_ context.Context, action domain.Action, payload domain.Payload) domain.SyncRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := domain.SyncRecord{
		ID:         "rec-1",
		EntityType: payload.EntityType(),
		Action:     action,
		Data:       payload,
		Status:     domain.StatusPending,
	}
	m.added = append(m.added, record)
	m.records = append(m.records, record)
	m.state.PendingRecords++
	return record
}

func (m *mockSyncService) Sync(_ context.Context) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncCalls++
	if m.block != nil {
		return m.block
	}
	done := make(chan struct{})
	close(done)
	return done
}

func (m *mockSyncService) EnableAutoSync(_ time.Duration) {}

func (m *mockSyncService) DisableAutoSync() {}

func (m *mockSyncService) State() domain.SyncState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *mockSyncService) Subscribe() (<-chan domain.SyncState, func()) {
	ch := make(chan domain.SyncState, 1)
	ch <- m.State()
	return ch, func() {}
}

func (m *mockSyncService) LastSyncTime() (time.Time, bool) {
	state := m.State()
	return state.LastSyncTime, state.HasSynced()
}

func (m *mockSyncService) PendingChanges() []domain.SyncRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.SyncRecord(nil), m.records...)
}

func (m *mockSyncService) History(_ context.Context, _ int) ([]domain.CycleResult, error) {
	return m.history, m.err
}

func (m *mockSyncService) ClearPendingChanges(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = true
	m.records = nil
	m.state.PendingRecords = 0
	m.state.FailedRecords = 0
}

func (m *mockSyncService) Close() {}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.SyncSettings
	err      error
}

func (m *mockSettingsService) Get() (*domain.SyncSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(settings *domain.SyncSettings) error {
	m.settings = settings
	return m.err
}

func (m *mockSettingsService) SetServerURL(serverURL string) error {
	m.settings.ServerURL = serverURL
	return m.err
}

func (m *mockSettingsService) SetAutoSync(enabled bool, interval time.Duration) error {
	m.settings.AutoSync = enabled
	m.settings.Interval = interval
	return m.err
}

func (m *mockSettingsService) SetStorage(backend domain.StorageBackend, dir string) error {
	m.settings.StorageBackend = backend
	m.settings.StorageDir = dir
	return m.err
}

func (m *mockSettingsService) Set(_, _ string) error {
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.SyncSettings {
	return domain.DefaultSyncSettings()
}

func (m *mockSettingsService) Keys() []string {
	return []string{"server.url", "sync.auto", "sync.interval_ms"}
}
