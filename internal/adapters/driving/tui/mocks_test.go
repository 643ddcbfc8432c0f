package tui

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// mockSyncService implements driving.SyncService for testing.
type mockSyncService struct {
	mu           sync.Mutex
	state        domain.SyncState
	records      []domain.SyncRecord
	history      []domain.CycleResult
	historyErr   error
	states       chan domain.SyncState
	syncCalls    int
	autoInterval time.Duration
	unsubscribed bool
}

func newMockSync() *mockSyncService {
	return &mockSyncService{
		state:  domain.SyncState{Phase: domain.PhaseIdle},
		states: make(chan domain.SyncState, 8),
	}
}

func (m *mockSyncService) AddChange(_ context.Context, action domain.Action, payload domain.Payload) domain.SyncRecord {
	return domain.SyncRecord{Action: action, Data: payload}
}

func (m *mockSyncService) Sync(_ context.Context) <-chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.syncCalls++
	done := make(chan struct{})
	close(done)
	return done
}

func (m *mockSyncService) EnableAutoSync(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoInterval = interval
	m.state.AutoSync = true
}

func (m *mockSyncService) DisableAutoSync() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoInterval = 0
	m.state.AutoSync = false
}

func (m *mockSyncService) State() domain.SyncState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *mockSyncService) Subscribe() (<-chan domain.SyncState, func()) {
	return m.states, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.unsubscribed = true
	}
}

func (m *mockSyncService) LastSyncTime() (time.Time, bool) {
	return time.Time{}, false
}

func (m *mockSyncService) PendingChanges() []domain.SyncRecord {
	return m.records
}

func (m *mockSyncService) History(_ context.Context, _ int) ([]domain.CycleResult, error) {
	return m.history, m.historyErr
}

func (m *mockSyncService) ClearPendingChanges(_ context.Context) {}

func (m *mockSyncService) Close() {}

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings *domain.SyncSettings
}

func (m *mockSettingsService) Get() (*domain.SyncSettings, error) {
	if m.settings == nil {
		return nil, errors.New("no settings")
	}
	return m.settings, nil
}

func (m *mockSettingsService) Save(settings *domain.SyncSettings) error {
	m.settings = settings
	return nil
}

func (m *mockSettingsService) SetServerURL(string) error { return nil }

func (m *mockSettingsService) SetAutoSync(bool, time.Duration) error { return nil }

func (m *mockSettingsService) SetStorage(domain.StorageBackend, string) error { return nil }

func (m *mockSettingsService) Set(string, string) error { return nil }

func (m *mockSettingsService) GetDefaults() domain.SyncSettings {
	return domain.DefaultSyncSettings()
}

func (m *mockSettingsService) Keys() []string { return nil }
