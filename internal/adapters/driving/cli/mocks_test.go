package cli

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// mockSyncService implements driving.SyncService for testing.
type mockSyncService struct {
	mu      sync.Mutex
	state   domain.SyncState
	records []domain.SyncRecord
	history []domain.CycleResult
	err     error

	// after replaces state when Sync is called.
	after *domain.SyncState

	added        []domain.SyncRecord
	syncCalls    int
	cleared      bool
	autoInterval time.Duration
	autoDisabled bool
	historyLimit int
}

func (m *mockSyncService) AddChange(_ context.Context, action domain.Action, payload domain.Payload) domain.SyncRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	record := domain.SyncRecord{
		ID:         "rec-1",
		EntityType: payload.EntityType(),
		Action:     action,
		Data:       payload,
		Timestamp:  time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
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
	if m.after != nil {
		m.state = *m.after
	}
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
	m.autoDisabled = true
	m.state.AutoSync = false
}

func (m *mockSyncService) State() domain.SyncState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *mockSyncService) Subscribe() (<-chan domain.SyncState, func()) {
	ch := make(chan domain.SyncState, 1)
	ch <- m.State()
	var once sync.Once
	return ch, func() { once.Do(func() { close(ch) }) }
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

func (m *mockSyncService) History(_ context.Context, limit int) ([]domain.CycleResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.historyLimit = limit
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

// mockSettingsService implements driving.SettingsService for testing.
type mockSettingsService struct {
	settings *domain.SyncSettings
	err      error
	setKey   string
	setValue string
}

func newMockSettings() *mockSettingsService {
	settings := domain.DefaultSyncSettings()
	settings.ServerURL = "https://grid.example.com/api/v1"
	return &mockSettingsService{settings: &settings}
}

func (m *mockSettingsService) Get() (*domain.SyncSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	copied := *m.settings
	return &copied, nil
}

func (m *mockSettingsService) Save(settings *domain.SyncSettings) error {
	if m.err != nil {
		return m.err
	}
	m.settings = settings
	return nil
}

func (m *mockSettingsService) SetServerURL(serverURL string) error {
	m.settings.ServerURL = serverURL
	return m.err
}

func (m *mockSettingsService) SetAutoSync(enabled bool, interval time.Duration) error {
	m.settings.AutoSync = enabled
	if interval > 0 {
		m.settings.Interval = interval
	}
	return m.err
}

func (m *mockSettingsService) SetStorage(backend domain.StorageBackend, dir string) error {
	m.settings.StorageBackend = backend
	m.settings.StorageDir = dir
	return m.err
}

func (m *mockSettingsService) Set(key, value string) error {
	m.setKey, m.setValue = key, value
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.SyncSettings {
	return domain.DefaultSyncSettings()
}

func (m *mockSettingsService) Keys() []string {
	return []string{"server.url", "sync.auto", "sync.interval_ms"}
}

// mockTokenStore implements driven.TokenStore for testing.
type mockTokenStore struct {
	token   string
	err     error
	cleared bool
}

func (m *mockTokenStore) GetToken(_ context.Context) (string, error) {
	return m.token, m.err
}

func (m *mockTokenStore) IsAuthenticated() bool {
	return m.token != ""
}

func (m *mockTokenStore) SetToken(token string) error {
	if m.err != nil {
		return m.err
	}
	m.token = token
	return nil
}

func (m *mockTokenStore) ClearToken() error {
	if m.err != nil {
		return m.err
	}
	m.cleared = true
	m.token = ""
	return nil
}
