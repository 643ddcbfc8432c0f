package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gridsync/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/gridsync/internal/core/domain"
)

func TestNewSettingsService(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())
	require.NotNil(t, service)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	settings, err := service.Get()

	require.NoError(t, err)
	assert.Equal(t, domain.DefaultSyncSettings(), *settings)
	assert.Equal(t, service.GetDefaults(), *settings)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set(KeyServerURL, "https://grid.example.com/api/v1/")
	_ = store.Set(KeyAutoSync, true)
	_ = store.Set(KeyIntervalMS, int64(60000))
	_ = store.Set(KeyRequestTimeout, int64(10))
	_ = store.Set(KeyRateLimit, 2.5)
	_ = store.Set(KeyStorageBackend, "file")
	_ = store.Set(KeyStorageDir, "/var/lib/gridsync")
	_ = store.Set(KeyMetricsAddr, ":9090")

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, "https://grid.example.com/api/v1", settings.ServerURL)
	assert.True(t, settings.AutoSync)
	assert.Equal(t, time.Minute, settings.Interval)
	assert.Equal(t, 10*time.Second, settings.RequestTimeout)
	assert.InDelta(t, 2.5, settings.RateLimit, 0.0001)
	assert.Equal(t, domain.StorageFile, settings.StorageBackend)
	assert.Equal(t, "/var/lib/gridsync", settings.StorageDir)
	assert.Equal(t, ":9090", settings.MetricsAddr)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	store := memory.NewConfigStore()
	_ = store.Set(KeyStorageBackend, "redis")
	_ = store.Set(KeyIntervalMS, -5)

	settings, err := NewSettingsService(store).Get()

	require.NoError(t, err)
	assert.Equal(t, domain.StorageSQLite, settings.StorageBackend)
	assert.Equal(t, domain.DefaultSyncInterval, settings.Interval)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	in := domain.DefaultSyncSettings()
	in.ServerURL = "http://localhost:8000/api/v1"
	in.AutoSync = true
	in.Interval = 45 * time.Second
	in.StorageBackend = domain.StorageMemory
	in.LogFile = "/tmp/gridsync.log"

	require.NoError(t, service.Save(&in))

	out, err := service.Get()
	require.NoError(t, err)
	assert.Equal(t, in, *out)
	assert.Equal(t, 45000, store.GetInt(KeyIntervalMS))
}

func TestSettingsService_Save_Invalid(t *testing.T) {
	store := memory.NewConfigStore()
	service := NewSettingsService(store)

	in := domain.DefaultSyncSettings()
	in.ServerURL = "not a url"

	err := service.Save(&in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	_, exists := store.Get(KeyServerURL)
	assert.False(t, exists)
}

func TestSettingsService_SetServerURL(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	require.NoError(t, service.SetServerURL(" https://grid.example.com/api/v1/ "))

	settings, _ := service.Get()
	assert.Equal(t, "https://grid.example.com/api/v1", settings.ServerURL)
}

func TestSettingsService_SetAutoSync(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	require.NoError(t, service.SetAutoSync(true, 2*time.Minute))
	settings, _ := service.Get()
	assert.True(t, settings.AutoSync)
	assert.Equal(t, 2*time.Minute, settings.Interval)

	require.NoError(t, service.SetAutoSync(false, 0))
	settings, _ = service.Get()
	assert.False(t, settings.AutoSync)
	assert.Equal(t, 2*time.Minute, settings.Interval)
}

func TestSettingsService_SetStorage(t *testing.T) {
	service := NewSettingsService(memory.NewConfigStore())

	require.NoError(t, service.SetStorage(domain.StorageFile, "/data"))
	settings, _ := service.Get()
	assert.Equal(t, domain.StorageFile, settings.StorageBackend)
	assert.Equal(t, "/data", settings.StorageDir)

	err := service.SetStorage("cloud", "")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestSettingsService_Set(t *testing.T) {
	tests := []struct {
		key     string
		value   string
		check   func(t *testing.T, s *domain.SyncSettings)
		wantErr bool
	}{
		{KeyServerURL, "https://x.example.com/", func(t *testing.T, s *domain.SyncSettings) {
			assert.Equal(t, "https://x.example.com", s.ServerURL)
		}, false},
		{KeyAutoSync, "true", func(t *testing.T, s *domain.SyncSettings) { assert.True(t, s.AutoSync) }, false},
		{KeyAutoSync, "maybe", nil, true},
		{KeyIntervalMS, "15000", func(t *testing.T, s *domain.SyncSettings) {
			assert.Equal(t, 15*time.Second, s.Interval)
		}, false},
		{KeyIntervalMS, "2m", func(t *testing.T, s *domain.SyncSettings) {
			assert.Equal(t, 2*time.Minute, s.Interval)
		}, false},
		{KeyIntervalMS, "0", nil, true},
		{KeyRequestTimeout, "5", func(t *testing.T, s *domain.SyncSettings) {
			assert.Equal(t, 5*time.Second, s.RequestTimeout)
		}, false},
		{KeyRateLimit, "0.5", func(t *testing.T, s *domain.SyncSettings) {
			assert.InDelta(t, 0.5, s.RateLimit, 0.0001)
		}, false},
		{KeyRateLimit, "fast", nil, true},
		{KeyStorageBackend, "memory", func(t *testing.T, s *domain.SyncSettings) {
			assert.Equal(t, domain.StorageMemory, s.StorageBackend)
		}, false},
		{KeyStorageBackend, "s3", nil, true},
		{KeyLogFile, "/tmp/g.log", func(t *testing.T, s *domain.SyncSettings) { assert.Equal(t, "/tmp/g.log", s.LogFile) }, false},
		{"search.mode", "hybrid", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			service := NewSettingsService(memory.NewConfigStore())

			err := service.Set(tt.key, tt.value)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			settings, err := service.Get()
			require.NoError(t, err)
			tt.check(t, settings)
		})
	}
}

func TestSettingsKeys(t *testing.T) {
	keys := SettingsKeys()
	assert.Contains(t, keys, KeyServerURL)
	assert.Contains(t, keys, KeyMetricsAddr)
	assert.Len(t, keys, 9)
}

func TestSettingsService_Keys(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())
	assert.Equal(t, SettingsKeys(), svc.Keys())
}
