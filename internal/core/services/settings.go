package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
	"github.com/custodia-labs/gridsync/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	KeyServerURL      = "server.url"
	KeyAutoSync       = "sync.auto"
	KeyIntervalMS     = "sync.interval_ms"
	KeyRequestTimeout = "sync.request_timeout_seconds"
	KeyRateLimit      = "sync.rate_limit"
	KeyStorageBackend = "storage.backend"
	KeyStorageDir     = "storage.dir"
	KeyLogFile        = "log.file"
	KeyMetricsAddr    = "metrics.addr"
)

// SettingsKeys returns every config key SettingsService understands.
func SettingsKeys() []string {
	return []string{
		KeyServerURL,
		KeyAutoSync,
		KeyIntervalMS,
		KeyRequestTimeout,
		KeyRateLimit,
		KeyStorageBackend,
		KeyStorageDir,
		KeyLogFile,
		KeyMetricsAddr,
	}
}

// SettingsService manages sync settings stored in the config file.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current settings.
func (s *SettingsService) Get() (*domain.SyncSettings, error) {
	defaults := domain.DefaultSyncSettings()

	settings := &domain.SyncSettings{
		ServerURL:      strings.TrimRight(s.configStore.GetString(KeyServerURL), "/"),
		AutoSync:       s.getBool(KeyAutoSync, defaults.AutoSync),
		Interval:       time.Duration(s.getInt(KeyIntervalMS, int(defaults.Interval/time.Millisecond))) * time.Millisecond,
		RequestTimeout: time.Duration(s.getInt(KeyRequestTimeout, int(defaults.RequestTimeout/time.Second))) * time.Second,
		RateLimit:      s.getFloat(KeyRateLimit, defaults.RateLimit),
		StorageBackend: s.getBackend(defaults.StorageBackend),
		StorageDir:     s.configStore.GetString(KeyStorageDir),
		LogFile:        s.configStore.GetString(KeyLogFile),
		MetricsAddr:    s.configStore.GetString(KeyMetricsAddr),
	}

	return settings, nil
}

// Save validates and persists settings.
func (s *SettingsService) Save(settings *domain.SyncSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	if err := s.configStore.Set(KeyServerURL, settings.ServerURL); err != nil {
		return fmt.Errorf("save server url: %w", err)
	}
	if err := s.configStore.Set(KeyAutoSync, settings.AutoSync); err != nil {
		return fmt.Errorf("save auto sync: %w", err)
	}
	if err := s.configStore.Set(KeyIntervalMS, settings.Interval.Milliseconds()); err != nil {
		return fmt.Errorf("save sync interval: %w", err)
	}
	if err := s.configStore.Set(KeyRequestTimeout, int64(settings.RequestTimeout/time.Second)); err != nil {
		return fmt.Errorf("save request timeout: %w", err)
	}
	if err := s.configStore.Set(KeyRateLimit, settings.RateLimit); err != nil {
		return fmt.Errorf("save rate limit: %w", err)
	}
	if err := s.configStore.Set(KeyStorageBackend, settings.StorageBackend.String()); err != nil {
		return fmt.Errorf("save storage backend: %w", err)
	}
	if err := s.configStore.Set(KeyStorageDir, settings.StorageDir); err != nil {
		return fmt.Errorf("save storage dir: %w", err)
	}
	if err := s.configStore.Set(KeyLogFile, settings.LogFile); err != nil {
		return fmt.Errorf("save log file: %w", err)
	}
	if err := s.configStore.Set(KeyMetricsAddr, settings.MetricsAddr); err != nil {
		return fmt.Errorf("save metrics addr: %w", err)
	}

	return nil
}

// SetServerURL updates the sync server base URL.
func (s *SettingsService) SetServerURL(serverURL string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.ServerURL = strings.TrimRight(strings.TrimSpace(serverURL), "/")
	return s.Save(settings)
}

// SetAutoSync enables or disables periodic sync and sets its interval.
// A non-positive interval keeps the current one.
func (s *SettingsService) SetAutoSync(enabled bool, interval time.Duration) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.AutoSync = enabled
	if interval > 0 {
		settings.Interval = interval
	}
	return s.Save(settings)
}

// SetStorage selects the queue store backend and directory.
func (s *SettingsService) SetStorage(backend domain.StorageBackend, dir string) error {
	if !backend.IsValid() {
		return fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, backend)
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.StorageBackend = backend
	settings.StorageDir = dir
	return s.Save(settings)
}

// Set updates a single setting by config key, parsing value for its type.
func (s *SettingsService) Set(key, value string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	value = strings.TrimSpace(value)
	switch key {
	case KeyServerURL:
		settings.ServerURL = strings.TrimRight(value, "/")
	case KeyAutoSync:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		settings.AutoSync = b
	case KeyIntervalMS:
		d, err := parseDurationValue(value, time.Millisecond)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		settings.Interval = d
	case KeyRequestTimeout:
		d, err := parseDurationValue(value, time.Second)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
		}
		settings.RequestTimeout = d
	case KeyRateLimit:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		settings.RateLimit = f
	case KeyStorageBackend:
		settings.StorageBackend = domain.StorageBackend(value)
	case KeyStorageDir:
		settings.StorageDir = value
	case KeyLogFile:
		settings.LogFile = value
	case KeyMetricsAddr:
		settings.MetricsAddr = value
	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	return s.Save(settings)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.SyncSettings {
	return domain.DefaultSyncSettings()
}

// Keys returns the config keys accepted by Set.
func (s *SettingsService) Keys() []string {
	return SettingsKeys()
}

// parseDurationValue accepts a bare integer in unit, or a Go duration string.
func parseDurationValue(value string, unit time.Duration) (time.Duration, error) {
	if n, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(n) * unit, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", value)
	}
	return d, nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getBackend(defaultVal domain.StorageBackend) domain.StorageBackend {
	val := s.configStore.GetString(KeyStorageBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.StorageBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
