package driving

import (
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
)

// SettingsService manages sync settings.
type SettingsService interface {
	// Get retrieves current settings, with defaults for unset keys.
	Get() (*domain.SyncSettings, error)

	// Save validates and persists settings.
	Save(settings *domain.SyncSettings) error

	// SetServerURL updates the sync server base URL.
	SetServerURL(serverURL string) error

	// SetAutoSync enables or disables periodic sync and sets its interval.
	SetAutoSync(enabled bool, interval time.Duration) error

	// SetStorage selects the queue store backend and directory.
	SetStorage(backend domain.StorageBackend, dir string) error

	// Set updates a single setting by config key.
	Set(key, value string) error

	// GetDefaults returns default settings.
	GetDefaults() domain.SyncSettings

	// Keys returns the config keys accepted by Set.
	Keys() []string
}
