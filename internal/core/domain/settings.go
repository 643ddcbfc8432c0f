package domain

import (
	"fmt"
	"net/url"
	"time"
)

// Default sync settings.
const (
	DefaultSyncInterval   = 30 * time.Second
	DefaultRequestTimeout = 30 * time.Second
	DefaultRateLimit      = 5.0
	DefaultDownloadWindow = 24 * time.Hour
)

// StorageBackend identifies where the pending-changes queue is persisted.
type StorageBackend string

// Available storage backends.
const (
	// StorageSQLite persists both slots in an embedded SQLite database.
	StorageSQLite StorageBackend = "sqlite"

	// StorageFile persists each slot as a file in the data directory.
	StorageFile StorageBackend = "file"

	// StorageMemory keeps the queue in process memory only.
	StorageMemory StorageBackend = "memory"
)

// IsValid returns true if the storage backend is recognised.
func (b StorageBackend) IsValid() bool {
	switch b {
	case StorageSQLite, StorageFile, StorageMemory:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b StorageBackend) String() string {
	return string(b)
}

// Description returns a human-readable description of the backend.
func (b StorageBackend) Description() string {
	switch b {
	case StorageSQLite:
		return "SQLite (durable, default)"
	case StorageFile:
		return "Files (one per slot)"
	case StorageMemory:
		return "Memory (lost on exit)"
	default:
		return "Unknown"
	}
}

// SyncSettings holds sync behaviour configuration.
type SyncSettings struct {
	// ServerURL is the API base URL, e.g. https://grid.example.com/api/v1.
	ServerURL string

	// AutoSync enables periodic sync cycles on startup.
	AutoSync bool

	// Interval is the period between automatic sync cycles.
	Interval time.Duration

	// RequestTimeout bounds every request to the sync server.
	RequestTimeout time.Duration

	// RateLimit is the maximum number of requests per second to the server.
	RateLimit float64

	// StorageBackend selects the queue store.
	StorageBackend StorageBackend

	// StorageDir is the directory holding queue data. Empty means the
	// default data directory.
	StorageDir string

	// LogFile is an optional rotating log file used by the daemon.
	LogFile string

	// MetricsAddr is the listen address for the metrics endpoint.
	// Empty disables it.
	MetricsAddr string
}

// DefaultSyncSettings returns the default sync configuration.
func DefaultSyncSettings() SyncSettings {
	return SyncSettings{
		AutoSync:       false,
		Interval:       DefaultSyncInterval,
		RequestTimeout: DefaultRequestTimeout,
		RateLimit:      DefaultRateLimit,
		StorageBackend: StorageSQLite,
	}
}

// Validate checks the settings are usable.
func (s SyncSettings) Validate() error {
	if s.ServerURL != "" {
		u, err := url.Parse(s.ServerURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: server url %q must be absolute", ErrInvalidInput, s.ServerURL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%w: server url scheme must be http or https", ErrInvalidInput)
		}
	}
	if s.Interval <= 0 {
		return fmt.Errorf("%w: sync interval must be positive", ErrInvalidInput)
	}
	if s.RequestTimeout <= 0 {
		return fmt.Errorf("%w: request timeout must be positive", ErrInvalidInput)
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("%w: rate limit must not be negative", ErrInvalidInput)
	}
	if !s.StorageBackend.IsValid() {
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidInput, s.StorageBackend)
	}
	return nil
}

// IsRemoteConfigured returns true if a server URL is set.
func (s SyncSettings) IsRemoteConfigured() bool {
	return s.ServerURL != ""
}
