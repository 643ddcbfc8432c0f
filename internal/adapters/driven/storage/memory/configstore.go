package memory

import (
	"sync"

	"github.com/custodia-labs/gridsync/internal/adapters/driven/config"
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps settings in process memory. Save and Load do nothing,
// so values vanish with the process. Used by tests.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore creates an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

// Get returns the raw value for key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.values[key]
	return val, ok
}

func (s *ConfigStore) lookup(key string) any {
	val, _ := s.Get(key)
	return val
}

// GetString returns the value for key if it is a string.
func (s *ConfigStore) GetString(key string) string { return config.String(s.lookup(key)) }

// GetInt returns the value for key as an int.
func (s *ConfigStore) GetInt(key string) int { return config.Int(s.lookup(key)) }

// GetFloat returns the value for key as a float64.
func (s *ConfigStore) GetFloat(key string) float64 { return config.Float(s.lookup(key)) }

// GetBool returns the value for key if it is a bool.
func (s *ConfigStore) GetBool(key string) bool { return config.Bool(s.lookup(key)) }

// GetStringSlice returns the string elements of the value for key.
func (s *ConfigStore) GetStringSlice(key string) []string {
	return config.StringSlice(s.lookup(key))
}

// Set stores value under key.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

// Delete removes key. Missing keys are ignored.
func (s *ConfigStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

// Path returns ":memory:".
func (s *ConfigStore) Path() string { return ":memory:" }
