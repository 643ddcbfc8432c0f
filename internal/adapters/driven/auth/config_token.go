package auth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
)

const (
	// KeyToken is the config key holding the static access token.
	KeyToken = "auth.token"

	// EnvToken overrides the stored token when set.
	EnvToken = "GRIDSYNC_TOKEN"
)

// Ensure ConfigTokenStore implements the TokenStore interface.
var _ driven.TokenStore = (*ConfigTokenStore)(nil)

// ConfigTokenStore keeps a static bearer token in the config file.
// Static tokens don't expire from our side; the server decides.
type ConfigTokenStore struct {
	config driven.ConfigStore
	getenv func(string) string
}

// NewConfigTokenStore creates a token store backed by configStore.
func NewConfigTokenStore(configStore driven.ConfigStore) *ConfigTokenStore {
	return &ConfigTokenStore{
		config: configStore,
		getenv: os.Getenv,
	}
}

// GetToken returns the environment token if set, otherwise the stored one.
func (s *ConfigTokenStore) GetToken(_ context.Context) (string, error) {
	return s.token(), nil
}

// IsAuthenticated returns true if a token is available.
func (s *ConfigTokenStore) IsAuthenticated() bool {
	return s.token() != ""
}

// FromEnvironment returns true if the active token comes from GRIDSYNC_TOKEN.
func (s *ConfigTokenStore) FromEnvironment() bool {
	return strings.TrimSpace(s.getenv(EnvToken)) != ""
}

// SetToken stores a new access token.
func (s *ConfigTokenStore) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: token is empty", domain.ErrInvalidInput)
	}
	if err := s.config.Set(KeyToken, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

// ClearToken removes the stored access token.
func (s *ConfigTokenStore) ClearToken() error {
	if err := s.config.Delete(KeyToken); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

func (s *ConfigTokenStore) token() string {
	if env := strings.TrimSpace(s.getenv(EnvToken)); env != "" {
		return env
	}
	return strings.TrimSpace(s.config.GetString(KeyToken))
}
