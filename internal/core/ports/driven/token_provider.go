package driven

import "context"

// TokenProvider provides bearer tokens for requests to the sync server.
// Obtaining tokens is outside this module; implementations only hand out
// whatever credential is currently available.
type TokenProvider interface {
	// GetToken returns the current access token.
	// Returns empty string when no token is available.
	GetToken(ctx context.Context) (string, error)

	// IsAuthenticated returns true if a token is available.
	IsAuthenticated() bool
}

// TokenStore persists a static access token.
type TokenStore interface {
	TokenProvider

	// SetToken stores a new access token.
	SetToken(token string) error

	// ClearToken removes the stored access token.
	ClearToken() error
}
