package auth

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
)

// TokenSourceAdapter adapts a TokenProvider to oauth2.TokenSource.
// The provider is asked on every request, so a token changed in the
// config file takes effect without a restart.
type TokenSourceAdapter struct {
	provider driven.TokenProvider
	ctx      context.Context
}

// NewTokenSource creates an oauth2.TokenSource from a TokenProvider.
func NewTokenSource(ctx context.Context, provider driven.TokenProvider) oauth2.TokenSource {
	return &TokenSourceAdapter{
		provider: provider,
		ctx:      ctx,
	}
}

// Token implements oauth2.TokenSource.
// An empty token is reported as domain.ErrAuthRequired.
func (t *TokenSourceAdapter) Token() (*oauth2.Token, error) {
	accessToken, err := t.provider.GetToken(t.ctx)
	if err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, domain.ErrAuthRequired
	}

	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}, nil
}
