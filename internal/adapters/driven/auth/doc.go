// Package auth provides token providers for requests to the sync server.
//
// Obtaining a token is outside gridsync: users paste an access token with
// "gridsync auth set-token" or export GRIDSYNC_TOKEN. The providers here only
// hand that token out, and NewTokenSource bridges them into oauth2 so the
// HTTP client can inject the Authorization header.
package auth
