package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownEntityType indicates an entity type with no typed payload.
	ErrUnknownEntityType = errors.New("unknown entity type")

	// ErrInvalidAction indicates an action other than create, update or delete.
	ErrInvalidAction = errors.New("invalid action")

	// Sync Errors.

	// ErrTransport indicates a request to the sync server never completed
	// or returned an unusable response. The queue is left untouched.
	ErrTransport = errors.New("sync transport failed")

	// ErrRemoteNotConfigured indicates no sync server URL is configured.
	ErrRemoteNotConfigured = errors.New("sync server not configured")

	// ErrRateLimited indicates the sync server rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrApplyFailed indicates downloaded changes could not be applied locally.
	ErrApplyFailed = errors.New("applying server changes failed")

	// Authentication Errors.

	// ErrAuthRequired indicates the server rejected the request for lack of
	// valid credentials.
	ErrAuthRequired = errors.New("authentication required")
)
