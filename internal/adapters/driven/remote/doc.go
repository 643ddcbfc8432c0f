// Package remote provides the HTTP implementation of driven.SyncRemote.
//
// Batches are posted to {server}/sync/upload and changes are fetched from
// {server}/sync/download?last_sync=<RFC 3339>. Requests carry a bearer token
// from an oauth2.TokenSource and are throttled by a token bucket. A 429
// response blocks further requests until its Retry-After has passed.
package remote
