// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// SyncService is the offline-change synchroniser: it records changes,
// persists the queue, uploads batches, reconciles acknowledgements and
// pulls server-side changes. Services are pure Go with no CGO.
package services
