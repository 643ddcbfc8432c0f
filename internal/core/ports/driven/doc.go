// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - QueueStore: Pending-changes and last-sync persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - SyncRemote: The sync server. Without it, every cycle fails and
//     changes stay queued.
//   - TokenProvider: Bearer token source. Without it, requests are sent
//     unauthenticated.
//   - ChangeApplier: Receives downloaded server changes. Without it, they
//     are dropped after download.
//   - RefreshNotifier: Signalled after a successful cycle.
//   - SyncHistoryStore: Cycle outcome log.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
