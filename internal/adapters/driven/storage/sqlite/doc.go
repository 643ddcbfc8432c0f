// Package sqlite provides the SQLite-backed queue and history stores.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database connection serves both stores:
//
//   - QueueStore: the pending-changes queue and the last-sync watermark
//   - SyncHistoryStore: results of finished sync cycles
//
// # Schema
//
// The schema is managed through versioned migrations embedded from the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.gridsync/data/gridsync.db
//
// # Thread Safety
//
// All operations are thread-safe. The store relies on SQLite locking in WAL mode.
package sqlite
