// Package domain defines the core business entities for gridsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SyncRecord: A locally queued, not-yet-confirmed mutation
//   - SyncBatch: A snapshot of queued records uploaded together
//   - SyncState: The observable state of the sync service
//   - Payload: The typed entity data carried by a record (power lines,
//     poles, spans, taps, equipment, substations)
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
