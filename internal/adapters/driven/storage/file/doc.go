// Package file provides a QueueStore that keeps each slot in its own file.
//
// The pending-changes queue is stored as a JSON array in
// sync_pending_changes.json and the last-sync watermark as an RFC 3339
// timestamp in sync_last_sync_time. Writes go to a temporary file that is
// renamed over the slot, so a crash never leaves a half-written queue.
//
// By default, the files live in ~/.gridsync/data.
package file
