// Package slots defines the persisted layout shared by the durable queue
// stores: a pending-changes slot holding a JSON array of records and a
// last-sync slot holding an RFC 3339 timestamp.
package slots

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/logger"
)

// Slot keys.
const (
	PendingChanges = "sync_pending_changes"
	LastSyncTime   = "sync_last_sync_time"
)

// EncodeRecords encodes the queue as a JSON array. A nil queue encodes as [].
func EncodeRecords(records []domain.SyncRecord) ([]byte, error) {
	if records == nil {
		records = []domain.SyncRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding pending changes: %w", err)
	}
	return data, nil
}

// DecodeRecords decodes a JSON array of records with domain.DecodeRecords.
// Unreadable entries are skipped and logged so one bad record never loses
// the rest of the queue. A malformed array is an error.
func DecodeRecords(data []byte) ([]domain.SyncRecord, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding pending changes: %w", err)
	}

	records, skipped := domain.DecodeRecords(raw)
	for _, err := range skipped {
		logger.Warn("storage: skipping unreadable pending change: %v", err)
	}
	return records, nil
}

// EncodeTime encodes a timestamp as RFC 3339 with millisecond precision in UTC.
func EncodeTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// DecodeTime parses a timestamp written by EncodeTime, any RFC 3339 value,
// or a naive ISO-8601 value, which is read as UTC.
func DecodeTime(s string) (time.Time, error) {
	t, err := domain.ParseTimestamp(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding last sync time: %w", err)
	}
	return t, nil
}
