package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/gridsync/internal/adapters/driven/storage/slots"
	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
)

// ==================== Queue Store ====================

// queueStore implements driven.QueueStore on the sync_slots table.
type queueStore struct {
	store *Store
}

var _ driven.QueueStore = (*queueStore)(nil)

// LoadRecords returns the persisted queue, or nil if nothing was saved.
func (q *queueStore) LoadRecords(ctx context.Context) ([]domain.SyncRecord, error) {
	value, err := q.getSlot(ctx, slots.PendingChanges)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return slots.DecodeRecords([]byte(value))
}

// SaveRecords replaces the persisted queue.
func (q *queueStore) SaveRecords(ctx context.Context, records []domain.SyncRecord) error {
	data, err := slots.EncodeRecords(records)
	if err != nil {
		return err
	}
	return q.setSlot(ctx, slots.PendingChanges, string(data))
}

// LoadLastSync returns the watermark, or domain.ErrNotFound if none was saved.
func (q *queueStore) LoadLastSync(ctx context.Context) (time.Time, error) {
	value, err := q.getSlot(ctx, slots.LastSyncTime)
	if err != nil {
		return time.Time{}, err
	}
	return slots.DecodeTime(value)
}

// SaveLastSync stores the watermark.
func (q *queueStore) SaveLastSync(ctx context.Context, t time.Time) error {
	return q.setSlot(ctx, slots.LastSyncTime, slots.EncodeTime(t))
}

func (q *queueStore) getSlot(ctx context.Context, key string) (string, error) {
	var value string
	err := q.store.db.QueryRowContext(ctx,
		`SELECT value FROM sync_slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading slot %s: %w", key, err)
	}
	return value, nil
}

func (q *queueStore) setSlot(ctx context.Context, key, value string) error {
	_, err := q.store.db.ExecContext(ctx, `
		INSERT INTO sync_slots (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("writing slot %s: %w", key, err)
	}
	return nil
}
