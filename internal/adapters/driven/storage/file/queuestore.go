package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/gridsync/internal/adapters/driven/storage/slots"
	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
)

// Ensure QueueStore implements the interface.
var _ driven.QueueStore = (*QueueStore)(nil)

// QueueStore is a file-based implementation of driven.QueueStore.
type QueueStore struct {
	mu  sync.Mutex
	dir string
}

// NewQueueStore creates a queue store in dataDir.
// If dataDir is empty, defaults to ~/.gridsync/data.
func NewQueueStore(dataDir string) (*QueueStore, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".gridsync", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &QueueStore{dir: dataDir}, nil
}

// Dir returns the directory holding the slot files.
func (s *QueueStore) Dir() string {
	return s.dir
}

// LoadRecords returns the persisted queue, or nil if nothing was saved.
func (s *QueueStore) LoadRecords(ctx context.Context) ([]domain.SyncRecord, error) {
	data, err := s.read(ctx, s.recordsPath())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return slots.DecodeRecords(data)
}

// SaveRecords replaces the persisted queue.
func (s *QueueStore) SaveRecords(ctx context.Context, records []domain.SyncRecord) error {
	data, err := slots.EncodeRecords(records)
	if err != nil {
		return err
	}
	return s.write(ctx, s.recordsPath(), data)
}

// LoadLastSync returns the watermark, or domain.ErrNotFound if none was saved.
func (s *QueueStore) LoadLastSync(ctx context.Context) (time.Time, error) {
	data, err := s.read(ctx, s.lastSyncPath())
	if err != nil {
		return time.Time{}, err
	}
	return slots.DecodeTime(string(data))
}

// SaveLastSync stores the watermark.
func (s *QueueStore) SaveLastSync(ctx context.Context, t time.Time) error {
	return s.write(ctx, s.lastSyncPath(), []byte(slots.EncodeTime(t)))
}

func (s *QueueStore) recordsPath() string {
	return filepath.Join(s.dir, slots.PendingChanges+".json")
}

func (s *QueueStore) lastSyncPath() string {
	return filepath.Join(s.dir, slots.LastSyncTime)
}

func (s *QueueStore) read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	return data, nil
}

// write replaces path atomically via a temp file in the same directory.
func (s *QueueStore) write(ctx context.Context, path string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting permissions on %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", filepath.Base(path), err)
	}
	return nil
}
