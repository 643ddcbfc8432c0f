package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/custodia-labs/gridsync/internal/core/domain"
	"github.com/custodia-labs/gridsync/internal/core/ports/driven"
)

// historyTimeLayout is fixed-width so stored timestamps sort lexically.
const historyTimeLayout = "2006-01-02T15:04:05.000000000Z"

// ==================== History Store ====================

// historyStore implements driven.SyncHistoryStore.
type historyStore struct {
	store *Store
}

var _ driven.SyncHistoryStore = (*historyStore)(nil)

// RecordCycle logs a cycle result.
func (h *historyStore) RecordCycle(ctx context.Context, result *domain.CycleResult) error {
	if result == nil {
		return domain.ErrInvalidInput
	}

	_, err := h.store.db.ExecContext(ctx, `
		INSERT INTO sync_history (started_at, ended_at, success, error, uploaded, rejected, downloaded)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, formatHistoryTime(result.StartedAt),
		formatHistoryTime(result.EndedAt),
		boolToInt(result.Success),
		nullString(result.Error),
		result.Uploaded,
		result.Rejected,
		result.Downloaded)
	if err != nil {
		return fmt.Errorf("recording sync cycle: %w", err)
	}
	return nil
}

// ListCycles returns up to limit results, most recent first.
func (h *historyStore) ListCycles(ctx context.Context, limit int) ([]domain.CycleResult, error) {
	rows, err := h.store.db.QueryContext(ctx, `
		SELECT started_at, ended_at, success, error, uploaded, rejected, downloaded
		FROM sync_history
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying sync history: %w", err)
	}
	defer rows.Close()

	results := []domain.CycleResult{}
	for rows.Next() {
		result, err := scanCycleResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync history: %w", err)
	}

	return results, nil
}

// PruneHistory keeps the most recent keep results and deletes the rest.
func (h *historyStore) PruneHistory(ctx context.Context, keep int) error {
	_, err := h.store.db.ExecContext(ctx, `
		DELETE FROM sync_history
		WHERE id NOT IN (
			SELECT id FROM sync_history
			ORDER BY started_at DESC, id DESC
			LIMIT ?
		)
	`, keep)
	if err != nil {
		return fmt.Errorf("pruning sync history: %w", err)
	}
	return nil
}

// scanCycleResult scans a cycle result from *sql.Rows.
func scanCycleResult(rows *sql.Rows) (*domain.CycleResult, error) {
	var result domain.CycleResult
	var startedAt, endedAt string
	var success int
	var errMsg sql.NullString

	if err := rows.Scan(&startedAt, &endedAt, &success, &errMsg,
		&result.Uploaded, &result.Rejected, &result.Downloaded); err != nil {
		return nil, fmt.Errorf("scanning sync cycle: %w", err)
	}

	result.StartedAt = parseHistoryTime(startedAt)
	result.EndedAt = parseHistoryTime(endedAt)
	result.Success = success == 1
	if errMsg.Valid {
		result.Error = errMsg.String
	}

	return &result, nil
}

func formatHistoryTime(t time.Time) string {
	return t.UTC().Format(historyTimeLayout)
}

// parseHistoryTime returns zero time if the value cannot be parsed.
func parseHistoryTime(s string) time.Time {
	t, err := time.Parse(historyTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
