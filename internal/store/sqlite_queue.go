package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/HenryFroio/farmanossa-expo-demo-sub002/internal/types"
)

// queueTimeLayout is fixed-width so that lexicographic ordering of the stored
// queued_at column matches chronological ordering.
const queueTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// EnqueueSync appends a sync-queue entry for the given reference. Entries are
// never updated in place; retirement is deletion.
func (s *SQLiteStore) EnqueueSync(ctx context.Context, kind types.QueueKind, referenceID string) (*types.QueueEntry, error) {
	if referenceID == "" {
		return nil, fmt.Errorf("reference id is empty")
	}

	entry := &types.QueueEntry{
		ID:          ulid.Make().String(),
		Kind:        kind,
		ReferenceID: referenceID,
		QueuedAt:    time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_queue (id, kind, reference_id, queued_at, processed, retries)
		VALUES (?, ?, ?, ?, 0, 0)
	`, entry.ID, string(entry.Kind), entry.ReferenceID, entry.QueuedAt.Format(queueTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("insert queue entry: %w", err)
	}
	return entry, nil
}

// HasUnprocessedEntry reports whether an unprocessed entry already exists for
// the reference. Used by observers as a best-effort dedupe check; the
// check-then-insert is not atomic and occasional duplicates are tolerated.
func (s *SQLiteStore) HasUnprocessedEntry(ctx context.Context, kind types.QueueKind, referenceID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sync_queue
		WHERE kind = ? AND reference_id = ? AND processed = 0
	`, string(kind), referenceID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("query queue entry: %w", err)
	}
	return count > 0, nil
}

// UnprocessedEntries returns up to limit unprocessed entries of the given
// kind, oldest first.
func (s *SQLiteStore) UnprocessedEntries(ctx context.Context, kind types.QueueKind, limit int) ([]types.QueueEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, reference_id, queued_at, processed, retries
		FROM sync_queue
		WHERE kind = ? AND processed = 0
		ORDER BY queued_at ASC
		LIMIT ?
	`, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed entries: %w", err)
	}
	defer rows.Close()

	var entries []types.QueueEntry
	for rows.Next() {
		var entry types.QueueEntry
		var entryKind, queuedAt string
		if err := rows.Scan(&entry.ID, &entryKind, &entry.ReferenceID, &queuedAt, &entry.Processed, &entry.Retries); err != nil {
			return nil, fmt.Errorf("scan queue entry: %w", err)
		}
		entry.Kind = types.QueueKind(entryKind)
		if t, err := time.Parse(queueTimeLayout, queuedAt); err == nil {
			entry.QueuedAt = t
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// DeleteQueueEntries retires queue entries by deletion. Deletes are
// idempotent: ids that no longer exist are silently skipped, so overlapping
// sync cycles cannot corrupt queue state.
func (s *SQLiteStore) DeleteQueueEntries(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM sync_queue WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return fmt.Errorf("delete queue entries: %w", err)
	}
	return nil
}

// QueueDepth returns the number of unprocessed entries for the kind.
func (s *SQLiteStore) QueueDepth(ctx context.Context, kind types.QueueKind) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sync_queue WHERE kind = ? AND processed = 0
	`, string(kind)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("query queue depth: %w", err)
	}
	return count, nil
}
