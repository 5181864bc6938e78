package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/pkg/types"
)

// GetActiveContext returns the current active context. A database that has
// never been written returns version 0 with an empty value so that the very
// first conditional write can target version 0.
func (s *Store) GetActiveContext(ctx context.Context) (*types.ActiveContext, error) {
	var ac types.ActiveContext

	err := s.db.QueryRowContext(ctx, `
		SELECT value, version, updated_at FROM active_context WHERE id = 1
	`).Scan(&ac.Value, &ac.Version, &ac.UpdatedAt)
	if err == sql.ErrNoRows {
		return &types.ActiveContext{Value: "", Version: 0}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get active context: %w", err)
	}
	return &ac, nil
}

// CompareAndSwapContext applies the conditional write at the heart of the
// optimistic-concurrency protocol: the update only lands when the stored
// version still equals the version the caller observed. A false return with
// no error means a concurrent writer won the race and the caller should
// re-read and retry.
//
// The first write ever (expectedVersion 0 against a missing row) inserts the
// singleton row at version 1. INSERT ... ON CONFLICT keeps that path atomic
// under the same predicate.
func (s *Store) CompareAndSwapContext(ctx context.Context, value string, expectedVersion int64) (bool, error) {
	if err := storage.CheckText("context value", value, storage.MaxTextChars); err != nil {
		return false, err
	}

	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO active_context (id, value, version, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			value = excluded.value,
			version = excluded.version,
			updated_at = excluded.updated_at
		WHERE active_context.version = ?
	`, value, expectedVersion+1, now, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("failed to write active context: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	// Zero rows affected means the version predicate did not hold: either a
	// concurrent writer already advanced past expectedVersion, or the fresh
	// insert raced another first write.
	return n == 1, nil
}
