package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/pkg/types"
)

// LogDecision appends a decision to the log. Decisions are immutable: there
// is deliberately no update or delete path.
func (s *Store) LogDecision(ctx context.Context, d *types.Decision) error {
	if d == nil {
		return fmt.Errorf("%w: decision is required", storage.ErrValidation)
	}
	if d.ID == "" {
		return fmt.Errorf("%w: decision ID is required", storage.ErrValidation)
	}
	if err := storage.CheckRequired("title", d.Title, storage.MaxTitleChars); err != nil {
		return err
	}
	if err := storage.CheckRequired("rationale", d.Rationale, storage.MaxTextChars); err != nil {
		return err
	}

	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO decisions (id, title, rationale, created_at)
		VALUES (?, ?, ?, ?)
	`, d.ID, d.Title, d.Rationale, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to log decision: %w", err)
	}
	return nil
}

// GetDecision retrieves a decision by ID.
func (s *Store) GetDecision(ctx context.Context, id string) (*types.Decision, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: decision ID is required", storage.ErrValidation)
	}

	var d types.Decision
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, rationale, created_at FROM decisions WHERE id = ?
	`, id).Scan(&d.ID, &d.Title, &d.Rationale, &d.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get decision: %w", err)
	}
	return &d, nil
}

// ListDecisions returns decisions newest-first, capped at limit.
func (s *Store) ListDecisions(ctx context.Context, limit int) ([]types.Decision, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, rationale, created_at
		FROM decisions
		ORDER BY created_at DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var decisions []types.Decision
	for rows.Next() {
		var d types.Decision
		if err := rows.Scan(&d.ID, &d.Title, &d.Rationale, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}
		decisions = append(decisions, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return decisions, nil
}
