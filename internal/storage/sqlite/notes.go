package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/pkg/types"
)

// SaveNote stores a free-form memory entry.
func (s *Store) SaveNote(ctx context.Context, n *types.MemoryEntry) error {
	if n == nil || n.ID == "" {
		return fmt.Errorf("%w: note ID is required", storage.ErrValidation)
	}
	if err := storage.CheckRequired("content", n.Content, storage.MaxNoteChars); err != nil {
		return err
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, content, created_at) VALUES (?, ?, ?)
	`, n.ID, n.Content, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save note: %w", err)
	}
	return nil
}

// GetNote retrieves a memory entry by ID.
func (s *Store) GetNote(ctx context.Context, id string) (*types.MemoryEntry, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: note ID is required", storage.ErrValidation)
	}

	var entry types.MemoryEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, content, created_at FROM notes WHERE id = ?
	`, id).Scan(&entry.ID, &entry.Content, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return &entry, nil
}
