package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/pkg/types"
)

// CreateTask stores a new task. An empty status defaults to pending.
func (s *Store) CreateTask(ctx context.Context, t *types.Task) error {
	if t == nil {
		return fmt.Errorf("%w: task is required", storage.ErrValidation)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: task ID is required", storage.ErrValidation)
	}
	if err := storage.CheckRequired("title", t.Title, storage.MaxTitleChars); err != nil {
		return err
	}
	if err := storage.CheckText("description", t.Description, storage.MaxTextChars); err != nil {
		return err
	}

	if t.Status == "" {
		t.Status = types.TaskPending
	}
	if !types.IsValidTaskStatus(t.Status) {
		return fmt.Errorf("%w: unknown task status %q", storage.ErrValidation, t.Status)
	}

	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, t.ID, t.Title, nullableString(t.Description), string(t.Status), t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID.
func (s *Store) GetTask(ctx context.Context, id string) (*types.Task, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: task ID is required", storage.ErrValidation)
	}

	var t types.Task
	var description sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, status, created_at, updated_at
		FROM tasks WHERE id = ?
	`, id).Scan(&t.ID, &t.Title, &description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if description.Valid {
		t.Description = description.String
	}
	return &t, nil
}

// UpdateTaskStatus validates the requested transition against the task state
// machine and applies it. The current status is read and the transition
// applied inside one transaction so concurrent updates cannot interleave
// between check and write.
func (s *Store) UpdateTaskStatus(ctx context.Context, id string, status types.TaskStatus) error {
	if id == "" {
		return fmt.Errorf("%w: task ID is required", storage.ErrValidation)
	}
	if !types.IsValidTaskStatus(status) {
		return fmt.Errorf("%w: unknown task status %q", storage.ErrValidation, status)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current types.TaskStatus
	err = tx.QueryRowContext(ctx, `SELECT status FROM tasks WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read task status: %w", err)
	}

	if !types.CanTransition(current, status) {
		return fmt.Errorf("%w: %s -> %s", storage.ErrInvalidTransition, current, status)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update task status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit status update: %w", err)
	}
	return nil
}

// ListTasks returns tasks newest-first, optionally filtered by status.
func (s *Store) ListTasks(ctx context.Context, status types.TaskStatus, limit int) ([]types.Task, error) {
	if status != "" && !types.IsValidTaskStatus(status) {
		return nil, fmt.Errorf("%w: unknown task status %q", storage.ErrValidation, status)
	}
	if limit < 1 {
		limit = 50
	}

	query := `
		SELECT id, title, description, status, created_at, updated_at
		FROM tasks
	`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []types.Task
	for rows.Next() {
		var t types.Task
		var description sql.NullString
		if err := rows.Scan(&t.ID, &t.Title, &description, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		if description.Valid {
			t.Description = description.String
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return tasks, nil
}
