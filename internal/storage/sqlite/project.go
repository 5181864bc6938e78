package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/pkg/types"
)

// SetProjectBrief creates or overwrites the singleton project brief.
func (s *Store) SetProjectBrief(ctx context.Context, brief *types.ProjectBrief) error {
	if brief == nil {
		return fmt.Errorf("%w: project brief is required", storage.ErrValidation)
	}
	if err := storage.CheckRequired("name", brief.Name, storage.MaxTitleChars); err != nil {
		return err
	}
	if err := storage.CheckText("description", brief.Description, storage.MaxTextChars); err != nil {
		return err
	}
	if err := storage.CheckList("goals", brief.Goals); err != nil {
		return err
	}

	goalsJSON, err := marshalList(brief.Goals)
	if err != nil {
		return fmt.Errorf("failed to marshal goals: %w", err)
	}

	if brief.UpdatedAt.IsZero() {
		brief.UpdatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO project_brief (id, name, description, goals, updated_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			goals = excluded.goals,
			updated_at = excluded.updated_at
	`, brief.Name, brief.Description, nullableString(string(goalsJSON)), brief.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to store project brief: %w", err)
	}
	return nil
}

// GetProjectBrief returns the project brief, or storage.ErrNotFound when no
// brief has been written yet.
func (s *Store) GetProjectBrief(ctx context.Context) (*types.ProjectBrief, error) {
	var brief types.ProjectBrief
	var goalsJSON sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT name, description, goals, updated_at FROM project_brief WHERE id = 1
	`).Scan(&brief.Name, &brief.Description, &goalsJSON, &brief.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project brief: %w", err)
	}

	if brief.Goals, err = unmarshalList(goalsJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal goals: %w", err)
	}
	return &brief, nil
}

// SetTechStack creates or overwrites the singleton tech stack.
func (s *Store) SetTechStack(ctx context.Context, stack *types.TechStack) error {
	if stack == nil {
		return fmt.Errorf("%w: tech stack is required", storage.ErrValidation)
	}
	if len(stack.Technologies) == 0 {
		return fmt.Errorf("%w: technologies list is required", storage.ErrValidation)
	}
	if err := storage.CheckList("technologies", stack.Technologies); err != nil {
		return err
	}

	techJSON, err := marshalList(stack.Technologies)
	if err != nil {
		return fmt.Errorf("failed to marshal technologies: %w", err)
	}

	if stack.UpdatedAt.IsZero() {
		stack.UpdatedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tech_stack (id, technologies, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			technologies = excluded.technologies,
			updated_at = excluded.updated_at
	`, string(techJSON), stack.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to store tech stack: %w", err)
	}
	return nil
}

// GetTechStack returns the tech stack, or storage.ErrNotFound.
func (s *Store) GetTechStack(ctx context.Context) (*types.TechStack, error) {
	var stack types.TechStack
	var techJSON sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT technologies, updated_at FROM tech_stack WHERE id = 1
	`).Scan(&techJSON, &stack.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tech stack: %w", err)
	}

	if stack.Technologies, err = unmarshalList(techJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal technologies: %w", err)
	}
	return &stack, nil
}

// marshalList serialises a string list to JSON, mapping empty lists to nil.
func marshalList(items []string) ([]byte, error) {
	if len(items) == 0 {
		return nil, nil
	}
	return json.Marshal(items)
}

// unmarshalList decodes a nullable JSON list column.
func unmarshalList(col sql.NullString) ([]string, error) {
	if !col.Valid || col.String == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(col.String), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// nullableString maps empty strings to SQL NULL.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
