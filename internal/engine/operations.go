package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/pkg/types"
)

// SetProjectBrief creates or overwrites the project brief and schedules its
// index entry.
func (e *Engine) SetProjectBrief(ctx context.Context, name, description string, goals []string) (*types.ProjectBrief, error) {
	brief := &types.ProjectBrief{
		Name:        name,
		Description: description,
		Goals:       goals,
		UpdatedAt:   e.now(),
	}
	if err := e.store.SetProjectBrief(ctx, brief); err != nil {
		return nil, err
	}

	text := description
	if len(goals) > 0 {
		text += "\n" + strings.Join(goals, "\n")
	}
	e.scheduleIndex(types.EntityTypeBrief, types.BriefEntityID, name, text)
	return brief, nil
}

// GetProjectBrief returns the project brief.
func (e *Engine) GetProjectBrief(ctx context.Context) (*types.ProjectBrief, error) {
	return e.store.GetProjectBrief(ctx)
}

// SetTechStack creates or overwrites the technology list. The tech stack is
// structured metadata, not prose, so it is not indexed for semantic search.
func (e *Engine) SetTechStack(ctx context.Context, technologies []string) (*types.TechStack, error) {
	stack := &types.TechStack{
		Technologies: technologies,
		UpdatedAt:    e.now(),
	}
	if err := e.store.SetTechStack(ctx, stack); err != nil {
		return nil, err
	}
	return stack, nil
}

// GetTechStack returns the technology list.
func (e *Engine) GetTechStack(ctx context.Context) (*types.TechStack, error) {
	return e.store.GetTechStack(ctx)
}

// UpdateActiveContext replaces the working context using an optimistic
// read-modify-write loop. Lost races are retried up to ContextRetries
// attempts, then surface as ErrConcurrencyConflict.
func (e *Engine) UpdateActiveContext(ctx context.Context, value string) (*types.ActiveContext, error) {
	if err := storage.CheckText("context value", value, storage.MaxTextChars); err != nil {
		return nil, err
	}

	for attempt := 0; attempt < e.config.ContextRetries; attempt++ {
		current, err := e.store.GetActiveContext(ctx)
		if err != nil {
			return nil, err
		}

		ok, err := e.store.CompareAndSwapContext(ctx, value, current.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			return &types.ActiveContext{
				Value:     value,
				Version:   current.Version + 1,
				UpdatedAt: e.now(),
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: active context changed %d times during update", storage.ErrConcurrencyConflict, e.config.ContextRetries)
}

// GetActiveContext returns the current working context. A never-written
// store yields version 0 with an empty value.
func (e *Engine) GetActiveContext(ctx context.Context) (*types.ActiveContext, error) {
	return e.store.GetActiveContext(ctx)
}

// LogDecision appends to the immutable decision log and schedules indexing.
func (e *Engine) LogDecision(ctx context.Context, title, rationale string) (*types.Decision, error) {
	d := &types.Decision{
		ID:        "dec:" + uuid.NewString(),
		Title:     title,
		Rationale: rationale,
		CreatedAt: e.now(),
	}
	if err := e.store.LogDecision(ctx, d); err != nil {
		return nil, err
	}

	e.scheduleIndex(types.EntityTypeDecision, d.ID, d.Title, d.Rationale)
	return d, nil
}

// ListDecisions returns decisions newest-first.
func (e *Engine) ListDecisions(ctx context.Context, limit int) ([]types.Decision, error) {
	return e.store.ListDecisions(ctx, limit)
}

// CreateTask stores a new pending task and schedules indexing.
func (e *Engine) CreateTask(ctx context.Context, title, description string) (*types.Task, error) {
	now := e.now()
	t := &types.Task{
		ID:          "task:" + uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      types.TaskPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}

	e.scheduleIndex(types.EntityTypeTask, t.ID, t.Title, t.Description)
	return t, nil
}

// UpdateTaskStatus applies a status transition and returns the updated task.
func (e *Engine) UpdateTaskStatus(ctx context.Context, id string, status types.TaskStatus) (*types.Task, error) {
	if err := e.store.UpdateTaskStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return e.store.GetTask(ctx, id)
}

// ListTasks returns tasks newest-first, optionally filtered by status.
func (e *Engine) ListTasks(ctx context.Context, status types.TaskStatus, limit int) ([]types.Task, error) {
	return e.store.ListTasks(ctx, status, limit)
}

// SaveMemory stores a free-form note and schedules indexing.
func (e *Engine) SaveMemory(ctx context.Context, content string) (*types.MemoryEntry, error) {
	n := &types.MemoryEntry{
		ID:        "note:" + uuid.NewString(),
		Content:   content,
		CreatedAt: e.now(),
	}
	if err := e.store.SaveNote(ctx, n); err != nil {
		return nil, err
	}

	e.scheduleIndex(types.EntityTypeNote, n.ID, "", n.Content)
	return n, nil
}
