package storage

import (
	"context"
	"time"

	"github.com/devlog-ai/devlog/pkg/types"
)

// ProjectStore persists the singleton project metadata rows.
type ProjectStore interface {
	// SetProjectBrief creates or overwrites the project brief.
	SetProjectBrief(ctx context.Context, brief *types.ProjectBrief) error

	// GetProjectBrief returns the project brief, or ErrNotFound when no
	// brief has been written yet.
	GetProjectBrief(ctx context.Context) (*types.ProjectBrief, error)

	// SetTechStack creates or overwrites the tech stack.
	SetTechStack(ctx context.Context, stack *types.TechStack) error

	// GetTechStack returns the tech stack, or ErrNotFound.
	GetTechStack(ctx context.Context) (*types.TechStack, error)
}

// ContextStore provides versioned access to the ActiveContext singleton.
// The read-modify-write retry loop lives in the engine; the store only
// exposes the conditional write primitive.
type ContextStore interface {
	// GetActiveContext returns the current context. A store that has never
	// been written returns version 0 with an empty value, not ErrNotFound.
	GetActiveContext(ctx context.Context) (*types.ActiveContext, error)

	// CompareAndSwapContext writes value with version expectedVersion+1 if
	// and only if the stored version still equals expectedVersion. It
	// reports false (and no error) when a concurrent writer won the race.
	CompareAndSwapContext(ctx context.Context, value string, expectedVersion int64) (bool, error)
}

// DecisionStore persists the append-only decision log.
type DecisionStore interface {
	// LogDecision appends a decision. Decisions are immutable once written.
	LogDecision(ctx context.Context, d *types.Decision) error

	// GetDecision retrieves a decision by ID. Returns ErrNotFound if absent.
	GetDecision(ctx context.Context, id string) (*types.Decision, error)

	// ListDecisions returns decisions newest-first, capped at limit.
	ListDecisions(ctx context.Context, limit int) ([]types.Decision, error)
}

// TaskStore persists tasks and enforces the status state machine.
type TaskStore interface {
	// CreateTask stores a new task. Status defaults to pending.
	CreateTask(ctx context.Context, t *types.Task) error

	// GetTask retrieves a task by ID. Returns ErrNotFound if absent.
	GetTask(ctx context.Context, id string) (*types.Task, error)

	// UpdateTaskStatus validates the transition against the task state
	// machine and applies it. Returns ErrInvalidTransition for illegal
	// transitions and ErrNotFound for unknown tasks.
	UpdateTaskStatus(ctx context.Context, id string, status types.TaskStatus) error

	// ListTasks returns tasks newest-first, optionally filtered by status
	// (empty status means all), capped at limit.
	ListTasks(ctx context.Context, status types.TaskStatus, limit int) ([]types.Task, error)
}

// JournalStore persists daily journals, work sessions, and reflections.
// Session lifecycle invariants (single open session) are enforced inside the
// same transaction as the mutation, never by an external lock.
type JournalStore interface {
	// StartSession lazily creates the journal for now's date and opens a new
	// session. Returns ErrSessionActive if any session is currently open.
	StartSession(ctx context.Context, taskDescription string, now time.Time) (*types.WorkSession, error)

	// EndActiveSession closes the open session, recording outcome lists and
	// the end time. Returns ErrNoActiveSession when nothing is open.
	EndActiveSession(ctx context.Context, end time.Time, learnings, challenges []string, note string) (*types.WorkSession, error)

	// ActiveSession returns the currently open session, or ErrNoActiveSession.
	ActiveSession(ctx context.Context) (*types.WorkSession, error)

	// GetSession retrieves a session by ID. Returns ErrNotFound if absent.
	GetSession(ctx context.Context, id string) (*types.WorkSession, error)

	// SessionsForDate returns all sessions of a journal date ("2006-01-02"),
	// oldest-first. Missing journal yields an empty slice, not an error.
	SessionsForDate(ctx context.Context, date string) ([]types.WorkSession, error)

	// ForceCloseStale closes open sessions that started before the cutoff,
	// stamping them with end. Returns the number of sessions closed. This is
	// a maintenance operation and must only run when explicitly invoked.
	ForceCloseStale(ctx context.Context, cutoff, end time.Time) (int, error)

	// AttachReflection stores the generated reflection for a session
	// (upsert; re-generation replaces the previous text).
	AttachReflection(ctx context.Context, r *types.SessionReflection) error

	// GetReflection returns the reflection for a session, or ErrNotFound.
	GetReflection(ctx context.Context, sessionID string) (*types.SessionReflection, error)

	// ReflectionsForDate returns reflections for all sessions of a date.
	ReflectionsForDate(ctx context.Context, date string) ([]types.SessionReflection, error)
}

// NoteStore persists free-form memory entries.
type NoteStore interface {
	// SaveNote stores a new note.
	SaveNote(ctx context.Context, n *types.MemoryEntry) error

	// GetNote retrieves a note by ID. Returns ErrNotFound if absent.
	GetNote(ctx context.Context, id string) (*types.MemoryEntry, error)
}

// DocumentStore projects searchable entities into flat text documents. It
// backs the keyword search path, resolves vector hits to authoritative rows,
// and feeds full index rebuilds.
type DocumentStore interface {
	// GetDocument returns the text projection of one entity. A vector record
	// whose source entity no longer exists maps to ErrNotFound and is
	// silently dropped by the search engine.
	GetDocument(ctx context.Context, entityType, entityID string) (*types.SearchDocument, error)

	// KeywordSearch performs case-insensitive substring matching across all
	// searchable entities, honouring the filter.
	KeywordSearch(ctx context.Context, filter SearchFilter) ([]types.SearchDocument, error)

	// ListDocuments returns every searchable document. Used by the index
	// rebuild procedure.
	ListDocuments(ctx context.Context) ([]types.SearchDocument, error)
}

// Store is the full relational contract implemented by the SQLite backend.
type Store interface {
	ProjectStore
	ContextStore
	DecisionStore
	TaskStore
	JournalStore
	NoteStore
	DocumentStore

	// Close releases any resources held by the store.
	Close() error
}

// VectorMatch is one similarity hit from the vector index.
type VectorMatch struct {
	EntityID   string
	EntityType string
	Score      float64
}

// VectorIndex is the derived, rebuildable semantic index. Losing it loses
// search recall, never data.
type VectorIndex interface {
	// Upsert replaces the record for (EntityType, EntityID). Re-running an
	// upsert with identical text is a no-op in effect.
	Upsert(ctx context.Context, rec *types.VectorRecord) error

	// Delete removes a record. Absence of the target is not an error.
	Delete(ctx context.Context, entityType, entityID string) error

	// Search returns up to limit records ranked by similarity to the query
	// embedding, best first.
	Search(ctx context.Context, embedding []float64, limit int) ([]VectorMatch, error)

	// Close releases any resources held by the index.
	Close() error
}

// SearchFilter narrows keyword and merged search results.
type SearchFilter struct {
	// Query is the free-text query. Matching is case-insensitive substring.
	Query string

	// EntityTypes restricts results to the given types. Empty means all.
	EntityTypes []string

	// From and To bound entity creation time. Zero values are unbounded.
	From time.Time
	To   time.Time

	// Limit caps the number of results (default 10, max 100).
	Limit int
}

// Normalize applies defaults and caps to the filter.
func (f *SearchFilter) Normalize() {
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

// WantsType reports whether the filter admits the given entity type.
func (f *SearchFilter) WantsType(entityType string) bool {
	if len(f.EntityTypes) == 0 {
		return true
	}
	for _, t := range f.EntityTypes {
		if t == entityType {
			return true
		}
	}
	return false
}

// InRange reports whether a creation time falls inside the filter's window.
func (f *SearchFilter) InRange(createdAt time.Time) bool {
	if !f.From.IsZero() && createdAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && createdAt.After(f.To) {
		return false
	}
	return true
}
