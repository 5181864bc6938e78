// Package types defines the core data structures for the devlog memory system:
// project metadata, decisions, tasks, the active working context, and the
// daily work journal with its timed sessions and reflections.
package types

import "time"

// ProjectBrief is the singleton project description. It is created on first
// write and overwritten thereafter; there is no version tracking because the
// row sees almost no concurrent mutation.
type ProjectBrief struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Goals       []string  `json:"goals,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TechStack is the singleton list of technologies used by the project.
// Same lifecycle as ProjectBrief.
type TechStack struct {
	Technologies []string  `json:"technologies"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ActiveContext is the singleton "what am I working on right now" row.
// It is the only high-contention entity in the system: any client may
// overwrite it at any time. Version starts at 0 and every successful update
// increments it by exactly 1; writers must observe the version they replace.
type ActiveContext struct {
	Value     string    `json:"value"`
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Decision is an append-only architectural decision log entry. Decisions are
// immutable once created; they are never updated or deleted.
type Decision struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Rationale string    `json:"rationale"`
	CreatedAt time.Time `json:"created_at"`
}

// Task is a tracked work item. Status moves through the state machine defined
// in task_state.go and is mutated only via the explicit status-update
// operation.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DailyJournal groups the work sessions of one calendar date. It is created
// lazily when the first session of a day starts. Date is stored as
// "2006-01-02" and is the journal's unique key.
type DailyJournal struct {
	ID        string    `json:"id"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

// WorkSession is a timed unit of work inside a DailyJournal. EndTime == nil
// means the session is open. At most one open session exists system-wide at
// any time; the store enforces this inside the session-creation transaction.
type WorkSession struct {
	ID              string     `json:"id"`
	JournalID       string     `json:"journal_id"`
	TaskDescription string     `json:"task_description"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         *time.Time `json:"end_time,omitempty"`
	Learnings       []string   `json:"learnings,omitempty"`
	Challenges      []string   `json:"challenges,omitempty"`
	Note            string     `json:"note,omitempty"`
}

// Duration returns the session length, or zero while the session is open.
func (s *WorkSession) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// Open reports whether the session has not been ended yet.
func (s *WorkSession) Open() bool {
	return s.EndTime == nil
}

// SessionReflection is AI-generated text tied 1:1 to a closed WorkSession.
// Generation is best-effort: a session without a reflection is valid.
type SessionReflection struct {
	SessionID string    `json:"session_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryEntry is a free-form note kept purely as additional searchable text.
type MemoryEntry struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// DaySummary aggregates one journal day for the how_was_my_day operation.
// It is a pure read-and-compose projection with no side effects.
type DaySummary struct {
	Date          string              `json:"date"`
	SessionCount  int                 `json:"session_count"`
	TotalDuration time.Duration       `json:"total_duration"`
	Sessions      []WorkSession       `json:"sessions,omitempty"`
	Reflections   []SessionReflection `json:"reflections,omitempty"`
	Learnings     []string            `json:"learnings,omitempty"`
	Challenges    []string            `json:"challenges,omitempty"`
}
