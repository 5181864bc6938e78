// Package storage provides the composable storage interfaces for devlog.
//
// The relational store is the single source of truth; the vector index is a
// rebuildable cache. Interfaces are small and focused so backends can be
// implemented and composed independently.
package storage

import "errors"

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation indicates that input failed a size or shape check.
	// No write happens once validation fails.
	ErrValidation = errors.New("validation error")

	// ErrInvalidTransition indicates an illegal task status change,
	// e.g. done -> in_progress.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrConcurrencyConflict indicates that optimistic-lock retries were
	// exhausted on the active context row. The caller's update was not
	// applied and may be retried.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrSessionActive indicates a work session is already open; the
	// single-open-session invariant forbids starting another.
	ErrSessionActive = errors.New("a work session is already active")

	// ErrNoActiveSession indicates there is no open work session to end.
	ErrNoActiveSession = errors.New("no active work session")
)

// Stable error kind strings surfaced in the operation envelope. Callers are
// expected to branch on these, never on message text.
const (
	KindValidation          = "validation_error"
	KindInvalidTransition   = "invalid_transition"
	KindConcurrencyConflict = "concurrency_conflict"
	KindSessionActive       = "session_already_active"
	KindNoActiveSession     = "no_active_session"
	KindNotFound            = "not_found"
	KindInternal            = "internal_error"
)

// KindOf maps an error to its stable envelope kind. Unknown errors map to
// KindInternal.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInvalidTransition):
		return KindInvalidTransition
	case errors.Is(err, ErrConcurrencyConflict):
		return KindConcurrencyConflict
	case errors.Is(err, ErrSessionActive):
		return KindSessionActive
	case errors.Is(err, ErrNoActiveSession):
		return KindNoActiveSession
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}
