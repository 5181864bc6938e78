package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/pkg/types"
)

func TestSessionLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	session, err := store.StartSession(ctx, "implement session tracking", start)
	if err != nil {
		t.Fatalf("StartSession() failed: %v", err)
	}
	if session.ID == "" {
		t.Error("session ID should be generated")
	}
	if session.JournalID != "journal:2026-03-10" {
		t.Errorf("journal ID = %q, want journal:2026-03-10", session.JournalID)
	}
	if session.EndTime != nil {
		t.Error("new session should be open")
	}

	// A second start while one is open is rejected.
	_, err = store.StartSession(ctx, "another task", start.Add(time.Minute))
	if !errors.Is(err, storage.ErrSessionActive) {
		t.Errorf("second StartSession() error = %v, want ErrSessionActive", err)
	}

	active, err := store.ActiveSession(ctx)
	if err != nil {
		t.Fatalf("ActiveSession() failed: %v", err)
	}
	if active.ID != session.ID {
		t.Errorf("active session ID = %q, want %q", active.ID, session.ID)
	}

	end := start.Add(2 * time.Hour)
	closed, err := store.EndActiveSession(ctx, end,
		[]string{"partial indexes enforce invariants cheaply"},
		[]string{"clock skew between writers"},
		"wrapped up before standup")
	if err != nil {
		t.Fatalf("EndActiveSession() failed: %v", err)
	}
	if closed.ID != session.ID {
		t.Errorf("closed session ID = %q, want %q", closed.ID, session.ID)
	}
	if closed.EndTime == nil || !closed.EndTime.Equal(end) {
		t.Errorf("end time = %v, want %v", closed.EndTime, end)
	}
	if closed.Duration() != 2*time.Hour {
		t.Errorf("duration = %v, want 2h", closed.Duration())
	}

	// Ending again with nothing open fails.
	_, err = store.EndActiveSession(ctx, end.Add(time.Minute), nil, nil, "")
	if !errors.Is(err, storage.ErrNoActiveSession) {
		t.Errorf("double EndActiveSession() error = %v, want ErrNoActiveSession", err)
	}

	_, err = store.ActiveSession(ctx)
	if !errors.Is(err, storage.ErrNoActiveSession) {
		t.Errorf("ActiveSession() after close error = %v, want ErrNoActiveSession", err)
	}

	// The closed session round-trips with its lists and note.
	got, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession() failed: %v", err)
	}
	if len(got.Learnings) != 1 || got.Learnings[0] != "partial indexes enforce invariants cheaply" {
		t.Errorf("learnings = %v", got.Learnings)
	}
	if len(got.Challenges) != 1 {
		t.Errorf("challenges = %v", got.Challenges)
	}
	if got.Note != "wrapped up before standup" {
		t.Errorf("note = %q", got.Note)
	}

	// Starting the next session on the same day reuses the journal row.
	next, err := store.StartSession(ctx, "follow-up work", end.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("StartSession() after close failed: %v", err)
	}
	if next.JournalID != session.JournalID {
		t.Errorf("second session journal = %q, want %q", next.JournalID, session.JournalID)
	}
}

func TestStartSessionValidation(t *testing.T) {
	store := newTestStore(t)

	_, err := store.StartSession(context.Background(), "", time.Now())
	if !errors.Is(err, storage.ErrValidation) {
		t.Errorf("empty description error = %v, want ErrValidation", err)
	}
}

func TestSessionsForDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sessions, err := store.SessionsForDate(ctx, "2026-03-09")
	if err != nil {
		t.Fatalf("SessionsForDate() failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("date without journal returned %d sessions", len(sessions))
	}

	_, err = store.SessionsForDate(ctx, "not-a-date")
	if !errors.Is(err, storage.ErrValidation) {
		t.Errorf("bad date error = %v, want ErrValidation", err)
	}

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	first, err := store.StartSession(ctx, "morning work", start)
	if err != nil {
		t.Fatalf("StartSession() failed: %v", err)
	}
	if _, err := store.EndActiveSession(ctx, start.Add(time.Hour), nil, nil, ""); err != nil {
		t.Fatalf("EndActiveSession() failed: %v", err)
	}
	second, err := store.StartSession(ctx, "afternoon work", start.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("StartSession() failed: %v", err)
	}

	sessions, err = store.SessionsForDate(ctx, "2026-03-10")
	if err != nil {
		t.Fatalf("SessionsForDate() failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != first.ID || sessions[1].ID != second.ID {
		t.Error("sessions not ordered by start time")
	}
}

func TestForceCloseStale(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session, err := store.StartSession(ctx, "left running overnight", start)
	if err != nil {
		t.Fatalf("StartSession() failed: %v", err)
	}

	// A cutoff before the session start closes nothing.
	n, err := store.ForceCloseStale(ctx, start.Add(-time.Hour), start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ForceCloseStale() failed: %v", err)
	}
	if n != 0 {
		t.Errorf("closed %d sessions with early cutoff, want 0", n)
	}

	end := start.Add(24 * time.Hour)
	n, err = store.ForceCloseStale(ctx, start.Add(12*time.Hour), end)
	if err != nil {
		t.Fatalf("ForceCloseStale() failed: %v", err)
	}
	if n != 1 {
		t.Fatalf("closed %d sessions, want 1", n)
	}

	got, err := store.GetSession(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetSession() failed: %v", err)
	}
	if got.EndTime == nil {
		t.Fatal("stale session should be closed")
	}
	if got.Note != "force-closed as stale" {
		t.Errorf("note = %q, want force-closed marker", got.Note)
	}

	_, err = store.ActiveSession(ctx)
	if !errors.Is(err, storage.ErrNoActiveSession) {
		t.Errorf("ActiveSession() after force-close error = %v, want ErrNoActiveSession", err)
	}
}

func TestReflectionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	session, err := store.StartSession(ctx, "reflection target", start)
	if err != nil {
		t.Fatalf("StartSession() failed: %v", err)
	}
	if _, err := store.EndActiveSession(ctx, start.Add(time.Hour), nil, nil, ""); err != nil {
		t.Fatalf("EndActiveSession() failed: %v", err)
	}

	_, err = store.GetReflection(ctx, session.ID)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetReflection() before attach error = %v, want ErrNotFound", err)
	}

	reflection := &types.SessionReflection{
		SessionID: session.ID,
		Content:   "A focused hour spent on reflection plumbing.",
	}
	if err := store.AttachReflection(ctx, reflection); err != nil {
		t.Fatalf("AttachReflection() failed: %v", err)
	}

	got, err := store.GetReflection(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetReflection() failed: %v", err)
	}
	if got.Content != reflection.Content {
		t.Errorf("content = %q, want %q", got.Content, reflection.Content)
	}
	if got.CreatedAt.IsZero() {
		t.Error("created_at should be populated")
	}

	// Re-attaching replaces the previous text.
	reflection.Content = "Revised reflection after a second pass."
	if err := store.AttachReflection(ctx, reflection); err != nil {
		t.Fatalf("AttachReflection() upsert failed: %v", err)
	}
	got, err = store.GetReflection(ctx, session.ID)
	if err != nil {
		t.Fatalf("GetReflection() failed: %v", err)
	}
	if got.Content != "Revised reflection after a second pass." {
		t.Errorf("content after upsert = %q", got.Content)
	}

	reflections, err := store.ReflectionsForDate(ctx, "2026-03-10")
	if err != nil {
		t.Fatalf("ReflectionsForDate() failed: %v", err)
	}
	if len(reflections) != 1 || reflections[0].SessionID != session.ID {
		t.Errorf("reflections = %+v", reflections)
	}
}
