package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/devlog-ai/devlog/pkg/types"
)

// StartWorkingOn opens a work session for the given task description. The
// journal row for today is created lazily. A second open session is rejected
// by the store with ErrSessionActive.
func (e *Engine) StartWorkingOn(ctx context.Context, taskDescription string) (*types.WorkSession, error) {
	return e.store.StartSession(ctx, taskDescription, e.now())
}

// EndWorkSession closes the open session. Sessions at least
// MinReflectionDuration long get a reflection generated in the background;
// shorter ones are recorded without one. The boolean reports whether a
// reflection was scheduled.
func (e *Engine) EndWorkSession(ctx context.Context, learnings, challenges []string, note string) (*types.WorkSession, bool, error) {
	session, err := e.store.EndActiveSession(ctx, e.now(), learnings, challenges, note)
	if err != nil {
		return nil, false, err
	}

	queued := e.txtGen != nil && session.Duration() >= e.config.MinReflectionDuration
	if queued {
		e.enqueue(job{kind: jobReflection, sessionID: session.ID, entityID: session.ID})
	}
	return session, queued, nil
}

// ActiveSession returns the currently open session.
func (e *Engine) ActiveSession(ctx context.Context) (*types.WorkSession, error) {
	return e.store.ActiveSession(ctx)
}

// HowWasMyDay aggregates the sessions and reflections of one journal date
// into a day summary. A date with no journal yields an empty summary.
func (e *Engine) HowWasMyDay(ctx context.Context, date string) (*types.DaySummary, error) {
	if date == "" {
		date = e.now().Format("2006-01-02")
	}

	sessions, err := e.store.SessionsForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	reflections, err := e.store.ReflectionsForDate(ctx, date)
	if err != nil {
		return nil, err
	}

	summary := &types.DaySummary{
		Date:        date,
		Sessions:    sessions,
		Reflections: reflections,
	}
	for _, s := range sessions {
		summary.SessionCount++
		if s.EndTime != nil {
			summary.TotalDuration += s.Duration()
		}
		summary.Learnings = append(summary.Learnings, s.Learnings...)
		summary.Challenges = append(summary.Challenges, s.Challenges...)
	}
	return summary, nil
}

// ForceCloseStaleSessions closes open sessions older than maxAge. A zero
// maxAge uses the configured StaleSessionAge. This only runs when explicitly
// invoked; no background sweep exists.
func (e *Engine) ForceCloseStaleSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		maxAge = e.config.StaleSessionAge
	}

	now := e.now()
	closed, err := e.store.ForceCloseStale(ctx, now.Add(-maxAge), now)
	if err != nil {
		return 0, err
	}
	if closed > 0 {
		log.Printf("force-closed %d stale sessions older than %v", closed, maxAge)
	}
	return closed, nil
}

// generateReflection produces a short retrospective for a closed session and
// attaches it. Failures are logged and dropped: reflections are derived
// content and the session record stands on its own.
func (e *Engine) generateReflection(ctx context.Context, workerID int, sessionID string) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		log.Printf("WARNING: worker %d cannot load session %s for reflection: %v", workerID, sessionID, err)
		return
	}
	if session.EndTime == nil {
		log.Printf("WARNING: worker %d skipping reflection for still-open session %s", workerID, sessionID)
		return
	}

	content, err := e.txtGen.Complete(ctx, reflectionPrompt(session))
	if err != nil {
		log.Printf("WARNING: worker %d reflection generation failed for session %s: %v", workerID, sessionID, err)
		return
	}
	content = strings.TrimSpace(content)
	if content == "" {
		log.Printf("WARNING: worker %d got empty reflection for session %s", workerID, sessionID)
		return
	}

	reflection := &types.SessionReflection{
		SessionID: session.ID,
		Content:   content,
		CreatedAt: e.now(),
	}
	if err := e.store.AttachReflection(ctx, reflection); err != nil {
		log.Printf("WARNING: worker %d failed to attach reflection for session %s: %v", workerID, sessionID, err)
		return
	}

	e.scheduleIndex(types.EntityTypeReflection, session.ID, "", content)
	log.Printf("worker %d attached reflection for session %s", workerID, sessionID)
}

// reflectionPrompt builds the completion prompt for a closed session.
func reflectionPrompt(s *types.WorkSession) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a concise engineering journal assistant.\n")
	fmt.Fprintf(&b, "Write a short reflection (3-5 sentences) on the following work session.\n")
	fmt.Fprintf(&b, "Focus on what was accomplished and what to carry forward. Plain prose, no headings.\n\n")
	fmt.Fprintf(&b, "Task: %s\n", s.TaskDescription)
	fmt.Fprintf(&b, "Duration: %s\n", s.Duration().Round(time.Minute))
	if len(s.Learnings) > 0 {
		fmt.Fprintf(&b, "Learnings:\n- %s\n", strings.Join(s.Learnings, "\n- "))
	}
	if len(s.Challenges) > 0 {
		fmt.Fprintf(&b, "Challenges:\n- %s\n", strings.Join(s.Challenges, "\n- "))
	}
	if s.Note != "" {
		fmt.Fprintf(&b, "Closing note: %s\n", s.Note)
	}
	return b.String()
}
