package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devlog-ai/devlog/internal/storage"
	"github.com/devlog-ai/devlog/pkg/types"
)

// journalDateLayout is the unique key format for daily journals.
const journalDateLayout = "2006-01-02"

// StartSession opens a new work session, lazily creating the journal row for
// now's date. The single-open-session invariant is enforced twice inside the
// same transaction: an explicit count of open sessions, and the partial
// unique index on open_marker that catches any writer the count missed.
func (s *Store) StartSession(ctx context.Context, taskDescription string, now time.Time) (*types.WorkSession, error) {
	if err := storage.CheckRequired("task description", taskDescription, storage.MaxTextChars); err != nil {
		return nil, err
	}

	now = now.UTC()
	date := now.Format(journalDateLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var open int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM work_sessions WHERE end_time IS NULL`).Scan(&open); err != nil {
		return nil, fmt.Errorf("failed to count open sessions: %w", err)
	}
	if open > 0 {
		return nil, storage.ErrSessionActive
	}

	journalID, err := getOrCreateJournal(ctx, tx, date, now)
	if err != nil {
		return nil, err
	}

	session := &types.WorkSession{
		ID:              "sess:" + uuid.NewString(),
		JournalID:       journalID,
		TaskDescription: taskDescription,
		StartTime:       now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO work_sessions (id, journal_id, task_description, start_time, open_marker)
		VALUES (?, ?, ?, ?, 1)
	`, session.ID, session.JournalID, session.TaskDescription, session.StartTime)
	if err != nil {
		// The partial unique index rejects a second open session that raced
		// past the count above.
		if strings.Contains(err.Error(), "idx_sessions_single_open") ||
			strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil, storage.ErrSessionActive
		}
		return nil, fmt.Errorf("failed to create work session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session start: %w", err)
	}
	return session, nil
}

// getOrCreateJournal returns the journal ID for date, inserting the row if
// this is the first session of the day.
func getOrCreateJournal(ctx context.Context, tx *sql.Tx, date string, now time.Time) (string, error) {
	var journalID string
	err := tx.QueryRowContext(ctx, `SELECT id FROM journals WHERE date = ?`, date).Scan(&journalID)
	if err == nil {
		return journalID, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up journal: %w", err)
	}

	journalID = "journal:" + date
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO journals (id, date, created_at) VALUES (?, ?, ?)
	`, journalID, date, now); err != nil {
		return "", fmt.Errorf("failed to create journal: %w", err)
	}
	return journalID, nil
}

// EndActiveSession closes the open session, recording learnings, challenges,
// and the closing note. Returns the closed session with EndTime set.
func (s *Store) EndActiveSession(ctx context.Context, end time.Time, learnings, challenges []string, note string) (*types.WorkSession, error) {
	if err := storage.CheckList("learnings", learnings); err != nil {
		return nil, err
	}
	if err := storage.CheckList("challenges", challenges); err != nil {
		return nil, err
	}
	if err := storage.CheckText("note", note, storage.MaxNoteChars); err != nil {
		return nil, err
	}

	end = end.UTC()

	learningsJSON, err := marshalList(learnings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal learnings: %w", err)
	}
	challengesJSON, err := marshalList(challenges)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal challenges: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	session, err := scanSession(tx.QueryRowContext(ctx, `
		SELECT id, journal_id, task_description, start_time, end_time, learnings, challenges, note
		FROM work_sessions WHERE end_time IS NULL
	`))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNoActiveSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read open session: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE work_sessions
		SET end_time = ?, learnings = ?, challenges = ?, note = ?, open_marker = NULL
		WHERE id = ?
	`, end, nullableBytes(learningsJSON), nullableBytes(challengesJSON), nullableString(note), session.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to close session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit session end: %w", err)
	}

	session.EndTime = &end
	session.Learnings = learnings
	session.Challenges = challenges
	session.Note = note
	return session, nil
}

// ActiveSession returns the currently open session.
func (s *Store) ActiveSession(ctx context.Context) (*types.WorkSession, error) {
	session, err := scanSession(s.db.QueryRowContext(ctx, `
		SELECT id, journal_id, task_description, start_time, end_time, learnings, challenges, note
		FROM work_sessions WHERE end_time IS NULL
	`))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNoActiveSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read open session: %w", err)
	}
	return session, nil
}

// GetSession retrieves a session by ID.
func (s *Store) GetSession(ctx context.Context, id string) (*types.WorkSession, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: session ID is required", storage.ErrValidation)
	}

	session, err := scanSession(s.db.QueryRowContext(ctx, `
		SELECT id, journal_id, task_description, start_time, end_time, learnings, challenges, note
		FROM work_sessions WHERE id = ?
	`, id))
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return session, nil
}

// SessionsForDate returns all sessions of a journal date, oldest-first.
// A date without a journal yields an empty slice.
func (s *Store) SessionsForDate(ctx context.Context, date string) ([]types.WorkSession, error) {
	if _, err := time.Parse(journalDateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: invalid date %q (want YYYY-MM-DD)", storage.ErrValidation, date)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT w.id, w.journal_id, w.task_description, w.start_time, w.end_time, w.learnings, w.challenges, w.note
		FROM work_sessions w
		JOIN journals j ON j.id = w.journal_id
		WHERE j.date = ?
		ORDER BY w.start_time
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []types.WorkSession
	for rows.Next() {
		session, err := scanSessionRows(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return sessions, nil
}

// ForceCloseStale closes open sessions that started before cutoff. This is a
// maintenance operation; it never runs on the ordinary read or write path.
func (s *Store) ForceCloseStale(ctx context.Context, cutoff, end time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE work_sessions
		SET end_time = ?, open_marker = NULL, note = COALESCE(note, 'force-closed as stale')
		WHERE end_time IS NULL AND start_time < ?
	`, end.UTC(), cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to force-close stale sessions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return int(n), nil
}

// AttachReflection stores the generated reflection for a session. Upsert:
// re-generating a reflection replaces the previous text.
func (s *Store) AttachReflection(ctx context.Context, r *types.SessionReflection) error {
	if r == nil || r.SessionID == "" {
		return fmt.Errorf("%w: session ID is required", storage.ErrValidation)
	}
	if err := storage.CheckRequired("reflection content", r.Content, storage.MaxNoteChars); err != nil {
		return err
	}

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_reflections (session_id, content, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			content = excluded.content,
			created_at = excluded.created_at
	`, r.SessionID, r.Content, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to attach reflection: %w", err)
	}
	return nil
}

// GetReflection returns the reflection for a session, or storage.ErrNotFound.
func (s *Store) GetReflection(ctx context.Context, sessionID string) (*types.SessionReflection, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session ID is required", storage.ErrValidation)
	}

	var r types.SessionReflection
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, content, created_at FROM session_reflections WHERE session_id = ?
	`, sessionID).Scan(&r.SessionID, &r.Content, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reflection: %w", err)
	}
	return &r, nil
}

// ReflectionsForDate returns reflections for all sessions of a date,
// oldest session first.
func (s *Store) ReflectionsForDate(ctx context.Context, date string) ([]types.SessionReflection, error) {
	if _, err := time.Parse(journalDateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: invalid date %q (want YYYY-MM-DD)", storage.ErrValidation, date)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT r.session_id, r.content, r.created_at
		FROM session_reflections r
		JOIN work_sessions w ON w.id = r.session_id
		JOIN journals j ON j.id = w.journal_id
		WHERE j.date = ?
		ORDER BY w.start_time
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list reflections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var reflections []types.SessionReflection
	for rows.Next() {
		var r types.SessionReflection
		if err := rows.Scan(&r.SessionID, &r.Content, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reflection row: %w", err)
		}
		reflections = append(reflections, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return reflections, nil
}

// sessionScanner abstracts *sql.Row and *sql.Rows for shared scanning.
type sessionScanner interface {
	Scan(dest ...interface{}) error
}

// scanSession reads one work_sessions row in the canonical column order.
func scanSession(row sessionScanner) (*types.WorkSession, error) {
	var session types.WorkSession
	var endTime sql.NullTime
	var learningsJSON, challengesJSON, note sql.NullString

	err := row.Scan(
		&session.ID,
		&session.JournalID,
		&session.TaskDescription,
		&session.StartTime,
		&endTime,
		&learningsJSON,
		&challengesJSON,
		&note,
	)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		t := endTime.Time
		session.EndTime = &t
	}
	if session.Learnings, err = unmarshalList(learningsJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal learnings: %w", err)
	}
	if session.Challenges, err = unmarshalList(challengesJSON); err != nil {
		return nil, fmt.Errorf("failed to unmarshal challenges: %w", err)
	}
	if note.Valid {
		session.Note = note.String
	}
	return &session, nil
}

// scanSessionRows wraps scanSession with row-set error context.
func scanSessionRows(rows *sql.Rows) (*types.WorkSession, error) {
	session, err := scanSession(rows)
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	return session, nil
}

// nullableBytes maps empty byte slices to SQL NULL.
func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
