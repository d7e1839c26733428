package store

import (
	"database/sql"
	"fmt"

	perrors "github.com/buixuanquoc47/pomoteam/internal/errors"
)

// FocusSession represents one timed focus interval.
//
// A session with EndTime == 0 is open. project_id is a snapshot taken at
// start time so attribution survives later task edits.
type FocusSession struct {
	ID             int64
	UserID         int64
	TaskID         int64 // 0 = no task
	ProjectID      int64 // 0 = no project
	StartTime      int64 // unix ms
	EndTime        int64 // unix ms, 0 = open
	PlannedMinutes int
	ActualMinutes  int
	WasCompleted   bool
	Notes          string
}

// CloseSessionParams carries the derived fields written when a session is
// finished.
type CloseSessionParams struct {
	SessionID     int64
	EndTime       int64 // unix ms
	ActualMinutes int
	WasCompleted  bool
	Notes         string
	// CreditTaskID, when non-zero, receives an actual_pomos increment in
	// the same transaction as the session close.
	CreditTaskID int64
}

// SessionStats aggregates a user's sessions inside a window.
type SessionStats struct {
	FocusMinutes  int
	PomodoroCount int
}

const sessionColumns = `id, user_id, task_id, project_id, start_time, end_time,
	planned_minutes, actual_minutes, was_completed, notes`

// CreateSession inserts a new open session and fills in its ID.
func (s *Store) CreateSession(fs *FocusSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
	INSERT INTO focus_sessions (user_id, task_id, project_id, start_time,
		end_time, planned_minutes, actual_minutes, was_completed, notes)
	VALUES (?, ?, ?, ?, NULL, ?, 0, 0, NULL)
	`

	res, err := s.db.Exec(query,
		fs.UserID,
		sql.NullInt64{Int64: fs.TaskID, Valid: fs.TaskID != 0},
		sql.NullInt64{Int64: fs.ProjectID, Valid: fs.ProjectID != 0},
		fs.StartTime, fs.PlannedMinutes,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	fs.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get session id: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID. Returns nil if no such session.
func (s *Store) GetSession(id int64) (*FocusSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+sessionColumns+` FROM focus_sessions WHERE id = ?`, id)
	fs, err := scanSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return fs, nil
}

// CloseSession finishes a session and, when CreditTaskID is set, credits
// the linked task, atomically. The UPDATE only matches while end_time is
// still NULL; a second close of the same session finds zero rows and
// returns ErrSessionFinished without touching the task counter.
func (s *Store) CloseSession(p CloseSessionParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin close transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	UPDATE focus_sessions
	SET end_time = ?, actual_minutes = ?, was_completed = ?, notes = ?
	WHERE id = ? AND end_time IS NULL
	`

	res, err := tx.Exec(query,
		p.EndTime, p.ActualMinutes, p.WasCompleted,
		sql.NullString{String: p.Notes, Valid: p.Notes != ""},
		p.SessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(*) FROM focus_sessions WHERE id = ?`, p.SessionID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check session: %w", err)
		}
		if exists == 0 {
			return perrors.ErrNotFound
		}
		return perrors.ErrSessionFinished
	}

	if p.CreditTaskID != 0 {
		// Atomic increment; a concurrently deleted task is a no-op, the
		// credit is best-effort like the task lookup at start.
		if _, err := tx.Exec(`UPDATE tasks SET actual_pomos = actual_pomos + 1 WHERE id = ?`, p.CreditTaskID); err != nil {
			return fmt.Errorf("failed to credit task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit close transaction: %w", err)
	}
	return nil
}

// GetSessionStats sums actual minutes and completed-session counts over
// the user's sessions whose start_time falls inside [from, to]. Both
// bounds are inclusive; a session is attributed to the window it started
// in regardless of when it finished.
func (s *Store) GetSessionStats(userID, from, to int64) (SessionStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT COALESCE(SUM(actual_minutes), 0),
	       COALESCE(SUM(CASE WHEN was_completed THEN 1 ELSE 0 END), 0)
	FROM focus_sessions
	WHERE user_id = ? AND start_time >= ? AND start_time <= ?
	`

	var st SessionStats
	if err := s.db.QueryRow(query, userID, from, to).Scan(&st.FocusMinutes, &st.PomodoroCount); err != nil {
		return SessionStats{}, fmt.Errorf("failed to get session stats: %w", err)
	}
	return st, nil
}

// ListSessionsInRange returns the user's sessions started inside [from, to],
// oldest first.
func (s *Store) ListSessionsInRange(userID, from, to int64) ([]*FocusSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT ` + sessionColumns + ` FROM focus_sessions
	WHERE user_id = ? AND start_time >= ? AND start_time <= ?
	ORDER BY start_time ASC
	`

	rows, err := s.db.Query(query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*FocusSession
	for rows.Next() {
		fs, err := scanSession(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, fs)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}

func scanSession(scan func(...any) error) (*FocusSession, error) {
	fs := &FocusSession{}
	var taskID, projectID, endTime sql.NullInt64
	var notes sql.NullString

	err := scan(&fs.ID, &fs.UserID, &taskID, &projectID, &fs.StartTime,
		&endTime, &fs.PlannedMinutes, &fs.ActualMinutes, &fs.WasCompleted, &notes)
	if err != nil {
		return nil, err
	}

	if taskID.Valid {
		fs.TaskID = taskID.Int64
	}
	if projectID.Valid {
		fs.ProjectID = projectID.Int64
	}
	if endTime.Valid {
		fs.EndTime = endTime.Int64
	}
	if notes.Valid {
		fs.Notes = notes.String
	}
	return fs, nil
}
