package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Task statuses.
const (
	TaskTodo    = "todo"
	TaskDoing   = "doing"
	TaskDone    = "done"
	TaskBlocked = "blocked"
)

// Task represents a task in the ledger.
type Task struct {
	ID            int64
	ProjectID     int64 // 0 = no project
	AssigneeID    int64 // 0 = unassigned
	Title         string
	Description   string
	Status        string // todo | doing | done | blocked
	Priority      string
	EstimatePomos int
	ActualPomos   int
	DueDate       string // YYYY-MM-DD, empty = none
	CreatedAt     int64  // unix ms
}

// DoneTaskStats aggregates a user's completed tasks for accuracy reporting.
type DoneTaskStats struct {
	TasksDone     int
	EstimateTotal int
	ActualTotal   int
}

const taskColumns = `id, project_id, assignee_id, title, description, status,
	priority, estimate_pomos, actual_pomos, due_date, created_at`

// CreateTask inserts a new task and fills in its ID.
func (s *Store) CreateTask(t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().UnixMilli()
	}
	if t.Status == "" {
		t.Status = TaskTodo
	}
	if t.Priority == "" {
		t.Priority = "normal"
	}

	query := `
	INSERT INTO tasks (project_id, assignee_id, title, description, status,
		priority, estimate_pomos, actual_pomos, due_date, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.Exec(query,
		sql.NullInt64{Int64: t.ProjectID, Valid: t.ProjectID != 0},
		sql.NullInt64{Int64: t.AssigneeID, Valid: t.AssigneeID != 0},
		t.Title,
		sql.NullString{String: t.Description, Valid: t.Description != ""},
		t.Status, t.Priority, t.EstimatePomos, t.ActualPomos,
		sql.NullString{String: t.DueDate, Valid: t.DueDate != ""},
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get task id: %w", err)
	}
	return nil
}

// GetTask retrieves a task by ID. Returns nil if no such task exists.
func (s *Store) GetTask(id int64) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// UpdateTask writes the task's editable fields. The actual_pomos counter is
// deliberately excluded: it only moves through the atomic increment paths.
func (s *Store) UpdateTask(t *Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
	UPDATE tasks
	SET project_id = ?, assignee_id = ?, title = ?, description = ?,
	    status = ?, priority = ?, estimate_pomos = ?, due_date = ?
	WHERE id = ?
	`

	res, err := s.db.Exec(query,
		sql.NullInt64{Int64: t.ProjectID, Valid: t.ProjectID != 0},
		sql.NullInt64{Int64: t.AssigneeID, Valid: t.AssigneeID != 0},
		t.Title,
		sql.NullString{String: t.Description, Valid: t.Description != ""},
		t.Status, t.Priority, t.EstimatePomos,
		sql.NullString{String: t.DueDate, Valid: t.DueDate != ""},
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task not found: %d", t.ID)
	}
	return nil
}

// MarkTaskDone sets a task's status to done and credits one pomodoro. The
// increment happens in SQL so concurrent credits cannot lose updates.
func (s *Store) MarkTaskDone(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `UPDATE tasks SET status = ?, actual_pomos = actual_pomos + 1 WHERE id = ?`
	res, err := s.db.Exec(query, TaskDone, id)
	if err != nil {
		return fmt.Errorf("failed to mark task done: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("task not found: %d", id)
	}
	return nil
}

// ListTasksByAssignee returns a user's tasks, newest first.
func (s *Store) ListTasksByAssignee(userID int64) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT `+taskColumns+` FROM tasks WHERE assignee_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListBlockedTasks returns blocked tasks across a team's projects, ordered
// by due date with undated tasks last.
func (s *Store) ListBlockedTasks(teamID int64) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT ` + taskColumns + ` FROM tasks
	WHERE status = ? AND project_id IN (SELECT id FROM projects WHERE team_id = ?)
	ORDER BY due_date IS NULL, due_date ASC
	`

	rows, err := s.db.Query(query, TaskBlocked, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blocked tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// GetDoneTaskStats aggregates the user's done tasks: count plus estimate
// and actual pomodoro totals. Not time-windowed; reflects current status.
func (s *Store) GetDoneTaskStats(userID int64) (DoneTaskStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
	SELECT COUNT(*), COALESCE(SUM(estimate_pomos), 0), COALESCE(SUM(actual_pomos), 0)
	FROM tasks WHERE assignee_id = ? AND status = ?
	`

	var st DoneTaskStats
	err := s.db.QueryRow(query, userID, TaskDone).Scan(&st.TasksDone, &st.EstimateTotal, &st.ActualTotal)
	if err != nil {
		return DoneTaskStats{}, fmt.Errorf("failed to get done task stats: %w", err)
	}
	return st, nil
}

func collectTasks(rows *sql.Rows) ([]*Task, error) {
	var tasks []*Task
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}

func scanTask(scan func(...any) error) (*Task, error) {
	t := &Task{}
	var projectID, assigneeID sql.NullInt64
	var description, dueDate sql.NullString

	err := scan(&t.ID, &projectID, &assigneeID, &t.Title, &description,
		&t.Status, &t.Priority, &t.EstimatePomos, &t.ActualPomos, &dueDate, &t.CreatedAt)
	if err != nil {
		return nil, err
	}

	if projectID.Valid {
		t.ProjectID = projectID.Int64
	}
	if assigneeID.Valid {
		t.AssigneeID = assigneeID.Int64
	}
	if description.Valid {
		t.Description = description.String
	}
	if dueDate.Valid {
		t.DueDate = dueDate.String
	}
	return t, nil
}
