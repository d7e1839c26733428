package store

import (
	"fmt"
)

func (s *Store) migrate() error {
	if err := s.migrateV1(); err != nil {
		return err
	}
	return s.migrateV2()
}

func (s *Store) migrateV1() error {
	schema := `
	CREATE TABLE IF NOT EXISTS teams (
		id   INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL DEFAULT 'Default Team'
	);

	CREATE TABLE IF NOT EXISTS users (
		id            INTEGER PRIMARY KEY AUTOINCREMENT,
		email         TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL DEFAULT 'member',
		team_id       INTEGER REFERENCES teams(id)
	);

	CREATE TABLE IF NOT EXISTS projects (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		team_id INTEGER REFERENCES teams(id),
		name    TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id     INTEGER REFERENCES projects(id),
		assignee_id    INTEGER REFERENCES users(id),
		title          TEXT NOT NULL,
		description    TEXT,
		status         TEXT NOT NULL DEFAULT 'todo',
		priority       TEXT NOT NULL DEFAULT 'normal',
		estimate_pomos INTEGER NOT NULL DEFAULT 0,
		actual_pomos   INTEGER NOT NULL DEFAULT 0,
		due_date       TEXT,
		created_at     INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_assignee_status ON tasks(assignee_id, status);
	CREATE INDEX IF NOT EXISTS idx_tasks_project_status ON tasks(project_id, status);

	CREATE TABLE IF NOT EXISTS meta (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '1');
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v1: %w", err)
	}

	return nil
}

func (s *Store) migrateV2() error {
	var version string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil || version >= "2" {
		return nil // already at v2+
	}

	schema := `
	CREATE TABLE IF NOT EXISTS focus_sessions (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id         INTEGER NOT NULL REFERENCES users(id),
		task_id         INTEGER,
		project_id      INTEGER,
		start_time      INTEGER NOT NULL,
		end_time        INTEGER,
		planned_minutes INTEGER NOT NULL DEFAULT 25,
		actual_minutes  INTEGER NOT NULL DEFAULT 0,
		was_completed   INTEGER NOT NULL DEFAULT 0,
		notes           TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_user_start ON focus_sessions(user_id, start_time);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute migration v2: %w", err)
	}

	if _, err := s.db.Exec(`INSERT OR REPLACE INTO meta(key, value) VALUES ('schema_version', '2')`); err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}

	return nil
}
