package store

import (
	"database/sql"
	"fmt"
)

// Project represents a project owned by a team.
type Project struct {
	ID     int64
	TeamID int64
	Name   string
}

// CreateProject inserts a new project and fills in its ID.
func (s *Store) CreateProject(p *Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`INSERT INTO projects (team_id, name) VALUES (?, ?)`,
		sql.NullInt64{Int64: p.TeamID, Valid: p.TeamID != 0}, p.Name)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get project id: %w", err)
	}
	return nil
}

// ListProjects returns a team's projects ordered by name.
func (s *Store) ListProjects(teamID int64) ([]*Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, team_id, name FROM projects WHERE team_id = ? ORDER BY name`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		p := &Project{}
		var teamID sql.NullInt64
		if err := rows.Scan(&p.ID, &teamID, &p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		if teamID.Valid {
			p.TeamID = teamID.Int64
		}
		projects = append(projects, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}
