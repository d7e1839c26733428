package store

import (
	"database/sql"
	"fmt"
)

// Role values for users.
const (
	RoleMember = "member"
	RoleLeader = "leader"
)

// User represents an account in the database.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         string // member | leader
	TeamID       int64  // 0 = no team
}

// Team represents a team.
type Team struct {
	ID   int64
	Name string
}

// CreateUser inserts a new user and fills in its ID.
func (s *Store) CreateUser(u *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
	INSERT INTO users (email, name, password_hash, role, team_id)
	VALUES (?, ?, ?, ?, ?)
	`

	res, err := s.db.Exec(query,
		u.Email, u.Name, u.PasswordHash, u.Role,
		sql.NullInt64{Int64: u.TeamID, Valid: u.TeamID != 0},
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	u.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID. Returns nil if no such user exists.
func (s *Store) GetUser(id int64) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanUser(s.db.QueryRow(
		`SELECT id, email, name, password_hash, role, team_id FROM users WHERE id = ?`, id))
}

// GetUserByEmail retrieves a user by email. Returns nil if none exists.
func (s *Store) GetUserByEmail(email string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanUser(s.db.QueryRow(
		`SELECT id, email, name, password_hash, role, team_id FROM users WHERE email = ?`, email))
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	var teamID sql.NullInt64

	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &teamID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if teamID.Valid {
		u.TeamID = teamID.Int64
	}
	return u, nil
}

// CountUsers returns the total number of users.
func (s *Store) CountUsers() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// ListTeamMembers returns all users belonging to a team, ordered by id.
func (s *Store) ListTeamMembers(teamID int64) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, email, name, password_hash, role, team_id FROM users WHERE team_id = ? ORDER BY id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u := &User{}
		var tid sql.NullInt64
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role, &tid); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if tid.Valid {
			u.TeamID = tid.Int64
		}
		users = append(users, u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// EnsureTeam returns the first team, creating one with the given name if
// no team exists yet.
func (s *Store) EnsureTeam(name string) (*Team, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &Team{}
	err := s.db.QueryRow(`SELECT id, name FROM teams ORDER BY id LIMIT 1`).Scan(&t.ID, &t.Name)
	if err == nil {
		return t, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	res, err := s.db.Exec(`INSERT INTO teams (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get team id: %w", err)
	}
	t.Name = name
	return t, nil
}
