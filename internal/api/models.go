// Package api provides the HTTP API for the pomoteam server.
package api

import (
	"time"

	"github.com/buixuanquoc47/pomoteam/internal/report"
	"github.com/buixuanquoc47/pomoteam/internal/store"
)

// --- Request DTOs ---

// RegisterRequest is the payload for POST /api/v1/auth/register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

// LoginRequest is the payload for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// StartSessionRequest is the payload for POST /api/v1/sessions/start.
// Missing optional numerics coerce to defaults; explicit values (including
// zero and negative planned minutes) are stored as given.
type StartSessionRequest struct {
	TaskID         *int64 `json:"task_id,omitempty"`
	PlannedMinutes *int   `json:"planned_minutes,omitempty"`
}

// FinishSessionRequest is the payload for POST /api/v1/sessions/finish.
type FinishSessionRequest struct {
	SessionID int64  `json:"session_id"`
	Completed *bool  `json:"completed,omitempty"` // default true
	Notes     string `json:"notes,omitempty"`
}

// CreateTaskRequest is the payload for POST /api/v1/tasks.
type CreateTaskRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	EstimatePomos *int   `json:"estimate_pomos,omitempty"`
	Priority      string `json:"priority,omitempty"`
	DueDate       string `json:"due_date,omitempty"`
	ProjectID     *int64 `json:"project_id,omitempty"`
	AssigneeID    *int64 `json:"assignee_id,omitempty"`
}

// UpdateTaskRequest is the payload for PATCH /api/v1/tasks/:id. Nil fields
// are left unchanged.
type UpdateTaskRequest struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	Status        *string `json:"status,omitempty"`
	Priority      *string `json:"priority,omitempty"`
	EstimatePomos *int    `json:"estimate_pomos,omitempty"`
	DueDate       *string `json:"due_date,omitempty"`
	ProjectID     *int64  `json:"project_id,omitempty"`
	AssigneeID    *int64  `json:"assignee_id,omitempty"`
}

// CreateProjectRequest is the payload for POST /api/v1/projects.
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// --- Response DTOs ---

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
	Role   string `json:"role"`
	TeamID int64  `json:"team_id,omitempty"`
}

// StartSessionResponse is returned by POST /api/v1/sessions/start.
type StartSessionResponse struct {
	SessionID int64 `json:"session_id"`
}

// OKResponse is a bare acknowledgement.
type OKResponse struct {
	OK bool `json:"ok"`
}

// WindowInfo echoes the resolved report window.
type WindowInfo struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// UserReportResponse is returned by GET /api/v1/reports/me.
type UserReportResponse struct {
	Range WindowInfo `json:"range"`
	report.UserStats
}

// TeamReportResponse is returned by GET /api/v1/reports/team.
type TeamReportResponse struct {
	Range   WindowInfo         `json:"range"`
	Members []report.UserStats `json:"members"`
}

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID            int64  `json:"id"`
	ProjectID     int64  `json:"project_id,omitempty"`
	AssigneeID    int64  `json:"assignee_id,omitempty"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	EstimatePomos int    `json:"estimate_pomos"`
	ActualPomos   int    `json:"actual_pomos"`
	DueDate       string `json:"due_date,omitempty"`
	CreatedAt     int64  `json:"created_at"`
}

// TaskListResponse wraps a list of tasks.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
}

// ProjectResponse is the public view of a project.
type ProjectResponse struct {
	ID     int64  `json:"id"`
	TeamID int64  `json:"team_id"`
	Name   string `json:"name"`
}

// ProjectListResponse wraps a list of projects.
type ProjectListResponse struct {
	Projects []ProjectResponse `json:"projects"`
}

// ProblemDetail follows RFC 7807 for error responses.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

func newUserResponse(u *store.User) UserResponse {
	return UserResponse{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
		TeamID: u.TeamID,
	}
}

func newTaskResponse(t *store.Task) TaskResponse {
	return TaskResponse{
		ID:            t.ID,
		ProjectID:     t.ProjectID,
		AssigneeID:    t.AssigneeID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        t.Status,
		Priority:      t.Priority,
		EstimatePomos: t.EstimatePomos,
		ActualPomos:   t.ActualPomos,
		DueDate:       t.DueDate,
		CreatedAt:     t.CreatedAt,
	}
}

func newProjectResponse(p *store.Project) ProjectResponse {
	return ProjectResponse{ID: p.ID, TeamID: p.TeamID, Name: p.Name}
}
