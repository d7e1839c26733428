package api

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/buixuanquoc47/pomoteam/internal/store"
)

// CreateTask handles POST /api/v1/tasks. The assignee defaults to the
// caller.
func (h *Handlers) CreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_title", "Bad Request",
			"Task title is required")
	}

	task := &store.Task{
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		AssigneeID:  callerID(c),
	}
	if req.EstimatePomos != nil {
		task.EstimatePomos = *req.EstimatePomos
	}
	if req.ProjectID != nil {
		task.ProjectID = *req.ProjectID
	}
	if req.AssigneeID != nil {
		task.AssigneeID = *req.AssigneeID
	}

	if err := h.store.CreateTask(task); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(newTaskResponse(task))
}

// ListTasks handles GET /api/v1/tasks, returning the caller's tasks.
func (h *Handlers) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.store.ListTasksByAssignee(callerID(c))
	if err != nil {
		return err
	}

	resp := TaskListResponse{Tasks: make([]TaskResponse, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, newTaskResponse(t))
	}
	return c.JSON(resp)
}

// UpdateTask handles PATCH /api/v1/tasks/:id. Members may edit their own
// tasks; leaders may edit any.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	task, err := h.loadOwnedTask(c)
	if err != nil || task == nil {
		return err
	}

	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = *req.Status
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.EstimatePomos != nil {
		task.EstimatePomos = *req.EstimatePomos
	}
	if req.DueDate != nil {
		task.DueDate = *req.DueDate
	}
	if req.ProjectID != nil {
		task.ProjectID = *req.ProjectID
	}
	if req.AssigneeID != nil {
		task.AssigneeID = *req.AssigneeID
	}

	if err := h.store.UpdateTask(task); err != nil {
		return err
	}
	return c.JSON(newTaskResponse(task))
}

// MarkTaskDone handles POST /api/v1/tasks/:id/done: sets the status to
// done and credits one pomodoro through the atomic increment path.
func (h *Handlers) MarkTaskDone(c *fiber.Ctx) error {
	task, err := h.loadOwnedTask(c)
	if err != nil || task == nil {
		return err
	}

	if err := h.store.MarkTaskDone(task.ID); err != nil {
		return err
	}

	updated, err := h.store.GetTask(task.ID)
	if err != nil {
		return err
	}
	if updated == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"task_not_found", "Not Found",
			"Task not found")
	}
	return c.JSON(newTaskResponse(updated))
}

// CreateProject handles POST /api/v1/projects.
func (h *Handlers) CreateProject(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_name", "Bad Request",
			"Project name is required")
	}

	project := &store.Project{TeamID: callerTeamID(c), Name: name}
	if err := h.store.CreateProject(project); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(newProjectResponse(project))
}

// ListProjects handles GET /api/v1/projects for the caller's team.
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	projects, err := h.store.ListProjects(callerTeamID(c))
	if err != nil {
		return err
	}

	resp := ProjectListResponse{Projects: make([]ProjectResponse, 0, len(projects))}
	for _, p := range projects {
		resp.Projects = append(resp.Projects, newProjectResponse(p))
	}
	return c.JSON(resp)
}

// ListBlockedTasks handles GET /api/v1/team/blocked (leader only).
func (h *Handlers) ListBlockedTasks(c *fiber.Ctx) error {
	tasks, err := h.store.ListBlockedTasks(callerTeamID(c))
	if err != nil {
		return err
	}

	resp := TaskListResponse{Tasks: make([]TaskResponse, 0, len(tasks))}
	for _, t := range tasks {
		resp.Tasks = append(resp.Tasks, newTaskResponse(t))
	}
	return c.JSON(resp)
}

// loadOwnedTask fetches the :id task and checks edit rights: the assignee
// or a leader. A nil task with a nil error means the problem response has
// already been written; callers must bail out either way.
func (h *Handlers) loadOwnedTask(c *fiber.Ctx) (*store.Task, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return nil, problemResponse(c, fiber.StatusBadRequest,
			"invalid_task_id", "Bad Request",
			"Task id must be an integer")
	}

	task, err := h.store.GetTask(id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, problemResponse(c, fiber.StatusNotFound,
			"task_not_found", "Not Found",
			"Task not found")
	}

	role, _ := c.Locals("role").(string)
	if role != store.RoleLeader && task.AssigneeID != callerID(c) {
		return nil, problemResponse(c, fiber.StatusForbidden,
			"not_task_owner", "Forbidden",
			"Only the assignee or a leader may modify this task")
	}
	return task, nil
}
