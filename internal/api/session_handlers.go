package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	perrors "github.com/buixuanquoc47/pomoteam/internal/errors"
	"github.com/buixuanquoc47/pomoteam/internal/session"
)

// StartSession handles POST /api/v1/sessions/start. The response returns
// immediately with the new session's ID; the countdown a client shows is
// purely cosmetic and has no authoritative role.
func (h *Handlers) StartSession(c *fiber.Ctx) error {
	var req StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	var taskID int64
	if req.TaskID != nil {
		taskID = *req.TaskID
	}
	planned := session.DefaultPlannedMinutes
	if req.PlannedMinutes != nil {
		planned = *req.PlannedMinutes
	}

	id, err := h.engine.Start(callerID(c), taskID, planned)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(StartSessionResponse{SessionID: id})
}

// FinishSession handles POST /api/v1/sessions/finish.
func (h *Handlers) FinishSession(c *fiber.Ctx) error {
	var req FinishSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	if req.SessionID == 0 {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_session_id", "Bad Request",
			"session_id is required")
	}

	completed := true
	if req.Completed != nil {
		completed = *req.Completed
	}

	err := h.engine.Finish(callerID(c), req.SessionID, completed, req.Notes)
	switch {
	case errors.Is(err, perrors.ErrNotFound):
		return problemResponse(c, fiber.StatusNotFound,
			"session_not_found", "Not Found",
			"Session not found")
	case errors.Is(err, perrors.ErrForbidden):
		return problemResponse(c, fiber.StatusForbidden,
			"not_session_owner", "Forbidden",
			"Only the session owner may finish it")
	case errors.Is(err, perrors.ErrSessionFinished):
		return problemResponse(c, fiber.StatusConflict,
			"session_finished", "Conflict",
			"Session is already finished")
	case err != nil:
		return err
	}

	return c.JSON(OKResponse{OK: true})
}
