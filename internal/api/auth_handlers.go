package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/buixuanquoc47/pomoteam/internal/auth"
	"github.com/buixuanquoc47/pomoteam/internal/store"
)

// Register handles POST /api/v1/auth/register. The first user ever created
// becomes the team leader; everyone after joins as a member of the seeded
// team.
func (h *Handlers) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"missing_credentials", "Bad Request",
			"Email and password are required")
	}

	existing, err := h.store.GetUserByEmail(email)
	if err != nil {
		return err
	}
	if existing != nil {
		return problemResponse(c, fiber.StatusConflict,
			"email_taken", "Conflict",
			"Email already registered")
	}

	team, err := h.store.EnsureTeam(h.defaultTeamName)
	if err != nil {
		return err
	}

	count, err := h.store.CountUsers()
	if err != nil {
		return err
	}
	role := store.RoleMember
	if count == 0 {
		role = store.RoleLeader
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return err
	}

	user := &store.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         role,
		TeamID:       team.ID,
	}
	if err := h.store.CreateUser(user); err != nil {
		return err
	}

	token, _, err := h.tokens.Issue(user.ID, user.Role, user.TeamID)
	if err != nil {
		return err
	}

	h.logger.Info().
		Int64("user_id", user.ID).
		Str("role", user.Role).
		Msg("user registered")

	return c.Status(fiber.StatusCreated).JSON(AuthResponse{
		Token: token,
		User:  newUserResponse(user),
	})
}

// Login handles POST /api/v1/auth/login.
func (h *Handlers) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := h.store.GetUserByEmail(email)
	if err != nil {
		return err
	}
	if user == nil || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		h.metrics.AuthFailures.Inc()
		return problemResponse(c, fiber.StatusUnauthorized,
			"invalid_credentials", "Unauthorized",
			"Invalid credentials")
	}

	token, _, err := h.tokens.Issue(user.ID, user.Role, user.TeamID)
	if err != nil {
		return err
	}

	return c.JSON(AuthResponse{
		Token: token,
		User:  newUserResponse(user),
	})
}

// Logout handles POST /api/v1/auth/logout. The token's jti is revoked
// until its natural expiry.
func (h *Handlers) Logout(c *fiber.Ctx) error {
	claims, _ := c.Locals("claims").(*auth.Claims)
	if claims != nil {
		h.revoked.Revoke(claims.ID, claims.ExpiresAt.Time)
	}
	return c.JSON(OKResponse{OK: true})
}
