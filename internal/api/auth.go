package api

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/buixuanquoc47/pomoteam/internal/auth"
	"github.com/buixuanquoc47/pomoteam/internal/metrics"
)

// openPaths require no bearer token: probes plus the auth entry points.
var openPaths = map[string]bool{
	"/healthz":              true,
	"/readyz":               true,
	"/metrics":              true,
	"/api/v1/auth/register": true,
	"/api/v1/auth/login":    true,
}

// NewAuthMiddleware returns a Fiber middleware that validates the bearer
// token and stores the caller's identity in request locals.
func NewAuthMiddleware(tokens *auth.TokenManager, revoked *auth.Revocations, m *metrics.Metrics, logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := c.Path()
		if openPaths[path] {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			m.AuthFailures.Inc()
			return problemResponse(c, fiber.StatusUnauthorized,
				"missing_auth", "Unauthorized",
				"Authorization header is required")
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.AuthFailures.Inc()
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_auth_scheme", "Unauthorized",
				"Authorization header must use Bearer scheme")
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := tokens.Verify(token)
		if err != nil {
			m.AuthFailures.Inc()
			logger.Warn().
				Str("path", path).
				Str("method", c.Method()).
				Msg("unauthorized request: invalid token")
			return problemResponse(c, fiber.StatusUnauthorized,
				"invalid_token", "Unauthorized",
				"Invalid or expired token")
		}

		if revoked.IsRevoked(claims.ID) {
			m.AuthFailures.Inc()
			return problemResponse(c, fiber.StatusUnauthorized,
				"token_revoked", "Unauthorized",
				"Token has been revoked")
		}

		c.Locals("claims", claims)
		c.Locals("user_id", claims.UserID)
		c.Locals("role", claims.Role)
		c.Locals("team_id", claims.TeamID)
		return c.Next()
	}
}

// requireLeader enforces the leader role for team-wide endpoints.
func requireLeader() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if role != "leader" {
			return problemResponse(c, fiber.StatusForbidden,
				"leader_required", "Forbidden",
				"Leader role is required for this operation")
		}
		return c.Next()
	}
}

// callerID returns the authenticated user's ID from request locals.
func callerID(c *fiber.Ctx) int64 {
	id, _ := c.Locals("user_id").(int64)
	return id
}

// callerTeamID returns the authenticated user's team ID from request locals.
func callerTeamID(c *fiber.Ctx) int64 {
	id, _ := c.Locals("team_id").(int64)
	return id
}

// problemResponse returns an RFC 7807 Problem Detail error response.
func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	})
}
