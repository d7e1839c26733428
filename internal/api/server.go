package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	perrors "github.com/buixuanquoc47/pomoteam/internal/errors"
	"github.com/buixuanquoc47/pomoteam/internal/metrics"
	"github.com/buixuanquoc47/pomoteam/internal/requestid"
)

// ServerConfig holds configuration for the HTTP API server.
type ServerConfig struct {
	ListenAddr  string
	RateLimit   RateLimitConfig
	CORSOrigins string
}

// Server is the pomoteam Fiber application.
type Server struct {
	app      *fiber.App
	handlers *Handlers
	logger   zerolog.Logger
	config   ServerConfig
}

// NewServer creates and configures the API server.
func NewServer(cfg ServerConfig, h *Handlers, logger zerolog.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(h.metrics, logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ReadBufferSize:        8192,
		WriteBufferSize:       8192,
	})

	s := &Server{
		app:      app,
		handlers: h,
		logger:   logger.With().Str("component", "server").Logger(),
		config:   cfg,
	}

	s.setupMiddleware(cfg, logger)
	s.setupRoutes(h)

	return s
}

func (s *Server) setupMiddleware(cfg ServerConfig, logger zerolog.Logger) {
	// Recovery middleware
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID middleware
	s.app.Use(func(c *fiber.Ctx) error {
		_, reqID := requestid.New(c.Context())
		c.Set("X-Request-ID", reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	// CORS middleware
	if cfg.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: cfg.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
		}))
	}

	// Rate limiter
	if cfg.RateLimit.RPS > 0 {
		s.app.Use(NewRateLimitMiddleware(cfg.RateLimit))
	}

	// Auth middleware
	s.app.Use(NewAuthMiddleware(s.handlers.tokens, s.handlers.revoked, s.handlers.metrics, logger))

	// Request logging, skipping noisy probes
	s.app.Use(func(c *fiber.Ctx) error {
		path := c.Path()
		if path == "/healthz" || path == "/readyz" || path == "/metrics" {
			return c.Next()
		}

		logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Str("ip", c.IP()).
			Str("request_id", fmt.Sprintf("%v", c.Locals("request_id"))).
			Msg("api request")

		return c.Next()
	})
}

func (s *Server) setupRoutes(h *Handlers) {
	// Probe endpoints (no auth required; exempted in auth middleware)
	s.app.Get("/healthz", h.Liveness)
	s.app.Get("/readyz", h.Readiness)

	// Prometheus metrics
	s.app.Get("/metrics", adaptor.HTTPHandler(h.metrics.Handler()))

	v1 := s.app.Group("/api/v1")

	// Auth
	v1.Post("/auth/register", h.Register)
	v1.Post("/auth/login", h.Login)
	v1.Post("/auth/logout", h.Logout)

	// Focus sessions
	v1.Post("/sessions/start", h.StartSession)
	v1.Post("/sessions/finish", h.FinishSession)

	// Tasks
	v1.Post("/tasks", h.CreateTask)
	v1.Get("/tasks", h.ListTasks)
	v1.Patch("/tasks/:id", h.UpdateTask)
	v1.Post("/tasks/:id/done", h.MarkTaskDone)

	// Projects
	v1.Post("/projects", h.CreateProject)
	v1.Get("/projects", h.ListProjects)

	// Reports
	v1.Get("/reports/me", h.MyReport)
	v1.Get("/reports/team", requireLeader(), h.TeamReport)

	// Team
	v1.Get("/team/blocked", requireLeader(), h.ListBlockedTasks)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":8080"
	}

	s.logger.Info().Str("addr", addr).Msg("api server starting")
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info().Msg("api server shutting down")
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func customErrorHandler(m *metrics.Metrics, logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errType := "internal_error"
		title := "Internal Server Error"

		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			errType = "http_error"
			title = fiberErr.Message
		case errors.Is(err, perrors.ErrNotFound):
			code = fiber.StatusNotFound
			errType = "not_found"
			title = "Not Found"
		case errors.Is(err, perrors.ErrForbidden):
			code = fiber.StatusForbidden
			errType = "forbidden"
			title = "Forbidden"
		case errors.Is(err, perrors.ErrUnauthorized):
			code = fiber.StatusUnauthorized
			errType = "unauthorized"
			title = "Unauthorized"
		case errors.Is(err, perrors.ErrSessionFinished):
			code = fiber.StatusConflict
			errType = "session_finished"
			title = "Conflict"
		case errors.Is(err, perrors.ErrEmailTaken):
			code = fiber.StatusConflict
			errType = "email_taken"
			title = "Conflict"
		case errors.Is(err, perrors.ErrInvalidInput):
			code = fiber.StatusBadRequest
			errType = "invalid_input"
			title = "Bad Request"
		}

		m.RecordError("api", errType)
		logger.Error().
			Err(err).
			Int("status", code).
			Str("path", c.Path()).
			Str("method", c.Method()).
			Msg("unhandled error")

		detail := err.Error()
		// Don't leak internal details
		if code == fiber.StatusInternalServerError {
			detail = "An internal error occurred"
		}

		return c.Status(code).JSON(ProblemDetail{
			Type:     errType,
			Title:    title,
			Status:   code,
			Detail:   detail,
			Instance: c.Path(),
		})
	}
}
