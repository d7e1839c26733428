package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/buixuanquoc47/pomoteam/internal/auth"
	"github.com/buixuanquoc47/pomoteam/internal/health"
	"github.com/buixuanquoc47/pomoteam/internal/metrics"
	"github.com/buixuanquoc47/pomoteam/internal/report"
	"github.com/buixuanquoc47/pomoteam/internal/session"
	"github.com/buixuanquoc47/pomoteam/internal/store"
)

// Handlers holds the dependencies shared by all HTTP handlers.
type Handlers struct {
	store           *store.Store
	engine          *session.Engine
	reports         *report.Aggregator
	tokens          *auth.TokenManager
	revoked         *auth.Revocations
	checker         *health.Checker
	metrics         *metrics.Metrics
	logger          zerolog.Logger
	defaultTeamName string
}

// NewHandlers creates the handler set.
func NewHandlers(
	st *store.Store,
	engine *session.Engine,
	reports *report.Aggregator,
	tokens *auth.TokenManager,
	revoked *auth.Revocations,
	checker *health.Checker,
	m *metrics.Metrics,
	logger zerolog.Logger,
	defaultTeamName string,
) *Handlers {
	return &Handlers{
		store:           st,
		engine:          engine,
		reports:         reports,
		tokens:          tokens,
		revoked:         revoked,
		checker:         checker,
		metrics:         m,
		logger:          logger.With().Str("component", "api").Logger(),
		defaultTeamName: defaultTeamName,
	}
}

// Liveness handles GET /healthz. The process is alive if it can answer.
func (h *Handlers) Liveness(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Readiness handles GET /readyz, running all registered dependency checks.
func (h *Handlers) Readiness(c *fiber.Ctx) error {
	results := h.checker.RunAll(c.Context())
	ready := true
	for _, s := range results {
		if s == health.StatusDown {
			ready = false
			break
		}
	}

	status := fiber.StatusOK
	overall := "ok"
	if !ready {
		status = fiber.StatusServiceUnavailable
		overall = "down"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": results,
	})
}
