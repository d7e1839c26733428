package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/buixuanquoc47/pomoteam/internal/api"
	"github.com/buixuanquoc47/pomoteam/internal/auth"
	"github.com/buixuanquoc47/pomoteam/internal/config"
	"github.com/buixuanquoc47/pomoteam/internal/health"
	"github.com/buixuanquoc47/pomoteam/internal/metrics"
	"github.com/buixuanquoc47/pomoteam/internal/report"
	"github.com/buixuanquoc47/pomoteam/internal/session"
	"github.com/buixuanquoc47/pomoteam/internal/store"
)

func main() {
	// Setup structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	logger := zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()

	if os.Getenv("ENVIRONMENT") == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	log.Logger = logger

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	logger.Info().
		Str("environment", cfg.Environment).
		Str("listen_addr", cfg.ListenAddr).
		Str("db_path", cfg.DBPath).
		Msg("starting pomoteam server")

	if !cfg.Development() && cfg.JWTSecret == "dev-secret-change-me" {
		logger.Fatal().Msg("AUTH_JWT_SECRET must be set outside development")
	}

	// Open the store and run migrations
	st, err := store.New(cfg.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	// Seed the default team
	if _, err := st.EnsureTeam(cfg.DefaultTeamName); err != nil {
		logger.Fatal().Err(err).Msg("failed to seed default team")
	}

	// Health checker
	checker := health.NewChecker(logger)
	checker.Register("sqlite", func(ctx context.Context) health.Status {
		if err := st.Ping(ctx); err != nil {
			return health.StatusDown
		}
		return health.StatusOK
	})

	// Metrics
	m := metrics.New()

	// Auth
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	revoked := auth.NewRevocations()

	// Sweep expired revocations hourly.
	revokeCtx, revokeCancel := context.WithCancel(context.Background())
	defer revokeCancel()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-revokeCtx.Done():
				return
			case <-ticker.C:
				if n := revoked.Cleanup(); n > 0 {
					logger.Debug().Int("expired", n).Msg("swept revoked tokens")
				}
			}
		}
	}()

	// Core services
	engine := session.NewEngine(st, m, logger)
	reports := report.NewAggregator(st, m, logger)

	handlers := api.NewHandlers(st, engine, reports, tokens, revoked, checker, m, logger, cfg.DefaultTeamName)

	server := api.NewServer(api.ServerConfig{
		ListenAddr: cfg.ListenAddr,
		RateLimit: api.RateLimitConfig{
			RPS:   cfg.RateLimitRPS,
			Burst: cfg.RateLimitBurst,
		},
		CORSOrigins: cfg.CORSOrigins,
	}, handlers, logger)

	// Graceful shutdown on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down gracefully")
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("api server error")
		}
	}

	if err := server.Shutdown(); err != nil {
		logger.Error().Err(err).Msg("api server shutdown error")
	}

	logger.Info().Msg("pomoteam server stopped")
}
