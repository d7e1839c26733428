package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all server configuration loaded from environment variables,
// optionally overlaid by a YAML file (see Overlay).
type Config struct {
	// General
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":8080"`

	// Database
	DBPath string `envconfig:"DB_PATH" default:"pomoteam.db"`

	// Auth
	JWTSecret string        `envconfig:"AUTH_JWT_SECRET" default:"dev-secret-change-me"`
	TokenTTL  time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"24h"`

	// Name for the team seeded on first start
	DefaultTeamName string `envconfig:"DEFAULT_TEAM_NAME" default:"Main Team"`

	// HTTP hardening
	RateLimitRPS   int    `envconfig:"RATE_LIMIT_RPS" default:"100"`
	RateLimitBurst int    `envconfig:"RATE_LIMIT_BURST" default:"200"`
	CORSOrigins    string `envconfig:"CORS_ORIGINS"`

	// ConfigFile points at an optional YAML overlay (pomoteam.yaml).
	ConfigFile string `envconfig:"CONFIG_FILE"`
}

// Load reads configuration from environment variables and, when
// CONFIG_FILE is set, overlays values from the YAML file on top.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("pomoteam", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cfg.ConfigFile != "" {
		if err := Overlay(&cfg, cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	return &cfg, nil
}

// Development returns true when running in the development environment.
func (c *Config) Development() bool {
	return c.Environment == "development"
}
