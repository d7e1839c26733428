// YAML overlay loading for pomoteam.yaml. Values may reference environment
// variables via ${VAR} or $VAR syntax.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileConfig is the shape of the optional YAML config file. Every field is
// optional; zero values leave the env-derived setting untouched.
type FileConfig struct {
	Server struct {
		ListenAddr  string `yaml:"listen_addr"`
		CORSOrigins string `yaml:"cors_origins"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Auth struct {
		JWTSecret string `yaml:"jwt_secret"`
		TokenTTL  string `yaml:"token_ttl"` // Go duration, e.g. "24h"
	} `yaml:"auth"`

	RateLimit struct {
		RPS   int `yaml:"rps"`
		Burst int `yaml:"burst"`
	} `yaml:"rate_limit"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Overlay reads a YAML file and applies its non-zero values onto cfg.
func Overlay(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return OverlayBytes(cfg, raw)
}

// OverlayBytes applies a YAML overlay from bytes (useful for testing).
func OverlayBytes(cfg *Config, raw []byte) error {
	expanded := expandEnvVars(string(raw))

	var fc FileConfig
	if err := yaml.Unmarshal([]byte(expanded), &fc); err != nil {
		return fmt.Errorf("config: parse: %w", err)
	}

	if fc.Server.ListenAddr != "" {
		cfg.ListenAddr = fc.Server.ListenAddr
	}
	if fc.Server.CORSOrigins != "" {
		cfg.CORSOrigins = fc.Server.CORSOrigins
	}
	if fc.Database.Path != "" {
		cfg.DBPath = fc.Database.Path
	}
	if fc.Auth.JWTSecret != "" {
		cfg.JWTSecret = fc.Auth.JWTSecret
	}
	if fc.Auth.TokenTTL != "" {
		ttl, err := time.ParseDuration(fc.Auth.TokenTTL)
		if err != nil {
			return fmt.Errorf("config: auth.token_ttl: %w", err)
		}
		cfg.TokenTTL = ttl
	}
	if fc.RateLimit.RPS > 0 {
		cfg.RateLimitRPS = fc.RateLimit.RPS
	}
	if fc.RateLimit.Burst > 0 {
		cfg.RateLimitBurst = fc.RateLimit.Burst
	}
	if fc.Log.Level != "" {
		cfg.LogLevel = fc.Log.Level
	}

	return nil
}

// envVarPattern matches ${VAR_NAME} and $VAR_NAME.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

// expandEnvVars replaces ${VAR} and $VAR with the corresponding environment
// variable value. Missing vars become empty strings.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.TrimPrefix(match, "${")
		name = strings.TrimSuffix(name, "}")
		name = strings.TrimPrefix(name, "$")
		return os.Getenv(name)
	})
}
