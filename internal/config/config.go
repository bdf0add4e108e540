package config

import (
	"os"
	"strconv"

	"trialgate/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Scoring  ScoringSourceConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds HTTP API settings
type ServerConfig struct {
	Port string
}

// ScoringSourceConfig locates the versioned scoring configuration
// document and the default prior used when a caller supplies none.
type ScoringSourceConfig struct {
	Path         string
	DefaultPrior float64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
		Scoring: ScoringSourceConfig{
			Path:         getEnvOrDefault("SCORING_CONFIG", "scoring.yaml"),
			DefaultPrior: getEnvFloatOrDefault("DEFAULT_PRIOR", 0.65),
		},
	}

	if cfg.Scoring.Path == "" {
		return nil, errors.ConfigInvalid("SCORING_CONFIG is required")
	}
	if cfg.Scoring.DefaultPrior <= 0 || cfg.Scoring.DefaultPrior >= 1 {
		return nil, errors.ConfigInvalid("DEFAULT_PRIOR must be in (0, 1)")
	}
	return cfg, nil
}

// RequireDatabase validates the database settings for entry points
// that persist results; the pure scoring paths never need it.
func (c *Config) RequireDatabase() error {
	if c.Database.URL == "" {
		return errors.ConfigInvalid("DATABASE_URL is required")
	}
	return nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvFloatOrDefault(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
