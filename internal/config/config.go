package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const defaultJWTSecret = "dev-secret-change-in-production"

// Config holds the application configuration.
type Config struct {
	ServerPort     int
	Env            string
	DatabaseDSN    string
	JWTSecret      string
	TokenExpiry    time.Duration
	AllowedOrigin  string
	SeedDemoData   bool
	DebugRoutes    bool
	ReportSchedule string
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	portStr := getEnv("PORT", "4000")
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT value %q: %w", portStr, err)
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		ServerPort:     port,
		Env:            env,
		DatabaseDSN:    getEnv("DATABASE_DSN", ":memory:"),
		JWTSecret:      getEnv("JWT_SECRET", defaultJWTSecret),
		TokenExpiry:    24 * time.Hour,
		AllowedOrigin:  getEnv("FRONTEND_URL", "http://localhost:3000"),
		SeedDemoData:   getBoolEnv("SEED_DEMO_DATA", true),
		DebugRoutes:    getBoolEnv("DEBUG_ROUTES", env != "production"),
		ReportSchedule: getEnv("REPORT_SCHEDULE", "@every 1m"),
	}

	if cfg.Env == "production" && cfg.JWTSecret == defaultJWTSecret {
		return nil, fmt.Errorf("JWT_SECRET must be set in production")
	}

	return cfg, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getBoolEnv(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
