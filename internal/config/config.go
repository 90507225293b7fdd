// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for the engine database (always absolute)
	LogLevel     string
	Port         int
	DevMode      bool
	PlanCron     string // Cron schedule for the weekly plan generation job (6-field, with seconds)
	PlanJobOn    bool   // Whether the scheduled weekly planner runs at all
	AllowOrigins []string
}

// Load reads configuration from the environment, with an optional .env file.
// Missing values fall back to defaults suitable for local development.
func Load() (*Config, error) {
	// .env is optional; env vars win either way
	_ = godotenv.Load()

	dataDir := getEnv("CADENCE_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data dir %q: %w", dataDir, err)
	}

	port, err := getEnvInt("CADENCE_PORT", 8090)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:      absDataDir,
		LogLevel:     getEnv("CADENCE_LOG_LEVEL", "info"),
		Port:         port,
		DevMode:      getEnvBool("CADENCE_DEV_MODE", false),
		PlanCron:     getEnv("CADENCE_PLAN_CRON", "0 0 18 * * SUN"),
		PlanJobOn:    getEnvBool("CADENCE_PLAN_JOB", true),
		AllowOrigins: []string{getEnv("CADENCE_CORS_ORIGIN", "*")},
	}

	return cfg, nil
}

// DatabasePath returns the path of the engine's sqlite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "cadence.db")
}

// getEnv retrieves an environment variable value, returning a fallback if the
// variable is not set or is empty.
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q", key, value)
	}
	return parsed, nil
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
