// Package config loads application configuration from the environment,
// with an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            int
	BigQueryProject string
	BigQueryDataset string
	GCSBucket       string
	SyncCron        string
	SyncStaleness   time.Duration
	LogLevel        string
	DevMode         bool
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnvAsInt("PORT", 8080),
		BigQueryProject: getEnv("BQ_PROJECT", ""),
		BigQueryDataset: getEnv("BQ_DATASET", "budgeting"),
		GCSBucket:       getEnv("GCS_BUCKET", ""),
		SyncCron:        getEnv("SYNC_CRON", "@hourly"),
		SyncStaleness:   getEnvAsDuration("SYNC_STALENESS", time.Hour),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DevMode:         getEnvAsBool("DEV_MODE", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that required configuration is present. DevMode runs on
// the in-memory store, so BigQuery settings are only required outside it.
func (c *Config) Validate() error {
	if !c.DevMode && c.BigQueryProject == "" {
		return fmt.Errorf("BQ_PROJECT is required (or set DEV_MODE=true)")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
