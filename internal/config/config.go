// Package config reads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Session  SessionConfig
	Admin    AdminConfig
}

// DatabaseConfig holds session store settings
type DatabaseConfig struct {
	Driver string // "postgres" or "sqlite"
	URL    string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// SessionConfig holds session lifecycle settings
type SessionConfig struct {
	SaveTTL time.Duration
}

// AdminConfig holds the admin/health endpoint settings
type AdminConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			Driver: getEnvOrDefault("DB_DRIVER", "sqlite"),
			URL:    getEnvOrDefault("DATABASE_URL", "file:geolens.db?_pragma=busy_timeout(5000)"),
		},
		Server: ServerConfig{
			Port:    getEnvOrDefault("PORT", "8080"),
			GinMode: getEnvOrDefault("GIN_MODE", "release"),
		},
		Session: SessionConfig{
			SaveTTL: getEnvDurationOrDefault("SESSION_SAVE_TTL", 7*24*time.Hour),
		},
		Admin: AdminConfig{
			Port:    getEnvOrDefault("ADMIN_PORT", "6060"),
			Enabled: getEnvBoolOrDefault("ADMIN_ENABLED", true),
		},
	}

	if cfg.Database.Driver != "postgres" && cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", cfg.Database.Driver)
	}
	if cfg.Database.Driver == "postgres" && os.Getenv("DATABASE_URL") == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres driver")
	}
	return cfg, nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
