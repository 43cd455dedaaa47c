package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/crypto/bcrypt"
)

// DevJWTSecret is used when JWT_SECRET is unset outside production.
const DevJWTSecret = "dev-only-insecure-secret"

// Config holds the application configuration.
type Config struct {
	ServerPort          int
	DatabasePath        string
	Environment         string
	LogLevel            string
	JWTSecret           string
	TokenTTL            time.Duration
	BcryptCost          int
	AllowedOrigins      []string
	EventRetention      time.Duration
	MaintenanceSchedule string

	// Database snapshots. An empty BackupSchedule disables them.
	BackupPath     string
	BackupSchedule string
	BackupKeep     int

	// Warnings collects non-fatal problems found while loading, logged by
	// the caller once the logger is up.
	Warnings []string
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabasePath:        getEnv("DATABASE_PATH", "./blog.db"),
		Environment:         getEnv("APP_ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		JWTSecret:           getEnv("JWT_SECRET", ""),
		AllowedOrigins:      splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		MaintenanceSchedule: getEnv("MAINTENANCE_SCHEDULE", "0 3 * * *"),
		BackupPath:          getEnv("BACKUP_PATH", "./backups"),
		BackupSchedule:      getEnv("BACKUP_SCHEDULE", ""),
	}

	var err error
	if cfg.ServerPort, err = strconv.Atoi(getEnv("PORT", "8080")); err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}
	if cfg.TokenTTL, err = time.ParseDuration(getEnv("JWT_EXPIRES_IN", "24h")); err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return nil, errors.New("JWT_EXPIRES_IN must be positive")
	}
	if cfg.BcryptCost, err = strconv.Atoi(getEnv("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost))); err != nil {
		return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.EventRetention, err = time.ParseDuration(getEnv("EVENT_RETENTION", "720h")); err != nil {
		return nil, fmt.Errorf("invalid EVENT_RETENTION: %w", err)
	}
	if _, err := cron.ParseStandard(cfg.MaintenanceSchedule); err != nil {
		return nil, fmt.Errorf("invalid MAINTENANCE_SCHEDULE: %w", err)
	}
	if cfg.BackupSchedule != "" {
		if _, err := cron.ParseStandard(cfg.BackupSchedule); err != nil {
			return nil, fmt.Errorf("invalid BACKUP_SCHEDULE: %w", err)
		}
	}
	if cfg.BackupKeep, err = strconv.Atoi(getEnv("BACKUP_KEEP", "7")); err != nil {
		return nil, fmt.Errorf("invalid BACKUP_KEEP: %w", err)
	}
	if cfg.BackupKeep < 1 {
		return nil, errors.New("BACKUP_KEEP must be at least 1")
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = DevJWTSecret
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET not set, using insecure development secret")
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

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
