// Package config loads service configuration from the environment, with
// optional .env bootstrap for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds everything the composition root needs to wire the service.
type Config struct {
	Port    int    `validate:"min=1,max=65535"`
	LogFile string
	DBPath  string `validate:"required"`

	JWTSecret     string `validate:"required,min=16"`
	AdminUser     string `validate:"required"`
	AdminPassword string `validate:"required"`

	SampleInterval time.Duration `validate:"min=100000000"` // >= 100ms
	PersistEvery   int           `validate:"min=1"`
	RetentionDays  int           `validate:"min=1"`
	HistorySize    int           `validate:"min=1"`

	CPUAlertThreshold float64 `validate:"gte=0,lte=100"`
	RAMAlertThreshold float64 `validate:"gte=0,lte=100"`
	DiscordWebhook    string  `validate:"omitempty,url"`
}

// Load reads HOSTPULSE_* variables, after loading a .env file when one is
// present next to the process.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              envInt("HOSTPULSE_PORT", 8090),
		LogFile:           os.Getenv("HOSTPULSE_LOG_FILE"),
		DBPath:            envString("HOSTPULSE_DB_PATH", "hostpulse.db"),
		JWTSecret:         os.Getenv("HOSTPULSE_JWT_SECRET"),
		AdminUser:         envString("HOSTPULSE_ADMIN_USER", "admin"),
		AdminPassword:     os.Getenv("HOSTPULSE_ADMIN_PASSWORD"),
		SampleInterval:    envDuration("HOSTPULSE_SAMPLE_INTERVAL", time.Second),
		PersistEvery:      envInt("HOSTPULSE_PERSIST_EVERY", 300),
		RetentionDays:     envInt("HOSTPULSE_RETENTION_DAYS", 30),
		HistorySize:       envInt("HOSTPULSE_HISTORY_SIZE", 300),
		CPUAlertThreshold: envFloat("HOSTPULSE_CPU_ALERT_THRESHOLD", 90),
		RAMAlertThreshold: envFloat("HOSTPULSE_RAM_ALERT_THRESHOLD", 90),
		DiscordWebhook:    os.Getenv("HOSTPULSE_DISCORD_WEBHOOK"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Retention converts the configured retention days into a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func envString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
