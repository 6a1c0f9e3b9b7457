package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port             string
	APIBaseURL       string        // Root of the activities REST API
	APITimeout       time.Duration // Zero means no client timeout
	LogLevel         string
	Environment      string
	RedisURL         string // Empty keeps view sessions in memory
	SessionSecret    string
	SessionTTL       time.Duration
	MessageHideAfter time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		APIBaseURL:       strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8000"), "/"),
		APITimeout:       getDurationEnv("API_TIMEOUT", 0),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Environment:      getEnv("ENVIRONMENT", "production"),
		RedisURL:         getEnv("REDIS_URL", ""),
		SessionSecret:    getEnv("SESSION_SECRET", "change-me"),
		SessionTTL:       getDurationEnv("SESSION_TTL", 12*time.Hour),
		MessageHideAfter: getDurationEnv("MESSAGE_HIDE_AFTER", 5*time.Second),
	}, nil
}

// IsDevelopment reports whether the app runs in the development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDurationEnv gets a duration environment variable (e.g. "5s") with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
