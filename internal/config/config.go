// Package config provides configuration management for the companion backend.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application.
type Config struct {
	// HTTP server
	Port   string
	DBPath string

	// Marvel Rivals API
	RivalsAPIKey    string
	RivalsBaseURL   string
	RivalsImageBase string

	// Gemini
	GeminiAPIKey string
	GeminiModel  string

	// Assistant rate limiting
	MinRequestInterval time.Duration
	RequestsPerMinute  int
}

// Load reads configuration from environment variables. A .env file, when
// present, is loaded first.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Port:   getEnvOrDefault("PORT", "8080"),
		DBPath: getEnvOrDefault("DB_PATH", "./rivals_companion.db"),

		RivalsAPIKey:    os.Getenv("RIVALS_API_KEY"),
		RivalsBaseURL:   getEnvOrDefault("RIVALS_BASE_URL", "https://marvelrivalsapi.com/api/v1"),
		RivalsImageBase: getEnvOrDefault("RIVALS_IMAGE_BASE_URL", "https://marvelrivalsapi.com"),

		GeminiAPIKey: os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),

		MinRequestInterval: getEnvDuration("ASSISTANT_MIN_INTERVAL", 4*time.Second),
		RequestsPerMinute:  getEnvInt("ASSISTANT_REQUESTS_PER_MINUTE", 10),
	}

	return cfg
}

// getEnvOrDefault returns the environment variable value or a default.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}
