// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings for the API binary. An empty DatabaseURL
// selects the in-memory store.
type Config struct {
	Port        string
	DatabaseURL string
	WebhookURL  string
	Env         string
	LogLevel    string
	Currency    string
}

// Load reads the .env file when present and falls back to system environment
// variables. Missing keys take their defaults; a missing .env file is not an
// error.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "3000"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		WebhookURL:  getEnv("WEBHOOK_URL", ""),
		Env:         getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", ""),
		Currency:    getEnv("CURRENCY", "GBP"),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return fallback
}
