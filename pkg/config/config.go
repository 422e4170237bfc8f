package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds environment-driven settings for the risk analyzer service.
type Config struct {
	Port string

	// Database
	DBPath string

	// Auth
	JWTSecret string

	// Threshold presets
	ThresholdsFile   string // optional YAML preset file
	ThresholdsPreset string // preset name within the file

	// Run history
	RunHistoryLimit int // max rows returned by the runs endpoint
}

// Load reads environment variables (optionally via .env) into Config.
func Load() (*Config, error) {
	// Ignore error so the app still starts when .env is missing.
	_ = godotenv.Load()

	return &Config{
		Port:             getEnv("PORT", "8080"),
		DBPath:           getEnv("DB_PATH", "./data/riskcore.db"),
		JWTSecret:        getEnv("JWT_SECRET", "dev-secret"),
		ThresholdsFile:   getEnv("THRESHOLDS_FILE", ""),
		ThresholdsPreset: getEnv("THRESHOLDS_PRESET", "default"),
		RunHistoryLimit:  getEnvInt("RUN_HISTORY_LIMIT", 100),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}
