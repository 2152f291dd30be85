package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string

	// Upstream exam API (content provider + submission sink + portal CRUD).
	UpstreamBaseURL string
	UpstreamTimeout time.Duration

	RedisURL     string
	ExamCacheTTL time.Duration

	// Attempt tokens bind a browser to its in-memory exam attempt.
	AttemptTokenSecret string
	AttemptTokenExpiry time.Duration

	// Session clock and forced-submission policy.
	TickInterval      time.Duration
	SubmitMaxAttempts int
	SubmitBackoff     time.Duration

	// Terminal attempts are kept around this long so clients can read the outcome.
	AttemptReapAfter time.Duration

	// AllowedOrigins controls HTTP CORS and WebSocket origin validation.
	// Empty slice means all origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		ServerPort:         getEnv("SERVER_PORT", "8080"),
		GinMode:            getEnv("GIN_MODE", "debug"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "pretty"),
		UpstreamBaseURL:    getEnv("UPSTREAM_BASE_URL", "https://unisphere-api.clusterider.tech/api"),
		UpstreamTimeout:    time.Duration(getEnvInt("UPSTREAM_TIMEOUT_SECONDS", 15)) * time.Second,
		RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379/0"),
		ExamCacheTTL:       time.Duration(getEnvInt("EXAM_CACHE_TTL_MINUTES", 10)) * time.Minute,
		AttemptTokenSecret: getEnv("ATTEMPT_TOKEN_SECRET", "change-this-to-a-secure-random-string"),
		AttemptTokenExpiry: time.Duration(getEnvInt("ATTEMPT_TOKEN_EXPIRY_HOURS", 12)) * time.Hour,
		TickInterval:       time.Duration(getEnvInt("TICK_INTERVAL_MS", 1000)) * time.Millisecond,
		SubmitMaxAttempts:  getEnvInt("SUBMIT_MAX_ATTEMPTS", 3),
		SubmitBackoff:      time.Duration(getEnvInt("SUBMIT_BACKOFF_MS", 2000)) * time.Millisecond,
		AttemptReapAfter:   time.Duration(getEnvInt("ATTEMPT_REAP_MINUTES", 30)) * time.Minute,
		AllowedOrigins:     parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
