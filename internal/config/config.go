package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	// Server
	HTTPAddr string

	// Backend the gateway fronts
	UpstreamURL     string
	UpstreamTimeout time.Duration

	// Session storage
	RedisAddr   string
	RedisPass   string
	DatabaseURL string // optional fallback store
	SessionTTL  time.Duration

	// Session cookie
	CookieName   string
	CookieSecure bool
}

// Load loads environment variables into AppConfig.
func Load() AppConfig {
	return AppConfig{
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		UpstreamURL:     getEnv("UPSTREAM_API_URL", "http://localhost:8000"),
		UpstreamTimeout: getEnvDuration("UPSTREAM_TIMEOUT", 10*time.Second),

		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:   getEnv("REDIS_PASS", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SessionTTL:  getEnvDuration("SESSION_TTL", 720*time.Hour),

		CookieName:   getEnv("SESSION_COOKIE_NAME", "gsid"),
		CookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
	}
}

// --- Helper functions ---

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
	}
	return fallback
}
