package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"neemee-server/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort        string
	LogLevel          string
	SupabaseURL       string
	SupabaseKey       string
	BackendAPIURL     string
	BackendAPIKey     string
	ExtractionTimeout time.Duration
	RedisAddr         string
	PageCacheTTL      time.Duration
	AllowedOrigins    []string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:        getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		SupabaseURL:       getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:       getEnvOrDefault("SUPABASE_SERVICE_ROLE_KEY", getEnvOrDefault("SUPABASE_ANON_KEY", "")),
		BackendAPIURL:     getEnvOrDefault("BACKEND_API_URL", ""),
		BackendAPIKey:     getEnvOrDefault("BACKEND_API_KEY", ""),
		ExtractionTimeout: getEnvDurationOrDefault("EXTRACTION_TIMEOUT_SECONDS", 30*time.Second),
		RedisAddr:         getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		PageCacheTTL:      getEnvDurationOrDefault("PAGE_CACHE_TTL_SECONDS", 5*time.Minute),
		AllowedOrigins:    splitOrigins(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase service key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

// GetBackendAPIURL returns the base URL of the extraction backend
func (c *AppConfig) GetBackendAPIURL() string {
	return c.BackendAPIURL
}

// GetBackendAPIKey returns the shared secret for the extraction backend
func (c *AppConfig) GetBackendAPIKey() string {
	return c.BackendAPIKey
}

// GetExtractionTimeout returns the outbound extraction call timeout
func (c *AppConfig) GetExtractionTimeout() time.Duration {
	return c.ExtractionTimeout
}

// GetRedisAddr returns the Redis address for the page cache
func (c *AppConfig) GetRedisAddr() string {
	return c.RedisAddr
}

// GetPageCacheTTL returns the expiry of cached page HTML
func (c *AppConfig) GetPageCacheTTL() time.Duration {
	return c.PageCacheTTL
}

// GetAllowedOrigins returns the CORS origins for session routes
func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
